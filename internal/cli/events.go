package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
	"github.com/spf13/cobra"
)

func NewEventsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Browse and manage events",
	}
	cmd.AddCommand(newEventsListCommand(rootOpts))
	cmd.AddCommand(newEventsShowCommand(rootOpts))
	cmd.AddCommand(newEventsCreateCommand(rootOpts))
	cmd.AddCommand(newEventsEditCommand(rootOpts))
	cmd.AddCommand(newEventsDeleteCommand(rootOpts))
	cmd.AddCommand(newEventsMineCommand(rootOpts))
	cmd.AddCommand(newEventsAttendingCommand(rootOpts))
	return cmd
}

func parseEventArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid event id %q", arg))
	}
	return id, nil
}

func parseCategory(s string) (models.Category, error) {
	c := models.Category(strings.TrimSpace(s))
	if c == "" || c == models.CategoryAll || c.Valid() {
		return c, nil
	}
	return "", NewExitError(ExitCommandError, fmt.Sprintf("unknown category %q", s))
}

func NewAttendCommand(rootOpts *RootOptions) *cobra.Command {
	return newToggleCommand(rootOpts, "attend", "Mark yourself as attending an event", true)
}

func NewLeaveCommand(rootOpts *RootOptions) *cobra.Command {
	return newToggleCommand(rootOpts, "leave", "Stop attending an event", false)
}

func newEventsListCommand(rootOpts *RootOptions) *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:           "list",
		Short:         "List upcoming events, earliest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsList(rootOpts, category, cmd)
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only show this category")
	return cmd
}

func runEventsList(rootOpts *RootOptions, category string, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	c, err := parseCategory(category)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}

	events, err := app.Events.ListEvents(cmd.Context())
	if err != nil {
		return out.Error(err)
	}
	events = services.FilterByCategory(events, c)
	out.VerboseLog("%d event(s)", len(events))
	return out.Success(events, "", func(w io.Writer) {
		writeEventTable(w, events)
	})
}

func newEventsShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "show <event-id>",
		Short:         "Show an event with your attendance",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsShow(rootOpts, args[0], cmd)
		},
	}
}

func runEventsShow(rootOpts *RootOptions, arg string, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	id, err := parseEventArg(arg)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}

	// Anonymous viewers still see the event and its count.
	token, viewerID, err := app.Session.Token(cmd.Context())
	if err != nil {
		token, viewerID = "", uuid.Nil
	}
	detail, err := app.Attendance.Detail(cmd.Context(), id, viewerID, token)
	if err != nil {
		return out.Error(err)
	}
	return out.Success(detail, "", func(w io.Writer) {
		writeEventDetail(w, detail)
	})
}

// eventFlags binds the create and edit form fields. Date and time use the
// form layouts (2025-01-05, 19:30).
type eventFlags struct {
	fields models.EventFields
	image  string
}

func (f *eventFlags) register(cmd *cobra.Command) {
	fl := cmd.Flags()
	fl.StringVar(&f.fields.Name, "name", "", "Event name")
	fl.StringVar(&f.fields.Date, "date", "", "Date ("+helpers.InputDateLayout+")")
	fl.StringVar(&f.fields.Time, "time", "", "Start time ("+helpers.InputTimeLayout+")")
	fl.StringVar(&f.fields.Location, "location", "", "City or address")
	fl.StringVar(&f.fields.Venue, "venue", "", "Venue name")
	fl.StringVar((*string)(&f.fields.Category), "category", "", "Category")
	fl.StringVar(&f.fields.Description, "description", "", "Description")
	fl.StringVar(&f.image, "image", "", "Path to an image file")
}

// overlay copies the flags the user set onto base.
func (f *eventFlags) overlay(cmd *cobra.Command, base *models.EventFields) {
	fl := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if fl.Changed(name) {
			*dst = v
		}
	}
	set("name", &base.Name, f.fields.Name)
	set("date", &base.Date, f.fields.Date)
	set("time", &base.Time, f.fields.Time)
	set("location", &base.Location, f.fields.Location)
	set("venue", &base.Venue, f.fields.Venue)
	set("description", &base.Description, f.fields.Description)
	if fl.Changed("category") {
		base.Category = f.fields.Category
	}
}

// loadImage reads the image file, refusing anything over the size limit
// before reading it.
func loadImage(path string) (*models.ImageUpload, error) {
	if path == "" {
		return nil, nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read image", err)
	}
	if info.Size() > helpers.MaxImageSize {
		return nil, fmt.Errorf("%w: %w (%d bytes)", models.ErrImageUpload, helpers.ErrImageTooLarge, info.Size())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read image", err)
	}
	return &models.ImageUpload{Filename: filepath.Base(path), Data: data}, nil
}

func newEventsCreateCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &eventFlags{}
	cmd := &cobra.Command{
		Use:           "create",
		Short:         "Publish a new event",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsCreate(rootOpts, flags, cmd)
		},
	}
	flags.register(cmd)
	for _, name := range []string{"name", "date", "time", "location", "venue", "category", "description"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runEventsCreate(rootOpts *RootOptions, flags *eventFlags, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	image, err := loadImage(flags.image)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}
	token, userID, err := signedIn(cmd, app)
	if err != nil {
		return out.Error(err)
	}

	fields := flags.fields
	event, err := app.Events.CreateEvent(cmd.Context(), &fields, image, userID, token)
	if err != nil {
		return out.Error(err)
	}
	return out.Success(event, fmt.Sprintf("Event %d created.", event.ID), nil)
}

func newEventsEditCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &eventFlags{}
	cmd := &cobra.Command{
		Use:   "edit <event-id>",
		Short: "Change an event you organize",
		Long: `Change an event you organize. Only the flags you pass are changed;
the rest keep their current values. Without --image the current image is kept.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsEdit(rootOpts, flags, args[0], cmd)
		},
	}
	flags.register(cmd)
	return cmd
}

func runEventsEdit(rootOpts *RootOptions, flags *eventFlags, arg string, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	id, err := parseEventArg(arg)
	if err != nil {
		return out.Error(err)
	}
	image, err := loadImage(flags.image)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}
	token, userID, err := signedIn(cmd, app)
	if err != nil {
		return out.Error(err)
	}

	event, err := app.Events.AuthorizeOrganizer(cmd.Context(), id, userID)
	if err != nil {
		return out.Error(err)
	}
	fields, err := models.FieldsFromEvent(event, time.Now().Year())
	if err != nil {
		return out.Error(fmt.Errorf("%w: stored date or time is unreadable: %v", models.ErrInvalidInput, err))
	}
	flags.overlay(cmd, fields)

	if err := app.Events.UpdateEvent(cmd.Context(), id, fields, image, token); err != nil {
		return out.Error(err)
	}
	updated, err := app.Events.GetEvent(cmd.Context(), id)
	if err != nil {
		return out.Error(err)
	}
	return out.Success(updated, fmt.Sprintf("Event %d updated.", id), nil)
}

func newEventsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:           "delete <event-id>",
		Short:         "Delete an event you organize",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsDelete(rootOpts, yes, args[0], cmd)
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the deletion")
	return cmd
}

func runEventsDelete(rootOpts *RootOptions, yes bool, arg string, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	id, err := parseEventArg(arg)
	if err != nil {
		return out.Error(err)
	}
	if !yes {
		return out.Error(NewExitError(ExitCommandError, "deleting an event cannot be undone, pass --yes to confirm"))
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}
	token, userID, err := signedIn(cmd, app)
	if err != nil {
		return out.Error(err)
	}

	if _, err := app.Events.AuthorizeOrganizer(cmd.Context(), id, userID); err != nil {
		return out.Error(err)
	}
	if err := app.Events.DeleteEvent(cmd.Context(), id, token); err != nil {
		return out.Error(err)
	}
	return out.Success(map[string]int64{"id": id}, fmt.Sprintf("Event %d deleted.", id), nil)
}

func newEventsMineCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "mine",
		Short:         "List the events you organize",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsForUser(rootOpts, cmd, false)
		},
	}
}

func newEventsAttendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "attending",
		Short:         "List the events you are attending",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventsForUser(rootOpts, cmd, true)
		},
	}
}

func runEventsForUser(rootOpts *RootOptions, cmd *cobra.Command, attending bool) error {
	out := formatterFor(rootOpts, cmd)
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}
	token, userID, err := signedIn(cmd, app)
	if err != nil {
		return out.Error(err)
	}

	var events []*models.Event
	if attending {
		events, err = app.Events.ListAttendingEvents(cmd.Context(), userID, token)
	} else {
		events, err = app.Events.ListEventsByOrganizer(cmd.Context(), userID)
	}
	if err != nil {
		return out.Error(err)
	}
	return out.Success(events, "", func(w io.Writer) {
		writeEventTable(w, events)
	})
}

func newToggleCommand(rootOpts *RootOptions, use, short string, attend bool) *cobra.Command {
	return &cobra.Command{
		Use:           use + " <event-id>",
		Short:         short,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runToggle(rootOpts, args[0], attend, cmd)
		},
	}
}

func runToggle(rootOpts *RootOptions, arg string, attend bool, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	id, err := parseEventArg(arg)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}
	token, userID, err := signedIn(cmd, app)
	if err != nil {
		return out.Error(err)
	}

	toggle := app.Attendance.Leave
	if attend {
		toggle = app.Attendance.Attend
	}
	pairing, err := toggle(cmd.Context(), id, userID, token)
	if err != nil {
		if pairing != nil {
			out.VerboseLog("attendance unchanged: %s, %d going", pairing.State, pairing.AttendeeCount)
		}
		return out.Error(err)
	}
	return out.Success(pairing, "", func(w io.Writer) {
		writePairing(w, pairing)
	})
}

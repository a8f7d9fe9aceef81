package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/services"
	"github.com/spf13/cobra"
)

type calendarOptions struct {
	category  string
	output    string
	attending bool
}

func NewCalendarCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &calendarOptions{}
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Export events as an iCalendar file",
		Long: `Export events as an iCalendar (.ics) file that calendar apps can import.

Stored dates carry no year, so events are placed in the current year and
last three hours.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalendar(rootOpts, opts, cmd)
		},
	}
	cmd.Flags().StringVarP(&opts.category, "category", "c", "", "Only export this category")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "Write to this file instead of stdout")
	cmd.Flags().BoolVar(&opts.attending, "attending", false, "Only export events you are attending")
	return cmd
}

func runCalendar(rootOpts *RootOptions, opts *calendarOptions, cmd *cobra.Command) error {
	out := formatterFor(rootOpts, cmd)
	category, err := parseCategory(opts.category)
	if err != nil {
		return out.Error(err)
	}
	app, err := rootOpts.App(cmd)
	if err != nil {
		return out.Error(err)
	}

	var events []*models.Event
	if opts.attending {
		token, userID, err := signedIn(cmd, app)
		if err != nil {
			return out.Error(err)
		}
		events, err = app.Events.ListAttendingEvents(cmd.Context(), userID, token)
		if err != nil {
			return out.Error(err)
		}
	} else if events, err = app.Events.ListEvents(cmd.Context()); err != nil {
		return out.Error(err)
	}
	events = services.FilterByCategory(events, category)

	now := time.Now()
	cal, skipped := helpers.BuildCalendar(models.CalendarEntries(events), now.Year(), now)
	for _, uid := range skipped {
		fmt.Fprintf(out.GetErrWriter(), "Skipping %s: unreadable date or time\n", uid)
	}

	var buf bytes.Buffer
	if err := helpers.WriteCalendar(&buf, cal); err != nil {
		return out.Error(err)
	}

	if opts.output == "" {
		_, err := io.Copy(cmd.OutOrStdout(), &buf)
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return out.Error(WrapExitError(ExitCommandError, "failed to write calendar", err))
	}
	exported := len(events) - len(skipped)
	return out.Success(map[string]interface{}{"file": opts.output, "events": exported},
		fmt.Sprintf("Wrote %d event(s) to %s.", exported, opts.output), nil)
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/joshua-takyi/gigs/internal/helpers"
	"github.com/joshua-takyi/gigs/internal/models"
	"github.com/joshua-takyi/gigs/internal/session"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // the store or a remote service refused the operation
	ExitCommandError = 2 // bad arguments or configuration
	ExitAuth         = 3 // not signed in, or not allowed
	ExitConflict     = 4 // a toggle for the same event is already running
)

// ExitError carries the exit code a failed command should end with.
type ExitError struct {
	Code    int
	Message string
	Err     error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode picks the exit code for err. Errors that are not an ExitError
// are classified by their domain sentinel.
func GetExitCode(err error) int {
	var exitErr *ExitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &exitErr):
		return exitErr.Code
	case errors.Is(err, models.ErrToggleInFlight):
		return ExitConflict
	case errors.Is(err, models.ErrAuth), errors.Is(err, models.ErrForbidden),
		errors.Is(err, session.ErrSignedOut), errors.Is(err, helpers.ErrInvalidToken):
		return ExitAuth
	case errors.Is(err, models.ErrInvalidInput), errors.Is(err, helpers.ErrImageTooLarge),
		errors.Is(err, helpers.ErrNotAnImage), errors.Is(err, helpers.ErrEmptyImage):
		return ExitCommandError
	}
	return ExitFailure
}

// OutputFormatter writes command results as text or as a JSON envelope.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope; it mirrors the API's response shape.
type CLIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success writes data. In text mode text is called to render it instead.
func (f *OutputFormatter) Success(data interface{}, message string, text func(w io.Writer)) error {
	if f.JSON() {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Message: message, Data: data})
	}
	if text != nil {
		text(f.Writer)
	}
	if message != "" {
		fmt.Fprintln(f.Writer, message)
	}
	return nil
}

// reportedError marks an error the formatter already printed.
type reportedError struct{ error }

func (e reportedError) Unwrap() error { return e.error }

// Reported tells main whether err still needs printing. Flag and argument
// errors from cobra never pass through a formatter.
func Reported(err error) bool {
	var r reportedError
	return errors.As(err, &r)
}

// Error reports err and returns it marked as reported, so RunE can pass it
// up for the exit code.
func (f *OutputFormatter) Error(err error) error {
	if f.JSON() {
		_ = json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "error", Error: err.Error()})
	} else {
		fmt.Fprintf(f.GetErrWriter(), "Error: %v\n", err)
	}
	return reportedError{err}
}

func (f *OutputFormatter) VerboseLog(format string, args ...interface{}) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func writeEventTable(w io.Writer, events []*models.Event) {
	if len(events) == 0 {
		fmt.Fprintln(w, "No events found.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tTIME\tNAME\tVENUE\tCATEGORY\tGOING")
	for _, e := range events {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%d\n", e.ID, e.Date, e.Time, e.Name, e.Venue, e.Category, e.AttendeeCount)
	}
	tw.Flush()
}

func writeEventDetail(w io.Writer, d *models.EventDetail) {
	e := d.Event
	fmt.Fprintf(w, "%s (#%d)\n", e.Name, e.ID)
	fmt.Fprintf(w, "  When:      %s at %s\n", e.Date, e.Time)
	fmt.Fprintf(w, "  Where:     %s, %s\n", e.Venue, e.Location)
	fmt.Fprintf(w, "  Category:  %s\n", e.Category)
	fmt.Fprintf(w, "  Attending: %d\n", d.Pairing.AttendeeCount)
	if e.ImageURL != nil {
		fmt.Fprintf(w, "  Image:     %s\n", *e.ImageURL)
	}
	fmt.Fprintf(w, "\n%s\n\n", e.Description)
	writeAffordances(w, d)
}

func writeAffordances(w io.Writer, d *models.EventDetail) {
	a := d.Affordances
	switch {
	case a.MustSignIn:
		fmt.Fprintln(w, "Sign in with \"gigctl login\" to attend.")
		return
	case d.Pairing.State == models.StateTransitioning:
		fmt.Fprintln(w, "Your attendance is being updated.")
	case a.CanLeave:
		fmt.Fprintf(w, "You are attending. Leave with \"gigctl leave %d\".\n", d.Event.ID)
	case a.CanAttend:
		fmt.Fprintf(w, "Attend with \"gigctl attend %d\".\n", d.Event.ID)
	}
	if a.CanEdit {
		fmt.Fprintf(w, "You organize this event: \"gigctl events edit %d\" or \"gigctl events delete %d --yes\".\n", d.Event.ID, d.Event.ID)
	}
}

func writePairing(w io.Writer, p *models.Pairing) {
	verb := "not attending"
	if p.Attending() {
		verb = "attending"
	}
	fmt.Fprintf(w, "You are %s event %d (%d going).\n", verb, p.EventID, p.AttendeeCount)
}

package helpers

import (
	"fmt"
	"strings"
	"time"
)

// Layouts used by the create/edit forms and by the stored display strings.
const (
	InputDateLayout   = "2006-01-02"
	InputTimeLayout   = "15:04"
	DisplayDateLayout = "January 2"
	DisplayTimeLayout = "3:04 PM"
)

// ParseInputDate parses a form date ("2025-10-12").
func ParseInputDate(s string) (time.Time, error) {
	d, err := time.Parse(InputDateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// ParseInputTime parses a 24h form time ("19:30").
func ParseInputTime(s string) (time.Time, error) {
	t, err := time.Parse(InputTimeLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t, nil
}

// FormatDisplayDate renders the stored form of a date: "January 5".
func FormatDisplayDate(d time.Time) string {
	return d.Format(DisplayDateLayout)
}

// ParseDisplayDate is the inverse of FormatDisplayDate. The display form drops
// the year, so the caller has to say which year to assume; "February 29" only
// parses when that year is a leap year.
func ParseDisplayDate(display string, year int) (time.Time, error) {
	s := strings.Join(strings.Fields(display), " ")
	d, err := time.Parse(DisplayDateLayout+" 2006", fmt.Sprintf("%s %04d", s, year))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid display date %q: %v", display, err)
	}
	return d, nil
}

// FormatDisplayTime renders the stored form of a time of day: "7:30 PM".
func FormatDisplayTime(t time.Time) string {
	return t.Format(DisplayTimeLayout)
}

// ParseDisplayTime is the inverse of FormatDisplayTime. It accepts any case
// and an optional space before the AM/PM marker ("7:30pm").
func ParseDisplayTime(display string) (time.Time, error) {
	s := strings.ToUpper(strings.Join(strings.Fields(display), ""))
	for _, marker := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, marker) {
			s = strings.TrimSuffix(s, marker) + " " + marker
			break
		}
	}
	t, err := time.Parse(DisplayTimeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid display time %q", display)
	}
	return t, nil
}

// DisplayDateToInput converts a stored "January 5" back into the form value
// "2025-01-05" for the given year.
func DisplayDateToInput(display string, year int) (string, error) {
	d, err := ParseDisplayDate(display, year)
	if err != nil {
		return "", err
	}
	return d.Format(InputDateLayout), nil
}

// DisplayTimeToInput converts a stored "7:30 PM" back into "19:30".
func DisplayTimeToInput(display string) (string, error) {
	t, err := ParseDisplayTime(display)
	if err != nil {
		return "", err
	}
	return t.Format(InputTimeLayout), nil
}

// InputToDisplay converts the form pair into the stored display pair.
func InputToDisplay(date, clock string) (string, string, error) {
	d, err := ParseInputDate(date)
	if err != nil {
		return "", "", err
	}
	t, err := ParseInputTime(clock)
	if err != nil {
		return "", "", err
	}
	return FormatDisplayDate(d), FormatDisplayTime(t), nil
}

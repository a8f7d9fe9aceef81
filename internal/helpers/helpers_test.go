package helpers

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func pngOfSize(n int) []byte {
	data := make([]byte, n)
	copy(data, pngHeader)
	return data
}

func TestShortDescription(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"first sentence", "Live jazz. Doors at 7.", "Live jazz."},
		{"no period", "Live jazz", "Live jazz."},
		{"period at end", "Live jazz.", "Live jazz."},
		{"leading period", ".hidden", "."},
		{"empty", "", "."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ShortDescription(tt.in))
		})
	}
}

func TestIsPasswordStrong(t *testing.T) {
	assert.False(t, IsPasswordStrong("12345"))
	assert.False(t, IsPasswordStrong("  12345  "))
	assert.True(t, IsPasswordStrong("123456"))
}

func TestValidateImage_SizeBoundary(t *testing.T) {
	mt, err := ValidateImage(pngOfSize(MaxImageSize))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mt.String())

	_, err = ValidateImage(pngOfSize(MaxImageSize + 1))
	assert.True(t, errors.Is(err, ErrImageTooLarge))
}

func TestValidateImage_RejectsNonImages(t *testing.T) {
	_, err := ValidateImage(nil)
	assert.ErrorIs(t, err, ErrEmptyImage)

	_, err = ValidateImage([]byte("just some text, not a picture"))
	assert.ErrorIs(t, err, ErrNotAnImage)
}

func TestNewImagePath(t *testing.T) {
	now := time.UnixMilli(1735689600123)
	pattern := regexp.MustCompile(`^1735689600123-[0-9a-f]{11}\.jpg$`)

	p := NewImagePath("Poster.JPG", nil, now)
	assert.Regexp(t, pattern, p)

	other := NewImagePath("Poster.JPG", nil, now)
	assert.NotEqual(t, p, other, "names taken in the same millisecond must still differ")

	mt := mimetype.Detect(pngHeader)
	assert.Regexp(t, `^1735689600123-[0-9a-f]{11}\.png$`, NewImagePath("upload", mt, now))
}

func TestInputToDisplay(t *testing.T) {
	date, clock, err := InputToDisplay("2025-01-05", "19:30")
	require.NoError(t, err)
	assert.Equal(t, "January 5", date)
	assert.Equal(t, "7:30 PM", clock)

	date, clock, err = InputToDisplay("2025-12-31", "00:05")
	require.NoError(t, err)
	assert.Equal(t, "December 31", date)
	assert.Equal(t, "12:05 AM", clock)

	_, _, err = InputToDisplay("05/01/2025", "19:30")
	assert.Error(t, err)
	_, _, err = InputToDisplay("2025-01-05", "7:30 PM")
	assert.Error(t, err)
}

func TestDisplayDateRoundTrip_EveryDay(t *testing.T) {
	for _, year := range []int{2024, 2025} {
		for d := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC); d.Year() == year; d = d.AddDate(0, 0, 1) {
			input := d.Format(InputDateLayout)
			display, _, err := InputToDisplay(input, "12:00")
			require.NoError(t, err)

			back, err := DisplayDateToInput(display, year)
			require.NoError(t, err, "display %q", display)
			assert.Equal(t, input, back)
		}
	}
}

func TestParseDisplayDate_LeapDay(t *testing.T) {
	_, err := ParseDisplayDate("February 29", 2024)
	assert.NoError(t, err)

	_, err = ParseDisplayDate("February 29", 2025)
	assert.Error(t, err)
}

func TestParseDisplayDate_ToleratesSpacing(t *testing.T) {
	d, err := ParseDisplayDate("  March   7 ", 2025)
	require.NoError(t, err)
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 7, d.Day())
}

func TestDisplayTimeRoundTrip_EveryMinute(t *testing.T) {
	base := time.Date(0, 1, 1, 0, 0, 0, 0, time.UTC)
	for m := 0; m < 24*60; m++ {
		input := base.Add(time.Duration(m) * time.Minute).Format(InputTimeLayout)
		_, display, err := InputToDisplay("2025-06-01", input)
		require.NoError(t, err)

		back, err := DisplayTimeToInput(display)
		require.NoError(t, err, "display %q", display)
		require.Equal(t, input, back)
	}
}

func TestParseDisplayTime_Variants(t *testing.T) {
	for _, s := range []string{"7:30 PM", "7:30PM", "7:30 pm", " 7:30pm "} {
		got, err := ParseDisplayTime(s)
		require.NoError(t, err, s)
		assert.Equal(t, 19, got.Hour(), s)
		assert.Equal(t, 30, got.Minute(), s)
	}

	_, err := ParseDisplayTime("19:30")
	assert.Error(t, err)
}

func TestJoinLocation(t *testing.T) {
	assert.Equal(t, "Blue Note, New York", joinLocation("Blue Note", "New York"))
	assert.Equal(t, "New York", joinLocation(" ", "New York"))
	assert.Equal(t, "", joinLocation("", ""))
}

package helpers

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

const (
	EventsFolder = "events"

	// MaxImageSize is the largest accepted event image, inclusive.
	MaxImageSize = 5 * 1024 * 1024

	MinPasswordLength = 6
)

var (
	ErrImageTooLarge = errors.New("image size should be less than 5MB")
	ErrNotAnImage    = errors.New("please select a valid image file")
	ErrEmptyImage    = errors.New("image file is empty")
)

func StringTrim(s string) string {
	return strings.TrimSpace(s)
}

// ShortDescription returns the description up to and including its first
// period, or the whole description with a period appended when it has none.
func ShortDescription(description string) string {
	if i := strings.Index(description, "."); i >= 0 {
		return description[:i+1]
	}
	return description + "."
}

func IsPasswordStrong(password string) bool {
	return len(strings.TrimSpace(password)) >= MinPasswordLength
}

// ValidateImage checks size and content before anything is sent over the
// network. It returns the sniffed MIME type.
func ValidateImage(data []byte) (*mimetype.MIME, error) {
	if len(data) == 0 {
		return nil, ErrEmptyImage
	}
	if len(data) > MaxImageSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrImageTooLarge, len(data))
	}
	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, fmt.Errorf("%w: detected %s", ErrNotAnImage, mt.String())
	}
	return mt, nil
}

// NewImagePath builds a collision resistant object name:
// <unix millis>-<random>.<ext>. The extension comes from the uploaded file
// name, falling back to the sniffed type.
func NewImagePath(filename string, mt *mimetype.MIME, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" && mt != nil {
		ext = mt.Extension()
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:11]
	return fmt.Sprintf("%d-%s%s", now.UnixMilli(), suffix, ext)
}

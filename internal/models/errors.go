package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrAuth                = errors.New("authentication failed")
	ErrImageUpload         = errors.New("image upload failed")
	ErrPersist             = errors.New("failed to save changes")
	ErrQuery               = errors.New("failed to load data")
	ErrDuplicateAttendance = errors.New("attendance already recorded")
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrToggleInFlight      = errors.New("attendance update already in progress")
)

// PostgREST reports failures as "(<code>) <message>".
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgrstNoRows           = "PGRST116"
)

// storeErrorCode extracts the postgres / PostgREST code from an error
// produced by postgrest-go. Returns "" when the error carries none.
func storeErrorCode(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if !strings.HasPrefix(msg, "(") {
		return ""
	}
	end := strings.Index(msg, ")")
	if end <= 1 {
		return ""
	}
	return msg[1:end]
}

func isUniqueViolation(err error) bool {
	if storeErrorCode(err) == pgUniqueViolation {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "duplicate key value")
}

// classifyStoreError wraps a raw store error in the sentinel that matches its
// code, falling back to kind.
func classifyStoreError(kind error, op string, err error) error {
	switch storeErrorCode(err) {
	case pgrstNoRows:
		return fmt.Errorf("%w: %s: %w", kind, op, ErrNotFound)
	case pgForeignKeyViolation:
		return fmt.Errorf("%w: %s: referenced row does not exist: %w", kind, op, ErrNotFound)
	}
	return fmt.Errorf("%w: %s: %w", kind, op, err)
}

package store

import (
	"errors"
	"strings"
)

var (
	// ErrNoTask indicates an empty queue, not a failure.
	ErrNoTask = errors.New("store: no task available")

	// ErrConflict is returned when an insert collides with an existing
	// unique key, e.g. a duplicate (video_id, gapper_id).
	ErrConflict = errors.New("store: conflict")

	// ErrNotFound is returned when an update targets a missing row.
	ErrNotFound = errors.New("store: not found")

	// ErrUnavailable is returned after the internal busy-retry budget is
	// exhausted. Workers treat it as fatal for the current iteration.
	ErrUnavailable = errors.New("store: unavailable")
)

// isBusy reports whether an error is a transient SQLite busy/locked
// condition worth retrying.
func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}

// isUniqueViolation reports whether an error is a unique-key collision.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}

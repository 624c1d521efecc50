// Package storage holds what every event store backend agrees on: the error
// vocabulary the events service branches on and small helpers shared by the
// SQL backends.
package storage

import (
	"errors"
	"fmt"
	"strings"

	"eventrea/internal/models"
)

const (
	FieldID   = "id"
	FieldSlug = "slug"
)

var (
	ErrNotFound  = errors.New("event not found")
	ErrInvalidID = errors.New("invalid event id")
)

// UniqueViolationError reports an insert or update rejected by a unique index
// on Field. A write that fails this way left nothing behind.
type UniqueViolationError struct {
	Field string
	Err   error
}

func (e *UniqueViolationError) Error() string {
	return fmt.Sprintf("unique violation on %s: %v", e.Field, e.Err)
}

func (e *UniqueViolationError) Unwrap() error { return e.Err }

// IsUniqueViolation reports whether err is a unique violation on field.
func IsUniqueViolation(err error, field string) bool {
	var uv *UniqueViolationError
	return errors.As(err, &uv) && uv.Field == field
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LikePattern returns a LIKE pattern matching s anywhere, with wildcards in s
// escaped by a backslash.
func LikePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// Column is a single column assignment of an UPDATE.
type Column struct {
	Name  string
	Value any
}

// PatchColumns lists the SQL column assignments p asks for, in a fixed order.
func PatchColumns(p models.Patch) []Column {
	a := p.Attributes.Normalize()

	var cols []Column
	if p.Description != nil {
		cols = append(cols, Column{"description", *p.Description})
	}
	if a.Price != nil {
		cols = append(cols, Column{"price", *a.Price})
	}
	if a.Currency != nil {
		cols = append(cols, Column{"currency", *a.Currency})
	}
	if a.Capacity != nil {
		cols = append(cols, Column{"capacity", *a.Capacity})
	}
	if a.AttendeesCount != nil {
		cols = append(cols, Column{"attendees_count", *a.AttendeesCount})
	}
	if a.IsFree != nil {
		cols = append(cols, Column{"is_free", *a.IsFree})
	}
	if a.Status != nil {
		cols = append(cols, Column{"status", string(*a.Status)})
	}
	if a.IsActive != nil {
		cols = append(cols, Column{"is_active", *a.IsActive})
	}
	if a.IsOnline != nil {
		cols = append(cols, Column{"is_online", *a.IsOnline})
	}
	if a.MeetingURL != nil {
		cols = append(cols, Column{"meeting_url", *a.MeetingURL})
	}

	return cols
}

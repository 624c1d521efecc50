package events

import "errors"

var (
	// ErrInvalidTitle is returned for a title with nothing to build a slug from.
	ErrInvalidTitle = errors.New("title must contain at least one letter or digit")
	// ErrRetryExhausted is returned when every slug candidate collided.
	ErrRetryExhausted = errors.New("no free slug after retrying")
	ErrMissingID      = errors.New("event id is required")
	ErrMissingSlug    = errors.New("event slug is required")
)

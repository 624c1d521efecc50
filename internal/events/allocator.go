// Package events creates and manages events. New events get their slug from
// an Allocator, which derives it from the title and leans on the store's
// unique slug index to settle races between concurrent creators.
package events

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"eventrea/internal/lib/slug"
	"eventrea/internal/models"
	"eventrea/internal/storage"
)

const DefaultMaxAttempts = 16

// EventCreator persists a new event and sets its ID. A slug clash must be
// reported as a *storage.UniqueViolationError on storage.FieldSlug and must
// leave nothing behind.
//
//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventCreator
type EventCreator interface {
	CreateEvent(ctx context.Context, e *models.Event) error
}

type Allocator struct {
	log         *slog.Logger
	creator     EventCreator
	maxAttempts int
	rand        io.Reader
	now         func() time.Time
}

type Option func(*Allocator)

// WithMaxAttempts caps the number of inserts per Create. n <= 0 keeps the
// default.
func WithMaxAttempts(n int) Option {
	return func(a *Allocator) {
		if n > 0 {
			a.maxAttempts = n
		}
	}
}

// WithRand sets the source of slug suffixes.
func WithRand(r io.Reader) Option {
	return func(a *Allocator) { a.rand = r }
}

func WithClock(now func() time.Time) Option {
	return func(a *Allocator) { a.now = now }
}

func NewAllocator(log *slog.Logger, creator EventCreator, opts ...Option) *Allocator {
	a := &Allocator{
		log:         log,
		creator:     creator,
		maxAttempts: DefaultMaxAttempts,
		rand:        rand.Reader,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Create persists a new event built from d under the slug of its title, or
// under slug-<8 hex> when that is taken. Store errors other than a slug clash
// are returned as they are.
func (a *Allocator) Create(ctx context.Context, d models.Draft) (*models.Event, error) {
	const op = "events.Allocator.Create"

	log := a.log.With(slog.String("op", op))

	if strings.TrimSpace(d.Title) == "" {
		return nil, ErrInvalidTitle
	}

	base := slug.Make(d.Title)
	if base == "" {
		return nil, ErrInvalidTitle
	}

	candidate := base
	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		event := models.NewEvent(d, candidate, a.now().UTC())

		err := a.creator.CreateEvent(ctx, &event)
		if err == nil {
			log.Info("event created",
				slog.String("id", event.ID),
				slog.String("slug", event.Slug),
				slog.Int("attempts", attempt),
			)
			return &event, nil
		}

		if !storage.IsUniqueViolation(err, storage.FieldSlug) {
			return nil, err
		}

		log.Debug("slug taken", slog.String("slug", candidate), slog.Int("attempt", attempt))

		if attempt >= a.maxAttempts {
			return nil, fmt.Errorf("%s: %w: %q after %d attempts", op, ErrRetryExhausted, base, attempt)
		}

		suffix, err := slug.Suffix(a.rand)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		candidate = slug.Join(base, suffix)
	}
}

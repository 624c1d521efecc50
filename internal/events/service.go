package events

import (
	"context"
	"fmt"
	"log/slog"

	"eventrea/internal/models"
)

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Store
type Store interface {
	EventCreator
	FindEvents(ctx context.Context, q models.Query) ([]models.Event, error)
	FindEvent(ctx context.Context, l models.Lookup) (*models.Event, error)
	UpdateEvent(ctx context.Context, l models.Lookup, p models.Patch) (*models.Event, error)
	DeleteEvent(ctx context.Context, l models.Lookup) (*models.Event, error)
}

// Service is the events backend. Create goes through the embedded Allocator;
// the rest is plain store access.
type Service struct {
	*Allocator
	log   *slog.Logger
	store Store
}

func NewService(log *slog.Logger, store Store, opts ...Option) *Service {
	return &Service{
		Allocator: NewAllocator(log, store, opts...),
		log:       log,
		store:     store,
	}
}

func (s *Service) FindBySlug(ctx context.Context, slug string) (*models.Event, error) {
	const op = "events.Service.FindBySlug"

	if slug == "" {
		return nil, ErrMissingSlug
	}

	event, err := s.store.FindEvent(ctx, models.BySlug(slug))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return event, nil
}

func (s *Service) FindAll(ctx context.Context, q models.Query) ([]models.Event, error) {
	const op = "events.Service.FindAll"

	events, err := s.store.FindEvents(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return events, nil
}

func (s *Service) Update(ctx context.Context, id string, p models.Patch) (*models.Event, error) {
	const op = "events.Service.Update"

	if id == "" {
		return nil, ErrMissingID
	}

	event, err := s.store.UpdateEvent(ctx, models.ByID(id), p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("event updated", slog.String("op", op), slog.String("id", event.ID))

	return event, nil
}

func (s *Service) Remove(ctx context.Context, id string) (*models.Event, error) {
	const op = "events.Service.Remove"

	if id == "" {
		return nil, ErrMissingID
	}

	event, err := s.store.DeleteEvent(ctx, models.ByID(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("event removed", slog.String("op", op), slog.String("id", event.ID), slog.String("slug", event.Slug))

	return event, nil
}

package events

import (
	"context"
	"errors"
	"log/slog"

	"eventrea/internal/bus"
	"eventrea/internal/eventsapi"
	"eventrea/internal/lib/logger/sl"
	"eventrea/internal/models"
	"eventrea/internal/storage"
)

// Register binds svc to the eventsapi subjects.
func Register(services bus.Services, svc *Service, log *slog.Logger) {
	services[eventsapi.FindBySlug] = bus.Func(func(ctx context.Context, req eventsapi.FindBySlugRequest) (*models.Event, error) {
		event, err := svc.FindBySlug(ctx, req.Slug)
		return event, fault(log, eventsapi.FindBySlug, err)
	})

	services[eventsapi.FindAll] = bus.Func(func(ctx context.Context, q models.Query) ([]models.Event, error) {
		events, err := svc.FindAll(ctx, q)
		return events, fault(log, eventsapi.FindAll, err)
	})

	services[eventsapi.Create] = bus.Func(func(ctx context.Context, d models.Draft) (*models.Event, error) {
		event, err := svc.Create(ctx, d)
		return event, fault(log, eventsapi.Create, err)
	})

	services[eventsapi.Update] = bus.Func(func(ctx context.Context, req eventsapi.UpdateRequest) (*models.Event, error) {
		event, err := svc.Update(ctx, req.ID, req.Patch)
		return event, fault(log, eventsapi.Update, err)
	})

	services[eventsapi.Remove] = bus.Func(func(ctx context.Context, req eventsapi.RemoveRequest) (*models.Event, error) {
		event, err := svc.Remove(ctx, req.ID)
		return event, fault(log, eventsapi.Remove, err)
	})
}

// fault translates a service error into what the caller is allowed to see.
func fault(log *slog.Logger, subj string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrInvalidTitle),
		errors.Is(err, ErrMissingID),
		errors.Is(err, ErrMissingSlug),
		errors.Is(err, storage.ErrInvalidID):
		return bus.Errorf(bus.ErrInvalid, "%v", rootMessage(err))
	case errors.Is(err, storage.ErrNotFound):
		return bus.Errorf(bus.ErrNotFound, "%v", storage.ErrNotFound)
	case errors.Is(err, ErrRetryExhausted):
		return bus.Errorf(bus.ErrConflict, "%v", ErrRetryExhausted)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return bus.Errorf(bus.ErrCanceled, "%v", err)
	}

	log.Error("events request failed", slog.String("subj", subj), sl.Err(err))

	return bus.ErrInternal
}

// rootMessage drops the op prefixes added on the way up.
func rootMessage(err error) error {
	for _, sentinel := range []error{ErrInvalidTitle, ErrMissingID, ErrMissingSlug, storage.ErrInvalidID} {
		if errors.Is(err, sentinel) {
			return sentinel
		}
	}

	return err
}

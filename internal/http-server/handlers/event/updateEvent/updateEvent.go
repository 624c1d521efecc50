package updateEvent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"eventrea/internal/lib/api/apierr"
	"eventrea/internal/lib/api/response"
	"eventrea/internal/lib/logger/sl"
	"eventrea/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type EventResponse struct {
	response.Response
	Event *models.Event `json:"event"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventUpdater
type EventUpdater interface {
	UpdateEvent(ctx context.Context, id string, p models.Patch) (*models.Event, error)
}

func New(log *slog.Logger, updater EventUpdater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.updateEvent.New"

		log := log.With(slog.String("op", op))

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("event id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event id is required"))
			return
		}

		log = log.With(slog.String("id", id))

		var patch models.Patch

		if err := render.DecodeJSON(r.Body, &patch); err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))
			return
		}

		if err := validator.New().Struct(patch); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		if patch.Empty() {
			log.Error("empty patch")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("no fields to update"))
			return
		}

		event, err := updater.UpdateEvent(r.Context(), id, patch)
		if err != nil {
			log.Error("failed to update event", sl.Err(err))
			render.Status(r, apierr.Status(err))
			render.JSON(w, r, response.Error(apierr.Message(err, "failed to update event")))
			return
		}

		log.Info("event updated", slog.String("slug", event.Slug))

		responseOK(w, r, event)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, event *models.Event) {
	render.JSON(w, r, EventResponse{
		Response: response.OK(),
		Event:    event,
	})
}

package deleteEvent

import (
	"context"
	"log/slog"
	"net/http"

	"eventrea/internal/lib/api/apierr"
	"eventrea/internal/lib/api/response"
	"eventrea/internal/lib/logger/sl"
	"eventrea/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

type EventResponse struct {
	response.Response
	Event *models.Event `json:"event"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventDeleter
type EventDeleter interface {
	DeleteEvent(ctx context.Context, id string) (*models.Event, error)
}

func New(log *slog.Logger, deleter EventDeleter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.deleteEvent.New"

		log := log.With(slog.String("op", op))

		id := chi.URLParam(r, "id")
		if id == "" {
			log.Error("event id is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event id is required"))
			return
		}

		log = log.With(slog.String("id", id))

		event, err := deleter.DeleteEvent(r.Context(), id)
		if err != nil {
			log.Error("failed to delete event", sl.Err(err))
			render.Status(r, apierr.Status(err))
			render.JSON(w, r, response.Error(apierr.Message(err, "failed to delete event")))
			return
		}

		log.Info("event deleted", slog.String("slug", event.Slug))

		render.JSON(w, r, EventResponse{
			Response: response.OK(),
			Event:    event,
		})
	}
}

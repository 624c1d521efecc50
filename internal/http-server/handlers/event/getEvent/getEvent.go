package getEvent

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

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventGetter
type EventGetter interface {
	GetEvent(ctx context.Context, slug string) (*models.Event, error)
}

func New(log *slog.Logger, getter EventGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.getEvent.New"

		log := log.With(slog.String("op", op))

		slug := chi.URLParam(r, "slug")
		if slug == "" {
			log.Error("event slug is required")
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("event slug is required"))
			return
		}

		log = log.With(slog.String("slug", slug))

		event, err := getter.GetEvent(r.Context(), slug)
		if err != nil {
			log.Error("failed to get event", sl.Err(err))
			render.Status(r, apierr.Status(err))
			render.JSON(w, r, response.Error(apierr.Message(err, "failed to get event")))
			return
		}

		log.Info("event received", slog.String("id", event.ID))

		responseOK(w, r, event)
	}
}

func responseOK(w http.ResponseWriter, r *http.Request, event *models.Event) {
	render.JSON(w, r, EventResponse{
		Response: response.OK(),
		Event:    event,
	})
}

package createEvent

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"eventrea/internal/http-server/middleware/auth"
	"eventrea/internal/lib/api/apierr"
	"eventrea/internal/lib/api/response"
	"eventrea/internal/lib/logger/sl"
	"eventrea/internal/models"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type EventRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	models.Attributes
}

type EventResponse struct {
	response.Response
	Event *models.Event `json:"event"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventCreator
type EventCreator interface {
	CreateEvent(ctx context.Context, d models.Draft) (*models.Event, error)
}

func New(log *slog.Logger, creator EventCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.createEvent.New"

		log := log.With(
			slog.String("op", op),
		)

		var req EventRequest

		err := render.DecodeJSON(r.Body, &req)
		if err != nil {
			log.Error("failed to decode request body", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error("failed to decode request"))

			return
		}

		log.Info("request body decoded", slog.String("title", req.Title))

		if err = validator.New().Struct(req); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))

			return
		}

		event, err := creator.CreateEvent(r.Context(), models.Draft{
			Title:       req.Title,
			Description: req.Description,
			OrganizerID: auth.UserID(r.Context()),
			Attributes:  req.Attributes,
		})
		if err != nil {
			log.Error("failed to add event", sl.Err(err))
			render.Status(r, apierr.Status(err))
			render.JSON(w, r, response.Error(apierr.Message(err, "failed to add event")))

			return
		}

		log.Info("event added", slog.String("id", event.ID), slog.String("slug", event.Slug))

		responseCreated(w, r, event)
	}
}

func responseCreated(w http.ResponseWriter, r *http.Request, event *models.Event) {
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, EventResponse{
		Response: response.OK(),
		Event:    event,
	})
}

package listEvents

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"eventrea/internal/lib/api/apierr"
	"eventrea/internal/lib/api/response"
	"eventrea/internal/lib/logger/sl"
	"eventrea/internal/models"

	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type EventsResponse struct {
	response.Response
	Events []models.Event `json:"events"`
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=EventLister
type EventLister interface {
	ListEvents(ctx context.Context, q models.Query) ([]models.Event, error)
}

func New(log *slog.Logger, lister EventLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.event.listEvents.New"

		log := log.With(slog.String("op", op))

		q := parseQuery(r.URL.Query())

		if err := validator.New().Struct(q); err != nil {
			var validateErr validator.ValidationErrors
			errors.As(err, &validateErr)

			log.Error("invalid query", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.ValidationError(validateErr))
			return
		}

		events, err := lister.ListEvents(r.Context(), q)
		if err != nil {
			log.Error("failed to get events", sl.Err(err))
			render.Status(r, apierr.Status(err))
			render.JSON(w, r, response.Error(apierr.Message(err, "failed to get events")))
			return
		}

		log.Info("events retrieved successfully", slog.Int("count", len(events)))

		responseOK(w, r, events)
	}
}

// parseQuery reads the listing filters. A flag is true only when its value is
// exactly "true"; any other value present means false.
func parseQuery(v url.Values) models.Query {
	q := models.Query{
		Title:  v.Get("title"),
		Status: models.Status(v.Get("status")),
		Search: v.Get("search"),
	}
	q.IsActive = flag(v, "is_active")
	q.IsOnline = flag(v, "is_online")

	return q
}

func flag(v url.Values, key string) *bool {
	if !v.Has(key) {
		return nil
	}

	b := v.Get(key) == "true"
	return &b
}

func responseOK(w http.ResponseWriter, r *http.Request, events []models.Event) {
	if events == nil {
		events = []models.Event{}
	}

	render.JSON(w, r, EventsResponse{
		Response: response.OK(),
		Events:   events,
	})
}

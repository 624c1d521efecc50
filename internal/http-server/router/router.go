// Package router assembles the HTTP surfaces of both binaries.
package router

import (
	"log/slog"
	"net/http"

	"eventrea/internal/bus"
	"eventrea/internal/http-server/handlers/event/createEvent"
	"eventrea/internal/http-server/handlers/event/deleteEvent"
	"eventrea/internal/http-server/handlers/event/getEvent"
	"eventrea/internal/http-server/handlers/event/listEvents"
	"eventrea/internal/http-server/handlers/event/updateEvent"
	"eventrea/internal/http-server/middleware/auth"
	"eventrea/internal/http-server/middleware/mwlogger"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

// Events is what the public API needs from the events service.
type Events interface {
	createEvent.EventCreator
	getEvent.EventGetter
	listEvents.EventLister
	updateEvent.EventUpdater
	deleteEvent.EventDeleter
}

// Gateway is the public HTTP API. Reads are open; writes need a session.
func Gateway(log *slog.Logger, events Events, verifier auth.Verifier, cookieName string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(mwlogger.New(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	router.Get("/healthz", healthz)

	router.Route("/api/events", func(r chi.Router) {
		r.Get("/", listEvents.New(log, events))
		r.Get("/{slug}", getEvent.New(log, events))

		r.Group(func(r chi.Router) {
			r.Use(auth.New(log, verifier, cookieName))

			r.Post("/", createEvent.New(log, events))
			r.Patch("/{id}", updateEvent.New(log, events))
			r.Delete("/{id}", deleteEvent.New(log, events))
		})
	})

	return router
}

// EventsService serves the bus endpoint at path.
func EventsService(log *slog.Logger, services bus.Services, path string) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Get("/healthz", healthz)
	router.Get(path, bus.Serve(log, services))

	return router
}

func healthz(w http.ResponseWriter, r *http.Request) {
	render.PlainText(w, r, "ok")
}

// Package apierr maps errors coming back from the events service to HTTP
// statuses and client-safe messages.
package apierr

import (
	"context"
	"errors"
	"net/http"

	"eventrea/internal/bus"
)

func Status(err error) int {
	switch {
	case errors.Is(err, bus.ErrInvalid):
		return http.StatusBadRequest
	case errors.Is(err, bus.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bus.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, bus.ErrUnavailable),
		errors.Is(err, bus.ErrCanceled),
		errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable
	}

	return http.StatusInternalServerError
}

// Message is what the client sees for err. Internal failures get fallback.
func Message(err error, fallback string) string {
	switch Status(err) {
	case http.StatusBadRequest:
		var f *bus.Fault
		if errors.As(err, &f) && f.Message != "" {
			return f.Message
		}
		return "invalid request"
	case http.StatusNotFound:
		return "event not found"
	case http.StatusConflict:
		return "could not allocate a unique slug, try again"
	case http.StatusGatewayTimeout:
		return "events service timed out"
	case http.StatusServiceUnavailable:
		return "events service unavailable"
	}

	return fallback
}

package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"eventrea/internal/lib/api/response"
	"eventrea/internal/lib/logger/sl"

	"github.com/go-chi/render"
)

type contextKey struct{}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=Verifier
type Verifier interface {
	Verify(token string) (userID string, err error)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, contextKey{}, userID)
}

// UserID returns the caller set by New, or "" outside an authenticated route.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(contextKey{}).(string)
	return id
}

// New rejects requests without a valid session with 401. The token is taken
// from the cookieName cookie, or else from an "Authorization: Bearer" header.
func New(log *slog.Logger, verifier Verifier, cookieName string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		const op = "middleware.auth.New"

		log := log.With(
			slog.String("op", op),
		)

		fn := func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r, cookieName)
			if token == "" {
				unauthorized(w, r)
				return
			}

			userID, err := verifier.Verify(token)
			if err != nil {
				log.Info("session rejected", sl.Err(err))
				unauthorized(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		}

		return http.HandlerFunc(fn)
	}
}

func tokenFrom(r *http.Request, cookieName string) string {
	if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}

	return ""
}

func unauthorized(w http.ResponseWriter, r *http.Request) {
	render.Status(r, http.StatusUnauthorized)
	render.JSON(w, r, response.Error("unauthorized"))
}

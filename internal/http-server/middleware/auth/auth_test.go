package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventrea/internal/http-server/middleware/auth/mocks"
	"eventrea/internal/lib/logger/handlers/slogdiscard"

	"github.com/stretchr/testify/assert"
)

const cookieName = "eventrea_session"

func TestAuthMiddleware(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name           string
		setup          func(r *http.Request)
		mockSetup      func(m *mocks.Verifier)
		expectedStatus int
		expectedUser   string
	}{
		{
			name: "Cookie",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: cookieName, Value: "cookie-token"})
			},
			mockSetup: func(m *mocks.Verifier) {
				m.On("Verify", "cookie-token").Return("user-1", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedUser:   "user-1",
		},
		{
			name: "Bearer header",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer header-token")
			},
			mockSetup: func(m *mocks.Verifier) {
				m.On("Verify", "header-token").Return("user-2", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedUser:   "user-2",
		},
		{
			name: "Cookie wins over header",
			setup: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: cookieName, Value: "cookie-token"})
				r.Header.Set("Authorization", "Bearer header-token")
			},
			mockSetup: func(m *mocks.Verifier) {
				m.On("Verify", "cookie-token").Return("user-1", nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedUser:   "user-1",
		},
		{
			name:           "No credentials",
			setup:          func(r *http.Request) {},
			mockSetup:      func(m *mocks.Verifier) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Wrong scheme",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
			},
			mockSetup:      func(m *mocks.Verifier) {},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name: "Rejected token",
			setup: func(r *http.Request) {
				r.Header.Set("Authorization", "Bearer stale")
			},
			mockSetup: func(m *mocks.Verifier) {
				m.On("Verify", "stale").Return("", errors.New("token is expired")).Once()
			},
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			verifier := mocks.NewVerifier(t)
			tc.mockSetup(verifier)

			var gotUser string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser = UserID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			h := New(slogdiscard.NewDiscardLogger(), verifier, cookieName)(next)

			req := httptest.NewRequest(http.MethodPost, "/api/events", nil)
			tc.setup(req)
			rr := httptest.NewRecorder()

			h.ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatus, rr.Code)
			assert.Equal(t, tc.expectedUser, gotUser)
			if tc.expectedStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"status":"Error","error":"unauthorized"}`, rr.Body.String())
			}
		})
	}
}

func TestUserIDOutsideAuth(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, UserID(req.Context()))
	assert.Equal(t, "u", UserID(WithUserID(req.Context(), "u")))
}

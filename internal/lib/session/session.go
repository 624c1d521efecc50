// Package session issues and verifies the signed tokens that identify a
// caller. A token says nothing beyond the user id and its expiry.
package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid or expired session token")
	ErrNoSecret     = errors.New("session secret is empty")
)

type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func New(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrNoSecret
	}

	return &Manager{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// Issue signs an HS256 token for userID valid for the manager's ttl.
func (m *Manager) Issue(userID string) (string, error) {
	now := m.now()

	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return token, nil
}

// Verify returns the user id of a valid token.
func (m *Manager) Verify(token string) (string, error) {
	var claims jwt.RegisteredClaims

	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	if claims.Subject == "" {
		return "", fmt.Errorf("%w: no subject", ErrInvalidToken)
	}

	return claims.Subject, nil
}

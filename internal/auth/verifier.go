// Package auth verifies the bearer tokens issued by the identity provider.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultAudience is the audience claim carried by signed-in user sessions.
const DefaultAudience = "authenticated"

const leeway = 30 * time.Second

var ErrInvalidToken = errors.New("auth: invalid token")

// SecretSource yields the HMAC signing secret.
type SecretSource interface {
	Value(ctx context.Context) (string, error)
}

type Claims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

type Verifier struct {
	secret   SecretSource
	audience string
	now      func() time.Time
}

// NewVerifier builds a verifier for HS256 tokens. An empty audience skips
// the audience check.
func NewVerifier(secret SecretSource, audience string) (*Verifier, error) {
	if secret == nil {
		return nil, errors.New("auth: secret source must not be nil")
	}
	return &Verifier{secret: secret, audience: strings.TrimSpace(audience), now: time.Now}, nil
}

// Verify validates token and returns the user ID from its subject claim.
// Any token problem wraps ErrInvalidToken; a failure to load the secret
// does not.
func (v *Verifier) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidToken)
	}
	secret, err := v.secret.Value(ctx)
	if err != nil {
		return "", fmt.Errorf("auth: load secret: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(leeway),
		jwt.WithTimeFunc(v.now),
	}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	}, opts...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return "", fmt.Errorf("%w: invalid claims", ErrInvalidToken)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return "", fmt.Errorf("%w: subject is not a user id", ErrInvalidToken)
	}
	return userID.String(), nil
}

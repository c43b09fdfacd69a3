package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"claim-assistant/internal/auth"
	"claim-assistant/internal/usecase"
)

// TokenVerifier resolves a bearer credential to a user ID.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

func bearerToken(headers map[string]string) (string, bool) {
	v := strings.TrimSpace(headerValue(headers, "Authorization"))
	const prefix = "bearer "
	if len(v) <= len(prefix) || !strings.EqualFold(v[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(v[len(prefix):])
	return token, token != ""
}

func authenticate(ctx context.Context, v TokenVerifier, req events.APIGatewayProxyRequest) (string, error) {
	token, ok := bearerToken(req.Headers)
	if !ok {
		return "", usecase.Unauthorized("missing_bearer_token", nil)
	}
	userID, err := v.Verify(ctx, token)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidToken) {
			return "", usecase.Unauthorized("invalid_token", err)
		}
		return "", &usecase.Error{Code: usecase.ErrorInternal, Reason: "auth_unavailable", Err: err}
	}
	return userID, nil
}

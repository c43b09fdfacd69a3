package devserver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"claim-assistant/internal/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestGinPath(t *testing.T) {
	require.Equal(t, "/conditions", ginPath("/conditions"))
	require.Equal(t, "/conditions/:conditionId/interview", ginPath("/conditions/{conditionId}/interview"))
}

func TestRouter_AdaptsProxyEvents(t *testing.T) {
	var got events.APIGatewayProxyRequest
	h := func(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		got = req
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers:    map[string]string{"Content-Type": "application/json", "X-Correlation-Id": "corr-1"},
			Body:       `{"ok":true}`,
		}, nil
	}
	router, err := NewRouter([]Route{
		{Method: http.MethodGet, Resource: "/conditions/{conditionId}/interview", Handler: h},
		{Method: http.MethodPost, Resource: "/manage-interview", Handler: h},
	}, Config{}, logger.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/conditions/c-42/interview?verbose=1", nil)
	req.Header.Set("Authorization", "Bearer t")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"ok":true}`, rec.Body.String())
	require.Equal(t, "corr-1", rec.Header().Get("X-Correlation-Id"))
	require.Equal(t, "/conditions/{conditionId}/interview", got.Resource)
	require.Equal(t, "c-42", got.PathParameters["conditionId"])
	require.Equal(t, "1", got.QueryStringParameters["verbose"])
	require.Equal(t, "Bearer t", got.Headers["Authorization"])

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/manage-interview", strings.NewReader(`{"conditionId":"c"}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, `{"conditionId":"c"}`, got.Body)
	require.Equal(t, http.MethodPost, got.HTTPMethod)
}

func TestRouter_NoContent(t *testing.T) {
	h := func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return events.APIGatewayProxyResponse{StatusCode: http.StatusNoContent}, nil
	}
	router, err := NewRouter([]Route{{Method: http.MethodDelete, Resource: "/documents/{documentId}", Handler: h}}, Config{}, logger.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/documents/d1", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	require.Empty(t, body)
}

func TestRouter_HandlerError(t *testing.T) {
	h := func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return events.APIGatewayProxyResponse{}, errors.New("boom")
	}
	router, err := NewRouter([]Route{{Method: http.MethodPost, Resource: "/suggest-conditions", Handler: h}}, Config{}, logger.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/suggest-conditions", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router, err := NewRouter(nil, Config{AllowOrigins: []string{"http://localhost:5173"}}, logger.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/manage-interview", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	router.ServeHTTP(rec, req)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_HandlerCORSHeadersDoNotOverrideMiddleware(t *testing.T) {
	h := func(context.Context, events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		return events.APIGatewayProxyResponse{
			StatusCode: http.StatusOK,
			Headers: map[string]string{
				"Content-Type":                 "application/json",
				"Access-Control-Allow-Origin":  "*",
				"access-control-allow-headers": "Authorization",
				"X-Correlation-Id":             "corr-2",
			},
			Body: `{}`,
		}, nil
	}
	router, err := NewRouter([]Route{{Method: http.MethodGet, Resource: "/documents", Handler: h}}, Config{AllowOrigins: []string{"http://localhost:5173"}}, logger.NewNop())
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []string{"http://localhost:5173"}, rec.Header().Values("Access-Control-Allow-Origin"))
	require.Empty(t, rec.Header().Values("Access-Control-Allow-Headers"))
	require.Equal(t, "corr-2", rec.Header().Get("X-Correlation-Id"))
}

func TestRouter_Validation(t *testing.T) {
	_, err := NewRouter(nil, Config{}, nil)
	require.Error(t, err)
	_, err = NewRouter([]Route{{Method: http.MethodGet, Resource: "/x"}}, Config{}, logger.NewNop())
	require.Error(t, err)
}

func TestHealthcheck(t *testing.T) {
	router, err := NewRouter(nil, Config{}, logger.NewNop())
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

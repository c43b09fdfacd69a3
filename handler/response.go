// Package handler adapts API Gateway proxy events to the claim usecases.
package handler

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"claim-assistant/internal/logger"
	"claim-assistant/internal/usecase"
)

const (
	headerCorrelationID = "X-Correlation-Id"
	maxBodyBytes        = 64 << 10

	codeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Headers": "authorization, x-client-info, apikey, content-type",
	"Access-Control-Allow-Methods": "GET, POST, DELETE, OPTIONS",
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	// InterviewStatus is only set by the interview endpoint.
	InterviewStatus string `json:"interview_status,omitempty"`
}

var newCorrelationID = func() string { return uuid.NewString() }

func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func correlationID(req events.APIGatewayProxyRequest) string {
	if id := strings.TrimSpace(headerValue(req.Headers, headerCorrelationID)); id != "" {
		return id
	}
	return newCorrelationID()
}

func responseHeaders(corrID, contentType string) map[string]string {
	h := make(map[string]string, len(corsHeaders)+2)
	for k, v := range corsHeaders {
		h[k] = v
	}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	h[headerCorrelationID] = corrID
	return h
}

func preflight(corrID string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    responseHeaders(corrID, "text/plain"),
		Body:       "ok",
	}
}

func noContent(corrID string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusNoContent,
		Headers:    responseHeaders(corrID, ""),
	}
}

func jsonResponse(status int, body any, corrID string) events.APIGatewayProxyResponse {
	raw, err := json.Marshal(body)
	if err != nil {
		status = http.StatusInternalServerError
		raw = []byte(`{"error":"INTERNAL_ERROR","message":"internal error"}`)
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    responseHeaders(corrID, "application/json"),
		Body:       string(raw),
	}
}

func methodNotAllowed(corrID string) events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusMethodNotAllowed, errorResponse{Error: codeMethodNotAllowed, Message: "method not allowed"}, corrID)
}

func statusFor(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	case usecase.ErrorUnauthorized:
		return http.StatusUnauthorized
	case usecase.ErrorNotFound:
		return http.StatusNotFound
	case usecase.ErrorConflict:
		return http.StatusConflict
	case usecase.ErrorRateLimited:
		return http.StatusTooManyRequests
	case usecase.ErrorUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// errorBody converts err into the wire error. Client errors carry their
// reason; server errors get a generic message.
func errorBody(err error) (int, errorResponse) {
	code := usecase.CodeOf(err)
	status := statusFor(code)
	msg := "internal error"
	var ue *usecase.Error
	switch {
	case status < 500 && errors.As(err, &ue):
		msg = ue.Reason
	case status == http.StatusBadGateway:
		msg = "upstream service error"
	}
	return status, errorResponse{Error: string(code), Message: msg}
}

func logError(log *logger.Logger, err error) {
	reason := ""
	var ue *usecase.Error
	if errors.As(err, &ue) {
		reason = ue.Reason
	}
	if statusFor(usecase.CodeOf(err)) >= 500 {
		log.Error("request failed", "code", usecase.CodeOf(err), "reason", reason, "err", err)
		return
	}
	log.Warn("request rejected", "code", usecase.CodeOf(err), "reason", reason)
}

// decodeBody unmarshals the request body into v. An empty body decodes as
// an empty object.
func decodeBody(req events.APIGatewayProxyRequest, v any) error {
	body := req.Body
	if req.IsBase64Encoded {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return usecase.InvalidInput("invalid_body_encoding")
		}
		body = string(raw)
	}
	if len(body) > maxBodyBytes {
		return usecase.InvalidInput("body_too_large")
	}
	if strings.TrimSpace(body) == "" {
		body = "{}"
	}
	if err := json.Unmarshal([]byte(body), v); err != nil {
		return &usecase.Error{Code: usecase.ErrorInvalidInput, Reason: "invalid_json", Err: err}
	}
	return nil
}

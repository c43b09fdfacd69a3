package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"claim-assistant/internal/logger"
	"claim-assistant/internal/usecase"
)

type SuggestUseCase interface {
	Suggest(ctx context.Context, in usecase.SuggestInput) (usecase.SuggestOutput, error)
}

type suggestRequest struct {
	ServiceBranch string `json:"service_branch"`
	JobTitle      string `json:"job_title"`
}

type suggestResponse struct {
	SuggestedConditions []string `json:"suggested_conditions"`
}

// SuggestHandler serves POST /suggest-conditions.
type SuggestHandler struct {
	uc       SuggestUseCase
	verifier TokenVerifier
	log      *logger.Logger
}

func NewSuggestHandler(uc SuggestUseCase, verifier TokenVerifier, log *logger.Logger) (*SuggestHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: suggest usecase must not be nil")
	}
	if verifier == nil {
		return nil, errors.New("handler: token verifier must not be nil")
	}
	if log == nil {
		return nil, errors.New("handler: logger must not be nil")
	}
	return &SuggestHandler{uc: uc, verifier: verifier, log: log.With("handler", "suggest-conditions")}, nil
}

func (h *SuggestHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req)
	log := h.log.With("correlation_id", corrID)

	switch req.HTTPMethod {
	case http.MethodOptions:
		return preflight(corrID), nil
	case http.MethodPost:
	default:
		return methodNotAllowed(corrID), nil
	}

	out, err := h.suggest(ctx, req)
	if err != nil {
		logError(log, err)
		status, body := errorBody(err)
		return jsonResponse(status, body, corrID), nil
	}
	return jsonResponse(http.StatusOK, suggestResponse{SuggestedConditions: out.SuggestedConditions}, corrID), nil
}

func (h *SuggestHandler) suggest(ctx context.Context, req events.APIGatewayProxyRequest) (usecase.SuggestOutput, error) {
	userID, err := authenticate(ctx, h.verifier, req)
	if err != nil {
		return usecase.SuggestOutput{}, err
	}
	var body suggestRequest
	if err := decodeBody(req, &body); err != nil {
		return usecase.SuggestOutput{}, err
	}
	return h.uc.Suggest(ctx, usecase.SuggestInput{
		UserID:        userID,
		ServiceBranch: body.ServiceBranch,
		JobTitle:      body.JobTitle,
	})
}

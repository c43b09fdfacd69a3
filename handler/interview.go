package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
	"claim-assistant/internal/usecase"
)

type InterviewUseCase interface {
	Turn(ctx context.Context, in usecase.TurnInput) (usecase.TurnOutput, error)
}

type interviewRequest struct {
	ConditionID  string  `json:"conditionId"`
	LatestAnswer *string `json:"latestAnswer"`
}

type interviewResponse struct {
	NextQuestion    *string `json:"next_question"`
	InterviewStatus string  `json:"interview_status"`
}

// InterviewHandler serves POST /manage-interview.
type InterviewHandler struct {
	uc       InterviewUseCase
	verifier TokenVerifier
	log      *logger.Logger
}

func NewInterviewHandler(uc InterviewUseCase, verifier TokenVerifier, log *logger.Logger) (*InterviewHandler, error) {
	if uc == nil {
		return nil, errors.New("handler: interview usecase must not be nil")
	}
	if verifier == nil {
		return nil, errors.New("handler: token verifier must not be nil")
	}
	if log == nil {
		return nil, errors.New("handler: logger must not be nil")
	}
	return &InterviewHandler{uc: uc, verifier: verifier, log: log.With("handler", "manage-interview")}, nil
}

func (h *InterviewHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req)
	log := h.log.With("correlation_id", corrID)

	switch req.HTTPMethod {
	case http.MethodOptions:
		return preflight(corrID), nil
	case http.MethodPost:
	default:
		return methodNotAllowed(corrID), nil
	}

	out, err := h.turn(ctx, req)
	if err != nil {
		logError(log, err)
		status, body := errorBody(err)
		body.InterviewStatus = string(domain.InterviewError)
		return jsonResponse(status, body, corrID), nil
	}
	return jsonResponse(http.StatusOK, interviewResponse{
		NextQuestion:    out.NextQuestion,
		InterviewStatus: string(out.Status),
	}, corrID), nil
}

func (h *InterviewHandler) turn(ctx context.Context, req events.APIGatewayProxyRequest) (usecase.TurnOutput, error) {
	userID, err := authenticate(ctx, h.verifier, req)
	if err != nil {
		return usecase.TurnOutput{}, err
	}
	var body interviewRequest
	if err := decodeBody(req, &body); err != nil {
		return usecase.TurnOutput{}, err
	}
	return h.uc.Turn(ctx, usecase.TurnInput{
		UserID:       userID,
		ConditionID:  body.ConditionID,
		LatestAnswer: body.LatestAnswer,
	})
}

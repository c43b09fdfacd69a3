package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
	"claim-assistant/internal/usecase"
)

type RecordsUseCase interface {
	CommonConditions() []string
	ListConditions(ctx context.Context, userID string) ([]domain.Condition, error)
	AddConditions(ctx context.Context, userID string, in []usecase.ConditionInput) ([]domain.Condition, error)
	DeleteCondition(ctx context.Context, userID, conditionID string) error
	InterviewHistory(ctx context.Context, userID, conditionID string) (domain.Condition, []domain.InterviewResponse, error)
	ListServiceHistory(ctx context.Context, userID string) ([]domain.ServiceHistory, error)
	AddServiceHistory(ctx context.Context, userID string, in usecase.ServiceHistoryInput) (domain.ServiceHistory, error)
}

type DocumentsUseCase interface {
	CreateUpload(ctx context.Context, userID string, in usecase.UploadInput) (usecase.UploadOutput, error)
	ListDocuments(ctx context.Context, userID string) ([]domain.Document, error)
	CompleteUpload(ctx context.Context, userID, documentID string) (domain.Document, error)
	DeleteDocument(ctx context.Context, userID, documentID string) error
}

// Route resource templates, in API Gateway notation.
const (
	ResourceConditions         = "/conditions"
	ResourceCommonConditions   = "/conditions/common"
	ResourceCondition          = "/conditions/{conditionId}"
	ResourceConditionInterview = "/conditions/{conditionId}/interview"
	ResourceServiceHistory     = "/service-history"
	ResourceDocuments          = "/documents"
	ResourceDocument           = "/documents/{documentId}"
	ResourceDocumentComplete   = "/documents/{documentId}/complete"
)

type conditionJSON struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	ClaimType      string    `json:"claim_type"`
	DiagnosticCode string    `json:"diagnostic_code,omitempty"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
}

type addConditionsRequest struct {
	Conditions []struct {
		Name           string `json:"name"`
		ClaimType      string `json:"claim_type"`
		DiagnosticCode string `json:"diagnostic_code"`
	} `json:"conditions"`
}

type conditionsResponse struct {
	Conditions []conditionJSON `json:"conditions"`
}

type commonConditionsResponse struct {
	Conditions []string `json:"conditions"`
}

type interviewEntryJSON struct {
	SequenceNumber int       `json:"sequence_number"`
	Question       string    `json:"question"`
	Answer         *string   `json:"answer"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type interviewHistoryResponse struct {
	Condition conditionJSON        `json:"condition"`
	Responses []interviewEntryJSON `json:"responses"`
}

type serviceHistoryJSON struct {
	ID          string    `json:"id"`
	Branch      string    `json:"branch"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Job         string    `json:"job"`
	Deployments []string  `json:"deployments"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type serviceHistoryRequest struct {
	Branch      string `json:"branch"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Job         string `json:"job"`
	Deployments string `json:"deployments"`
}

type serviceHistoryListResponse struct {
	ServiceHistory []serviceHistoryJSON `json:"service_history"`
}

type documentJSON struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	MimeType   string    `json:"mime_type"`
	SizeBytes  int64     `json:"size_bytes"`
	Status     string    `json:"status"`
	UploadedAt time.Time `json:"uploaded_at"`
}

type uploadRequest struct {
	FileName  string `json:"file_name"`
	MimeType  string `json:"mime_type"`
	SizeBytes int64  `json:"size_bytes"`
}

type uploadResponse struct {
	Document  documentJSON `json:"document"`
	UploadURL string       `json:"upload_url"`
	ExpiresAt time.Time    `json:"expires_at"`
}

type documentsResponse struct {
	Documents []documentJSON `json:"documents"`
}

// result is what a route produces: a status and a body, or no body for 204.
type result struct {
	status int
	body   any
}

type route func(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error)

// RouteKey identifies one method on one resource template.
type RouteKey struct {
	Method   string
	Resource string
}

// RecordsHandler serves the dashboard record routes. It dispatches on the
// request's resource template, so one function can back every route.
type RecordsHandler struct {
	records   RecordsUseCase
	documents DocumentsUseCase
	verifier  TokenVerifier
	log       *logger.Logger
	routes    map[RouteKey]route
}

func NewRecordsHandler(records RecordsUseCase, documents DocumentsUseCase, verifier TokenVerifier, log *logger.Logger) (*RecordsHandler, error) {
	if records == nil {
		return nil, errors.New("handler: records usecase must not be nil")
	}
	if documents == nil {
		return nil, errors.New("handler: documents usecase must not be nil")
	}
	if verifier == nil {
		return nil, errors.New("handler: token verifier must not be nil")
	}
	if log == nil {
		return nil, errors.New("handler: logger must not be nil")
	}
	h := &RecordsHandler{
		records:   records,
		documents: documents,
		verifier:  verifier,
		log:       log.With("handler", "records"),
	}
	h.routes = map[RouteKey]route{
		{http.MethodGet, ResourceConditions}:         h.listConditions,
		{http.MethodPost, ResourceConditions}:        h.addConditions,
		{http.MethodGet, ResourceCommonConditions}:   h.commonConditions,
		{http.MethodDelete, ResourceCondition}:       h.deleteCondition,
		{http.MethodGet, ResourceConditionInterview}: h.interviewHistory,
		{http.MethodGet, ResourceServiceHistory}:     h.listServiceHistory,
		{http.MethodPost, ResourceServiceHistory}:    h.addServiceHistory,
		{http.MethodGet, ResourceDocuments}:          h.listDocuments,
		{http.MethodPost, ResourceDocuments}:         h.createUpload,
		{http.MethodDelete, ResourceDocument}:        h.deleteDocument,
		{http.MethodPost, ResourceDocumentComplete}:  h.completeUpload,
	}
	return h, nil
}

// Routes lists the method and resource pairs the handler serves.
func (h *RecordsHandler) Routes() []RouteKey {
	out := make([]RouteKey, 0, len(h.routes))
	for k := range h.routes {
		out = append(out, k)
	}
	return out
}

func (h *RecordsHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	corrID := correlationID(req)
	log := h.log.With("correlation_id", corrID, "resource", req.Resource, "method", req.HTTPMethod)

	if req.HTTPMethod == http.MethodOptions {
		return preflight(corrID), nil
	}
	fn, ok := h.routes[RouteKey{req.HTTPMethod, req.Resource}]
	if !ok {
		if h.knownResource(req.Resource) {
			return methodNotAllowed(corrID), nil
		}
		return jsonResponse(http.StatusNotFound, errorResponse{Error: string(usecase.ErrorNotFound), Message: "route_not_found"}, corrID), nil
	}

	res, err := h.serve(ctx, fn, req)
	if err != nil {
		logError(log, err)
		status, body := errorBody(err)
		return jsonResponse(status, body, corrID), nil
	}
	if res.status == http.StatusNoContent {
		return noContent(corrID), nil
	}
	return jsonResponse(res.status, res.body, corrID), nil
}

func (h *RecordsHandler) serve(ctx context.Context, fn route, req events.APIGatewayProxyRequest) (result, error) {
	userID, err := authenticate(ctx, h.verifier, req)
	if err != nil {
		return result{}, err
	}
	return fn(ctx, userID, req)
}

func (h *RecordsHandler) knownResource(resource string) bool {
	for k := range h.routes {
		if k.Resource == resource {
			return true
		}
	}
	return false
}

func (h *RecordsHandler) commonConditions(context.Context, string, events.APIGatewayProxyRequest) (result, error) {
	return result{http.StatusOK, commonConditionsResponse{Conditions: h.records.CommonConditions()}}, nil
}

func (h *RecordsHandler) listConditions(ctx context.Context, userID string, _ events.APIGatewayProxyRequest) (result, error) {
	list, err := h.records.ListConditions(ctx, userID)
	if err != nil {
		return result{}, err
	}
	return result{http.StatusOK, conditionsResponse{Conditions: toConditionsJSON(list)}}, nil
}

func (h *RecordsHandler) addConditions(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error) {
	var body addConditionsRequest
	if err := decodeBody(req, &body); err != nil {
		return result{}, err
	}
	in := make([]usecase.ConditionInput, 0, len(body.Conditions))
	for _, c := range body.Conditions {
		in = append(in, usecase.ConditionInput{Name: c.Name, ClaimType: c.ClaimType, DiagnosticCode: c.DiagnosticCode})
	}
	list, err := h.records.AddConditions(ctx, userID, in)
	if err != nil {
		return result{}, err
	}
	return result{http.StatusCreated, conditionsResponse{Conditions: toConditionsJSON(list)}}, nil
}

func (h *RecordsHandler) deleteCondition(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error) {
	if err := h.records.DeleteCondition(ctx, userID, req.PathParameters["conditionId"]); err != nil {
		return result{}, err
	}
	return result{status: http.StatusNoContent}, nil
}

func (h *RecordsHandler) interviewHistory(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error) {
	c, history, err := h.records.InterviewHistory(ctx, userID, req.PathParameters["conditionId"])
	if err != nil {
		return result{}, err
	}
	entries := make([]interviewEntryJSON, 0, len(history))
	for _, r := range history {
		entries = append(entries, interviewEntryJSON{
			SequenceNumber: r.Sequence,
			Question:       r.Question,
			Answer:         r.Answer,
			CreatedAt:      r.CreatedAt,
			UpdatedAt:      r.UpdatedAt,
		})
	}
	return result{http.StatusOK, interviewHistoryResponse{Condition: toConditionJSON(c), Responses: entries}}, nil
}

func (h *RecordsHandler) listServiceHistory(ctx context.Context, userID string, _ events.APIGatewayProxyRequest) (result, error) {
	list, err := h.records.ListServiceHistory(ctx, userID)
	if err != nil {
		return result{}, err
	}
	out := make([]serviceHistoryJSON, 0, len(list))
	for _, r := range list {
		out = append(out, toServiceHistoryJSON(r))
	}
	return result{http.StatusOK, serviceHistoryListResponse{ServiceHistory: out}}, nil
}

func (h *RecordsHandler) addServiceHistory(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error) {
	var body serviceHistoryRequest
	if err := decodeBody(req, &body); err != nil {
		return result{}, err
	}
	rec, err := h.records.AddServiceHistory(ctx, userID, usecase.ServiceHistoryInput{
		Branch:      body.Branch,
		StartDate:   body.StartDate,
		EndDate:     body.EndDate,
		Job:         body.Job,
		Deployments: body.Deployments,
	})
	if err != nil {
		return result{}, err
	}
	return result{http.StatusCreated, toServiceHistoryJSON(rec)}, nil
}

func (h *RecordsHandler) listDocuments(ctx context.Context, userID string, _ events.APIGatewayProxyRequest) (result, error) {
	list, err := h.documents.ListDocuments(ctx, userID)
	if err != nil {
		return result{}, err
	}
	out := make([]documentJSON, 0, len(list))
	for _, d := range list {
		out = append(out, toDocumentJSON(d))
	}
	return result{http.StatusOK, documentsResponse{Documents: out}}, nil
}

func (h *RecordsHandler) createUpload(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error) {
	var body uploadRequest
	if err := decodeBody(req, &body); err != nil {
		return result{}, err
	}
	out, err := h.documents.CreateUpload(ctx, userID, usecase.UploadInput{
		FileName:  body.FileName,
		MimeType:  body.MimeType,
		SizeBytes: body.SizeBytes,
	})
	if err != nil {
		return result{}, err
	}
	return result{http.StatusCreated, uploadResponse{
		Document:  toDocumentJSON(out.Document),
		UploadURL: out.UploadURL,
		ExpiresAt: out.ExpiresAt,
	}}, nil
}

func (h *RecordsHandler) completeUpload(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error) {
	doc, err := h.documents.CompleteUpload(ctx, userID, req.PathParameters["documentId"])
	if err != nil {
		return result{}, err
	}
	return result{http.StatusOK, toDocumentJSON(doc)}, nil
}

func (h *RecordsHandler) deleteDocument(ctx context.Context, userID string, req events.APIGatewayProxyRequest) (result, error) {
	if err := h.documents.DeleteDocument(ctx, userID, req.PathParameters["documentId"]); err != nil {
		return result{}, err
	}
	return result{status: http.StatusNoContent}, nil
}

func toConditionJSON(c domain.Condition) conditionJSON {
	return conditionJSON{
		ID:             c.ID,
		Name:           c.Name,
		ClaimType:      string(c.ClaimType),
		DiagnosticCode: c.DiagnosticCode,
		Status:         c.Status,
		CreatedAt:      c.CreatedAt,
	}
}

func toConditionsJSON(list []domain.Condition) []conditionJSON {
	out := make([]conditionJSON, 0, len(list))
	for _, c := range list {
		out = append(out, toConditionJSON(c))
	}
	return out
}

func toServiceHistoryJSON(r domain.ServiceHistory) serviceHistoryJSON {
	deployments := r.Deployments
	if deployments == nil {
		deployments = []string{}
	}
	return serviceHistoryJSON{
		ID:          r.ID,
		Branch:      r.Branch,
		StartDate:   r.StartDate.Format(domain.DateLayout),
		EndDate:     r.EndDate.Format(domain.DateLayout),
		Job:         r.Job,
		Deployments: deployments,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toDocumentJSON(d domain.Document) documentJSON {
	return documentJSON{
		ID:         d.ID,
		FileName:   d.FileName,
		MimeType:   d.MimeType,
		SizeBytes:  d.SizeBytes,
		Status:     d.Status,
		UploadedAt: d.UploadedAt,
	}
}

package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
	"claim-assistant/internal/usecase"
)

var testTime = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type stubRecords struct {
	conditions []domain.Condition
	history    []domain.InterviewResponse
	services   []domain.ServiceHistory
	err        error

	addIn      []usecase.ConditionInput
	deletedID  string
	historyID  string
	serviceIn  usecase.ServiceHistoryInput
	calledUser string
}

func (s *stubRecords) CommonConditions() []string { return []string{"Tinnitus", "Migraines"} }

func (s *stubRecords) ListConditions(_ context.Context, userID string) ([]domain.Condition, error) {
	s.calledUser = userID
	return s.conditions, s.err
}

func (s *stubRecords) AddConditions(_ context.Context, userID string, in []usecase.ConditionInput) ([]domain.Condition, error) {
	s.calledUser, s.addIn = userID, in
	return s.conditions, s.err
}

func (s *stubRecords) DeleteCondition(_ context.Context, userID, conditionID string) error {
	s.calledUser, s.deletedID = userID, conditionID
	return s.err
}

func (s *stubRecords) InterviewHistory(_ context.Context, userID, conditionID string) (domain.Condition, []domain.InterviewResponse, error) {
	s.calledUser, s.historyID = userID, conditionID
	if s.err != nil {
		return domain.Condition{}, nil, s.err
	}
	return s.conditions[0], s.history, nil
}

func (s *stubRecords) ListServiceHistory(_ context.Context, userID string) ([]domain.ServiceHistory, error) {
	s.calledUser = userID
	return s.services, s.err
}

func (s *stubRecords) AddServiceHistory(_ context.Context, userID string, in usecase.ServiceHistoryInput) (domain.ServiceHistory, error) {
	s.calledUser, s.serviceIn = userID, in
	if s.err != nil {
		return domain.ServiceHistory{}, s.err
	}
	return s.services[0], nil
}

type stubDocuments struct {
	docs      []domain.Document
	err       error
	uploadIn    usecase.UploadInput
	deletedID   string
	completedID string
}

func (s *stubDocuments) CreateUpload(_ context.Context, _ string, in usecase.UploadInput) (usecase.UploadOutput, error) {
	s.uploadIn = in
	if s.err != nil {
		return usecase.UploadOutput{}, s.err
	}
	return usecase.UploadOutput{Document: s.docs[0], UploadURL: "https://s3/put", ExpiresAt: testTime.Add(15 * time.Minute)}, nil
}

func (s *stubDocuments) ListDocuments(context.Context, string) ([]domain.Document, error) {
	return s.docs, s.err
}

func (s *stubDocuments) CompleteUpload(_ context.Context, _, documentID string) (domain.Document, error) {
	s.completedID = documentID
	if s.err != nil {
		return domain.Document{}, s.err
	}
	return s.docs[0], nil
}

func (s *stubDocuments) DeleteDocument(_ context.Context, _, documentID string) error {
	s.deletedID = documentID
	return s.err
}

func newRecordsHandler(t *testing.T, r *stubRecords, d *stubDocuments) *RecordsHandler {
	t.Helper()
	h, err := NewRecordsHandler(r, d, &stubVerifier{}, logger.NewNop())
	require.NoError(t, err)
	return h
}

func recordEvent(method, resource, body string, params map[string]string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{
		HTTPMethod:     method,
		Resource:       resource,
		PathParameters: params,
		Headers:        map[string]string{"Authorization": "Bearer token-1"},
		Body:           body,
	}
}

func TestNewRecordsHandler_ValidatesDependencies(t *testing.T) {
	_, err := NewRecordsHandler(nil, &stubDocuments{}, &stubVerifier{}, logger.NewNop())
	require.Error(t, err)
	_, err = NewRecordsHandler(&stubRecords{}, nil, &stubVerifier{}, logger.NewNop())
	require.Error(t, err)
}

func TestRecords_RoutesCoverEveryResource(t *testing.T) {
	h := newRecordsHandler(t, &stubRecords{}, &stubDocuments{})
	require.Len(t, h.Routes(), 11)
	require.Contains(t, h.Routes(), RouteKey{http.MethodDelete, ResourceDocument})
	require.Contains(t, h.Routes(), RouteKey{http.MethodPost, ResourceDocumentComplete})
}

func TestRecords_ListConditions(t *testing.T) {
	r := &stubRecords{conditions: []domain.Condition{{ID: "c1", Name: "Tinnitus", ClaimType: domain.ClaimTypePrimary, Status: "confirmed", CreatedAt: testTime}}}
	h := newRecordsHandler(t, r, &stubDocuments{})

	resp, err := h.Handle(context.Background(), recordEvent(http.MethodGet, ResourceConditions, "", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, testUserID, r.calledUser)
	require.JSONEq(t, `{"conditions":[{"id":"c1","name":"Tinnitus","claim_type":"Primary","status":"confirmed","created_at":"2026-05-04T10:00:00Z"}]}`, resp.Body)
}

func TestRecords_ListConditions_EmptyIsArray(t *testing.T) {
	h := newRecordsHandler(t, &stubRecords{}, &stubDocuments{})
	resp, err := h.Handle(context.Background(), recordEvent(http.MethodGet, ResourceConditions, "", nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"conditions":[]}`, resp.Body)
}

func TestRecords_AddConditions(t *testing.T) {
	r := &stubRecords{conditions: []domain.Condition{{ID: "c1", Name: "Migraines", ClaimType: domain.ClaimTypeSecondary, Status: "confirmed", CreatedAt: testTime}}}
	h := newRecordsHandler(t, r, &stubDocuments{})

	resp, err := h.Handle(context.Background(), recordEvent(http.MethodPost, ResourceConditions,
		`{"conditions":[{"name":"Migraines","claim_type":"Secondary","diagnostic_code":"8100"}]}`, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, []usecase.ConditionInput{{Name: "Migraines", ClaimType: "Secondary", DiagnosticCode: "8100"}}, r.addIn)
}

func TestRecords_CommonConditions(t *testing.T) {
	h := newRecordsHandler(t, &stubRecords{}, &stubDocuments{})
	resp, err := h.Handle(context.Background(), recordEvent(http.MethodGet, ResourceCommonConditions, "", nil))
	require.NoError(t, err)
	require.JSONEq(t, `{"conditions":["Tinnitus","Migraines"]}`, resp.Body)
}

func TestRecords_DeleteCondition(t *testing.T) {
	r := &stubRecords{}
	h := newRecordsHandler(t, r, &stubDocuments{})
	resp, err := h.Handle(context.Background(), recordEvent(http.MethodDelete, ResourceCondition, "", map[string]string{"conditionId": "c-7"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Empty(t, resp.Body)
	require.Equal(t, "c-7", r.deletedID)
}

func TestRecords_DeleteCondition_NotFound(t *testing.T) {
	r := &stubRecords{err: &usecase.Error{Code: usecase.ErrorNotFound, Reason: "condition_not_found"}}
	h := newRecordsHandler(t, r, &stubDocuments{})
	resp, err := h.Handle(context.Background(), recordEvent(http.MethodDelete, ResourceCondition, "", map[string]string{"conditionId": "c-7"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.JSONEq(t, `{"error":"NOT_FOUND","message":"condition_not_found"}`, resp.Body)
}

func TestRecords_InterviewHistory(t *testing.T) {
	answer := "Since 2005."
	r := &stubRecords{
		conditions: []domain.Condition{{ID: "c1", Name: "Tinnitus", ClaimType: domain.ClaimTypePrimary, Status: "confirmed", CreatedAt: testTime}},
		history: []domain.InterviewResponse{
			{Sequence: 0, Question: "When did it start?", Answer: &answer, CreatedAt: testTime, UpdatedAt: testTime},
			{Sequence: 1, Question: "How often?", CreatedAt: testTime, UpdatedAt: testTime},
		},
	}
	h := newRecordsHandler(t, r, &stubDocuments{})
	resp, err := h.Handle(context.Background(), recordEvent(http.MethodGet, ResourceConditionInterview, "", map[string]string{"conditionId": "c1"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "c1", r.historyID)

	out := parseBody[interviewHistoryResponse](t, resp.Body)
	require.Equal(t, "Tinnitus", out.Condition.Name)
	require.Len(t, out.Responses, 2)
	require.Equal(t, "Since 2005.", *out.Responses[0].Answer)
	require.Nil(t, out.Responses[1].Answer)
}

func TestRecords_ServiceHistory(t *testing.T) {
	r := &stubRecords{services: []domain.ServiceHistory{{
		ID:        "s1",
		Branch:    "Army",
		StartDate: time.Date(2001, 1, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2005, 6, 30, 0, 0, 0, 0, time.UTC),
		Job:       "Combat Medic",
		CreatedAt: testTime,
		UpdatedAt: testTime,
	}}}
	h := newRecordsHandler(t, r, &stubDocuments{})

	resp, err := h.Handle(context.Background(), recordEvent(http.MethodPost, ResourceServiceHistory,
		`{"branch":"Army","start_date":"2001-01-02","end_date":"2005-06-30","job":"Combat Medic","deployments":"Iraq, Kuwait"}`, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, usecase.ServiceHistoryInput{Branch: "Army", StartDate: "2001-01-02", EndDate: "2005-06-30", Job: "Combat Medic", Deployments: "Iraq, Kuwait"}, r.serviceIn)

	out := parseBody[serviceHistoryJSON](t, resp.Body)
	require.Equal(t, "2001-01-02", out.StartDate)
	require.Equal(t, "2005-06-30", out.EndDate)
	require.Equal(t, []string{}, out.Deployments)

	resp, err = h.Handle(context.Background(), recordEvent(http.MethodGet, ResourceServiceHistory, "", nil))
	require.NoError(t, err)
	list := parseBody[serviceHistoryListResponse](t, resp.Body)
	require.Len(t, list.ServiceHistory, 1)
}

func TestRecords_Documents(t *testing.T) {
	d := &stubDocuments{docs: []domain.Document{{ID: "d1", FileName: "dd214.pdf", MimeType: "application/pdf", SizeBytes: 2048, UploadedAt: testTime}}}
	h := newRecordsHandler(t, &stubRecords{}, d)

	resp, err := h.Handle(context.Background(), recordEvent(http.MethodPost, ResourceDocuments, `{"file_name":"dd214.pdf","mime_type":"application/pdf","size_bytes":2048}`, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, usecase.UploadInput{FileName: "dd214.pdf", MimeType: "application/pdf", SizeBytes: 2048}, d.uploadIn)
	up := parseBody[uploadResponse](t, resp.Body)
	require.Equal(t, "https://s3/put", up.UploadURL)
	require.Equal(t, "d1", up.Document.ID)

	resp, err = h.Handle(context.Background(), recordEvent(http.MethodGet, ResourceDocuments, "", nil))
	require.NoError(t, err)
	require.Len(t, parseBody[documentsResponse](t, resp.Body).Documents, 1)

	resp, err = h.Handle(context.Background(), recordEvent(http.MethodDelete, ResourceDocument, "", map[string]string{"documentId": "d1"}))
	require.NoError(t, err)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, "d1", d.deletedID)
}

func TestRecords_CompleteUpload(t *testing.T) {
	d := &stubDocuments{docs: []domain.Document{{ID: "d1", FileName: "dd214.pdf", MimeType: "application/pdf", SizeBytes: 2048, Status: domain.DocumentStatusUploaded, UploadedAt: testTime}}}
	h := newRecordsHandler(t, &stubRecords{}, d)
	params := map[string]string{"documentId": "d1"}

	resp, err := h.Handle(context.Background(), recordEvent(http.MethodPost, ResourceDocumentComplete, "", params))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "d1", d.completedID)
	body := parseBody[documentJSON](t, resp.Body)
	require.Equal(t, "d1", body.ID)
	require.Equal(t, domain.DocumentStatusUploaded, body.Status)

	d.err = &usecase.Error{Code: usecase.ErrorConflict, Reason: "upload_not_found"}
	resp, err = h.Handle(context.Background(), recordEvent(http.MethodPost, ResourceDocumentComplete, "", params))
	require.NoError(t, err)
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	require.Contains(t, resp.Body, "upload_not_found")
}

func TestRecords_Routing(t *testing.T) {
	h := newRecordsHandler(t, &stubRecords{}, &stubDocuments{})

	resp, err := h.Handle(context.Background(), recordEvent(http.MethodPut, ResourceConditions, "", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, err = h.Handle(context.Background(), recordEvent(http.MethodGet, "/nope", "", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = h.Handle(context.Background(), recordEvent(http.MethodOptions, ResourceDocuments, "", nil))
	require.NoError(t, err)
	require.Equal(t, "ok", resp.Body)
}

func TestRecords_RequiresAuth(t *testing.T) {
	r := &stubRecords{}
	h := newRecordsHandler(t, r, &stubDocuments{})
	event := recordEvent(http.MethodGet, ResourceConditions, "", nil)
	event.Headers = nil

	resp, err := h.Handle(context.Background(), event)
	require.NoError(t, err)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Empty(t, r.calledUser)
}

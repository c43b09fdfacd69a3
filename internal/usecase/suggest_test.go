package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
)

type statusErr struct{ code int }

func (e *statusErr) Error() string       { return fmt.Sprintf("status %d", e.code) }
func (e *statusErr) HTTPStatusCode() int { return e.code }

type fakeSuggester struct {
	result  string
	err     error
	request domain.SuggestRequest
	calls   int
}

func (f *fakeSuggester) SuggestConditions(_ context.Context, req domain.SuggestRequest) (json.RawMessage, error) {
	f.calls++
	f.request = req
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.result), nil
}

func newTestSuggestService(t *testing.T, s ConditionSuggester) *SuggestService {
	t.Helper()
	svc, err := NewSuggestService(s, logger.NewNop())
	require.NoError(t, err)
	return svc
}

func TestNewSuggestService_ValidatesDependencies(t *testing.T) {
	_, err := NewSuggestService(nil, logger.NewNop())
	require.Error(t, err)
	_, err = NewSuggestService(&fakeSuggester{}, nil)
	require.Error(t, err)
}

func TestSuggest_HappyPath(t *testing.T) {
	s := &fakeSuggester{result: `{"suggested_conditions":["Tinnitus"," Hearing Loss ","tinnitus",""]}`}
	svc := newTestSuggestService(t, s)

	out, err := svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: " Navy ", JobTitle: "Aviation Boatswain's Mate"})
	require.NoError(t, err)
	require.Equal(t, []string{"Tinnitus", "Hearing Loss"}, out.SuggestedConditions)
	require.Equal(t, "Navy", s.request.ServiceBranch)
	require.Equal(t, "Aviation Boatswain's Mate", s.request.JobTitle)
}

func TestSuggest_EmptyListIsValid(t *testing.T) {
	svc := newTestSuggestService(t, &fakeSuggester{result: `{"suggested_conditions":[]}`})
	out, err := svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: "Army", JobTitle: "Cook"})
	require.NoError(t, err)
	require.Empty(t, out.SuggestedConditions)
	require.NotNil(t, out.SuggestedConditions)
}

func TestSuggest_ValidationErrors(t *testing.T) {
	s := &fakeSuggester{result: `{"suggested_conditions":[]}`}
	svc := newTestSuggestService(t, s)

	_, err := svc.Suggest(context.Background(), SuggestInput{ServiceBranch: "Army", JobTitle: "Cook"})
	expectError(t, err, ErrorUnauthorized, "missing_user")

	_, err = svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: "  ", JobTitle: "Cook"})
	expectError(t, err, ErrorInvalidInput, "missing_service_fields")

	_, err = svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: "Army"})
	expectError(t, err, ErrorInvalidInput, "missing_service_fields")
	require.Zero(t, s.calls)
}

func TestSuggest_UpstreamErrors(t *testing.T) {
	svc := newTestSuggestService(t, &fakeSuggester{err: &statusErr{code: 429}})
	_, err := svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: "Army", JobTitle: "Cook"})
	expectError(t, err, ErrorRateLimited, "suggester_rate_limited")

	svc = newTestSuggestService(t, &fakeSuggester{err: &statusErr{code: 500}})
	_, err = svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: "Army", JobTitle: "Cook"})
	expectError(t, err, ErrorUpstream, "suggester_error")

	svc = newTestSuggestService(t, &fakeSuggester{err: errors.New("dial tcp: refused")})
	_, err = svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: "Army", JobTitle: "Cook"})
	expectError(t, err, ErrorUpstream, "suggester_error")
}

func TestSuggest_MalformedResult(t *testing.T) {
	for _, result := range []string{`nope`, `{}`, `{"suggested_conditions":"Tinnitus"}`, `{"suggested_conditions":[1,2]}`} {
		svc := newTestSuggestService(t, &fakeSuggester{result: result})
		_, err := svc.Suggest(context.Background(), SuggestInput{UserID: testUserID, ServiceBranch: "Army", JobTitle: "Cook"})
		expectError(t, err, ErrorUpstream, "suggester_malformed_response")
	}
}

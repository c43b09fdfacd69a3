package mindstudio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
)

type fakeSecret struct {
	val string
	err error
}

func (f fakeSecret) Value(context.Context) (string, error) {
	return f.val, f.err
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(
		fakeSecret{val: "ms-key"},
		WithBaseURL(srv.URL),
		WithHTTPClient(&http.Client{Timeout: 2 * time.Second}),
	)
	require.NoError(t, err)
	return c
}

func TestRunURL(t *testing.T) {
	require.Equal(t, "https://v1.mindstudio-api.com/developer/v2/apps/run", runURL(""))
	require.Equal(t, "http://localhost:9000/developer/v2/apps/run", runURL("http://localhost:9000/"))
}

func TestNewClient_NilSecret(t *testing.T) {
	_, err := NewClient(nil)
	require.Error(t, err)
}

func TestClient_Run_HappyPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/developer/v2/apps/run", r.URL.Path)
		require.Equal(t, "Bearer ms-key", r.Header.Get("Authorization"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var got runRequest
		require.NoError(t, json.Unmarshal(body, &got))
		require.Equal(t, "app-1", got.AppID)
		require.Equal(t, "Main.flow", got.Workflow)
		require.Equal(t, "Navy", got.Variables["service_branch"])
		_, _ = w.Write([]byte(`{"success":true,"threadId":"th-1","result":{"suggested_conditions":["Tinnitus"]},"billingCost":"0.002"}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv).Run(context.Background(), RunInput{
		AppID:     "app-1",
		Workflow:  "Main.flow",
		Variables: map[string]string{"service_branch": "Navy"},
	})
	require.NoError(t, err)
	require.Equal(t, "th-1", out.ThreadID)
	require.JSONEq(t, `{"suggested_conditions":["Tinnitus"]}`, string(out.Result))
	require.Equal(t, `"0.002"`, string(out.BillingCost))
}

func TestClient_Run_StringEncodedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"result":"{\"next_question\":\"When did it start?\"}"}`))
	}))
	defer srv.Close()

	out, err := newTestClient(t, srv).Run(context.Background(), RunInput{AppID: "app-1"})
	require.NoError(t, err)
	require.JSONEq(t, `{"next_question":"When did it start?"}`, string(out.Result))
}

func TestUnwrapResult_PlainStringKept(t *testing.T) {
	raw := json.RawMessage(`"just text"`)
	require.Equal(t, string(raw), string(unwrapResult(raw)))
}

func TestClient_Run_Unsuccessful(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"error":{"message":"workflow crashed"}}`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Run(context.Background(), RunInput{AppID: "app-1"})
	var runErr *RunError
	require.ErrorAs(t, err, &runErr)
	require.Equal(t, "workflow crashed", runErr.Detail)
}

func TestClient_Run_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`slow down`))
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).Run(context.Background(), RunInput{AppID: "app-1"})
	var statusErr *HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	require.Equal(t, http.StatusTooManyRequests, statusErr.HTTPStatusCode())
	require.Contains(t, err.Error(), "slow down")
}

func TestClient_Run_Validation(t *testing.T) {
	c, err := NewClient(fakeSecret{val: "k"})
	require.NoError(t, err)
	_, err = c.Run(context.Background(), RunInput{AppID: " "})
	require.Error(t, err)

	c, err = NewClient(fakeSecret{err: errors.New("ssm down")})
	require.NoError(t, err)
	_, err = c.Run(context.Background(), RunInput{AppID: "app"})
	require.ErrorContains(t, err, "ssm down")
}

type fakeRunner struct {
	got RunInput
	out RunOutput
	err error
}

func (f *fakeRunner) Run(_ context.Context, in RunInput) (RunOutput, error) {
	f.got = in
	return f.out, f.err
}

func TestApp_GenerateQuestion_Variables(t *testing.T) {
	r := &fakeRunner{out: RunOutput{Result: json.RawMessage(`{"next_question":"Q"}`)}}
	app, err := newApp(r, "interview-app", "", logger.NewNop())
	require.NoError(t, err)

	raw, err := app.GenerateQuestion(context.Background(), domain.QuestionRequest{
		ConditionName:         "Tinnitus",
		ClaimType:             domain.ClaimTypeSecondary,
		ServiceHistoryContext: `{"branch":"N/A","job":"N/A"}`,
		PreviousQAPairs:       "[]",
		TargetSection:         domain.SectionSecondaryConnect,
	})
	require.NoError(t, err)
	require.JSONEq(t, `{"next_question":"Q"}`, string(raw))
	require.Equal(t, "interview-app", r.got.AppID)
	require.Equal(t, map[string]string{
		"condition_name":          "Tinnitus",
		"claim_type":              "Secondary",
		"service_history_context": `{"branch":"N/A","job":"N/A"}`,
		"previous_qa_pairs":       "[]",
		"target_section":          string(domain.SectionSecondaryConnect),
	}, r.got.Variables)
}

func TestApp_SuggestConditions_PropagatesError(t *testing.T) {
	boom := &HTTPStatusError{StatusCode: 500}
	app, err := newApp(&fakeRunner{err: boom}, "suggest-app", "", logger.NewNop())
	require.NoError(t, err)
	_, err = app.SuggestConditions(context.Background(), domain.SuggestRequest{ServiceBranch: "Army", JobTitle: "Medic"})
	require.ErrorIs(t, err, boom)
}

func TestNewApp_Validation(t *testing.T) {
	_, err := NewApp(nil, "a", "", logger.NewNop())
	require.Error(t, err)
	_, err = newApp(&fakeRunner{}, "", "", logger.NewNop())
	require.Error(t, err)
	_, err = newApp(&fakeRunner{}, "a", "", nil)
	require.Error(t, err)
}

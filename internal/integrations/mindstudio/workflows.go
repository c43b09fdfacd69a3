package mindstudio

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
)

type runner interface {
	Run(ctx context.Context, in RunInput) (RunOutput, error)
}

// App binds a client to one deployed app and workflow.
type App struct {
	runner   runner
	appID    string
	workflow string
	log      *logger.Logger
}

func NewApp(client *Client, appID, workflow string, log *logger.Logger) (*App, error) {
	if client == nil {
		return nil, errors.New("mindstudio: client must not be nil")
	}
	return newApp(client, appID, workflow, log)
}

func newApp(r runner, appID, workflow string, log *logger.Logger) (*App, error) {
	appID = strings.TrimSpace(appID)
	if appID == "" {
		return nil, errors.New("mindstudio: app id must not be empty")
	}
	if log == nil {
		return nil, errors.New("mindstudio: logger must not be nil")
	}
	return &App{
		runner:   r,
		appID:    appID,
		workflow: strings.TrimSpace(workflow),
		log:      log.With("integration", "mindstudio", "app_id", appID),
	}, nil
}

// GenerateQuestion runs the interview app. Variable names match the
// launch variables configured in the app.
func (a *App) GenerateQuestion(ctx context.Context, req domain.QuestionRequest) (json.RawMessage, error) {
	return a.run(ctx, map[string]string{
		"condition_name":          req.ConditionName,
		"claim_type":              string(req.ClaimType),
		"service_history_context": req.ServiceHistoryContext,
		"previous_qa_pairs":       req.PreviousQAPairs,
		"target_section":          string(req.TargetSection),
	})
}

// SuggestConditions runs the condition-suggestion app.
func (a *App) SuggestConditions(ctx context.Context, req domain.SuggestRequest) (json.RawMessage, error) {
	return a.run(ctx, map[string]string{
		"service_branch": req.ServiceBranch,
		"job_title":      req.JobTitle,
	})
}

func (a *App) run(ctx context.Context, vars map[string]string) (json.RawMessage, error) {
	out, err := a.runner.Run(ctx, RunInput{AppID: a.appID, Workflow: a.workflow, Variables: vars})
	if err != nil {
		return nil, err
	}
	a.log.Info("workflow run completed", "thread_id", out.ThreadID, "billing_cost", string(out.BillingCost))
	return out.Result, nil
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
)

const maxSuggestInputLength = 200

// ConditionSuggester runs the condition-suggestion workflow. The result
// object must carry a "suggested_conditions" string array.
type ConditionSuggester interface {
	SuggestConditions(ctx context.Context, req domain.SuggestRequest) (json.RawMessage, error)
}

type SuggestService struct {
	suggester ConditionSuggester
	log       *logger.Logger
}

type SuggestInput struct {
	UserID        string
	ServiceBranch string
	JobTitle      string
}

type SuggestOutput struct {
	SuggestedConditions []string
}

func NewSuggestService(suggester ConditionSuggester, log *logger.Logger) (*SuggestService, error) {
	if suggester == nil {
		return nil, errors.New("usecase: condition suggester must not be nil")
	}
	if log == nil {
		return nil, errors.New("usecase: logger must not be nil")
	}
	return &SuggestService{suggester: suggester, log: log.With("service", "SuggestService")}, nil
}

func (s *SuggestService) Suggest(ctx context.Context, in SuggestInput) (SuggestOutput, error) {
	if strings.TrimSpace(in.UserID) == "" {
		return SuggestOutput{}, Unauthorized("missing_user", nil)
	}
	branch := strings.TrimSpace(in.ServiceBranch)
	job := strings.TrimSpace(in.JobTitle)
	if branch == "" || job == "" {
		return SuggestOutput{}, newError(ErrorInvalidInput, "missing_service_fields", nil)
	}
	if len(branch) > maxSuggestInputLength || len(job) > maxSuggestInputLength {
		return SuggestOutput{}, newError(ErrorInvalidInput, "service_fields_too_long", nil)
	}

	raw, err := s.suggester.SuggestConditions(ctx, domain.SuggestRequest{ServiceBranch: branch, JobTitle: job})
	if err != nil {
		if status, ok := upstreamStatusCode(err); ok && status == http.StatusTooManyRequests {
			return SuggestOutput{}, newError(ErrorRateLimited, "suggester_rate_limited", err)
		}
		return SuggestOutput{}, newError(ErrorUpstream, "suggester_error", err)
	}

	conditions, err := parseSuggestedConditions(raw)
	if err != nil {
		return SuggestOutput{}, newError(ErrorUpstream, "suggester_malformed_response", err)
	}
	s.log.Info("suggested conditions", "user_id", in.UserID, "count", len(conditions))
	return SuggestOutput{SuggestedConditions: conditions}, nil
}

// parseSuggestedConditions requires a JSON string array; blank and repeated
// entries are dropped.
func parseSuggestedConditions(raw json.RawMessage) ([]string, error) {
	var result struct {
		SuggestedConditions *[]string `json:"suggested_conditions"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("usecase: decode suggestion result: %w", err)
	}
	if result.SuggestedConditions == nil {
		return nil, errors.New("usecase: suggestion result missing suggested_conditions")
	}
	seen := make(map[string]struct{}, len(*result.SuggestedConditions))
	out := make([]string, 0, len(*result.SuggestedConditions))
	for _, c := range *result.SuggestedConditions {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		key := strings.ToLower(c)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}

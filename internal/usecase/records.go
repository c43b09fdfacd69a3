package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
)

const (
	maxConditionsPerRequest = 50
	maxNameLength           = 200
)

var newUUID = func() string { return uuid.NewString() }

// RecordStore persists the user-managed records shown on the dashboard.
type RecordStore interface {
	ListConditions(ctx context.Context, userID string) ([]domain.Condition, error)
	GetCondition(ctx context.Context, userID, conditionID string) (domain.Condition, error)
	// AddConditions skips conditions whose (user, name) already exists.
	AddConditions(ctx context.Context, userID string, conditions []domain.Condition) error
	// DeleteCondition also removes the condition's interview history.
	DeleteCondition(ctx context.Context, userID, conditionID string) error
	ListInterview(ctx context.Context, userID, conditionID string) ([]domain.InterviewResponse, error)
	AddServiceHistory(ctx context.Context, h domain.ServiceHistory) error
	ListServiceHistory(ctx context.Context, userID string) ([]domain.ServiceHistory, error)
}

type RecordsService struct {
	store RecordStore
	log   *logger.Logger
	now   func() time.Time
}

type ConditionInput struct {
	Name           string
	ClaimType      string
	DiagnosticCode string
}

type ServiceHistoryInput struct {
	Branch      string
	StartDate   string
	EndDate     string
	Job         string
	Deployments string
}

func NewRecordsService(store RecordStore, log *logger.Logger) (*RecordsService, error) {
	if store == nil {
		return nil, errors.New("usecase: record store must not be nil")
	}
	if log == nil {
		return nil, errors.New("usecase: logger must not be nil")
	}
	return &RecordsService{
		store: store,
		log:   log.With("service", "RecordsService"),
		now:   func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *RecordsService) CommonConditions() []string {
	out := make([]string, len(domain.CommonConditions))
	copy(out, domain.CommonConditions)
	return out
}

func (s *RecordsService) ListConditions(ctx context.Context, userID string) ([]domain.Condition, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	cs, err := s.store.ListConditions(ctx, userID)
	if err != nil {
		return nil, newError(ErrorInternal, "condition_read_error", err)
	}
	return cs, nil
}

// AddConditions inserts the given conditions and returns the caller's full
// list afterwards. Names already on file are skipped.
func (s *RecordsService) AddConditions(ctx context.Context, userID string, in []ConditionInput) ([]domain.Condition, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, newError(ErrorInvalidInput, "no_conditions", nil)
	}
	if len(in) > maxConditionsPerRequest {
		return nil, newError(ErrorInvalidInput, "too_many_conditions", nil)
	}

	now := s.now()
	seen := make(map[string]struct{}, len(in))
	conditions := make([]domain.Condition, 0, len(in))
	for _, c := range in {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, newError(ErrorInvalidInput, "empty_condition_name", nil)
		}
		if len(name) > maxNameLength {
			return nil, newError(ErrorInvalidInput, "condition_name_too_long", nil)
		}
		claimType, err := domain.ParseClaimType(c.ClaimType)
		if err != nil {
			return nil, newError(ErrorInvalidInput, "invalid_claim_type", err)
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		conditions = append(conditions, domain.Condition{
			ID:             newUUID(),
			UserID:         userID,
			Name:           name,
			ClaimType:      claimType,
			DiagnosticCode: strings.TrimSpace(c.DiagnosticCode),
			Status:         domain.ConditionStatusConfirmed,
			CreatedAt:      now,
		})
	}

	if err := s.store.AddConditions(ctx, userID, conditions); err != nil {
		return nil, newError(ErrorInternal, "condition_write_error", err)
	}
	s.log.Info("added conditions", "user_id", userID, "requested", len(conditions))
	return s.ListConditions(ctx, userID)
}

func (s *RecordsService) DeleteCondition(ctx context.Context, userID, conditionID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	id, err := parseID(conditionID, "invalid_condition_id")
	if err != nil {
		return err
	}
	if err := s.store.DeleteCondition(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return newError(ErrorNotFound, "condition_not_found", err)
		}
		return newError(ErrorInternal, "condition_delete_error", err)
	}
	s.log.Info("deleted condition", "user_id", userID, "condition_id", id)
	return nil
}

// InterviewHistory returns the ordered question/answer rows for review.
func (s *RecordsService) InterviewHistory(ctx context.Context, userID, conditionID string) (domain.Condition, []domain.InterviewResponse, error) {
	if err := requireUser(userID); err != nil {
		return domain.Condition{}, nil, err
	}
	id, err := parseID(conditionID, "invalid_condition_id")
	if err != nil {
		return domain.Condition{}, nil, err
	}
	c, err := s.store.GetCondition(ctx, userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Condition{}, nil, newError(ErrorNotFound, "condition_not_found", err)
		}
		return domain.Condition{}, nil, newError(ErrorInternal, "condition_read_error", err)
	}
	history, err := s.store.ListInterview(ctx, userID, id)
	if err != nil {
		return domain.Condition{}, nil, newError(ErrorInternal, "interview_history_read_error", err)
	}
	return c, history, nil
}

func (s *RecordsService) ListServiceHistory(ctx context.Context, userID string) ([]domain.ServiceHistory, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	hs, err := s.store.ListServiceHistory(ctx, userID)
	if err != nil {
		return nil, newError(ErrorInternal, "service_history_read_error", err)
	}
	return hs, nil
}

func (s *RecordsService) AddServiceHistory(ctx context.Context, userID string, in ServiceHistoryInput) (domain.ServiceHistory, error) {
	if err := requireUser(userID); err != nil {
		return domain.ServiceHistory{}, err
	}
	branch := strings.TrimSpace(in.Branch)
	job := strings.TrimSpace(in.Job)
	if branch == "" || job == "" {
		return domain.ServiceHistory{}, newError(ErrorInvalidInput, "missing_service_fields", nil)
	}
	if len(branch) > maxNameLength || len(job) > maxNameLength {
		return domain.ServiceHistory{}, newError(ErrorInvalidInput, "service_fields_too_long", nil)
	}
	start, err := time.Parse(domain.DateLayout, strings.TrimSpace(in.StartDate))
	if err != nil {
		return domain.ServiceHistory{}, newError(ErrorInvalidInput, "invalid_start_date", err)
	}
	end, err := time.Parse(domain.DateLayout, strings.TrimSpace(in.EndDate))
	if err != nil {
		return domain.ServiceHistory{}, newError(ErrorInvalidInput, "invalid_end_date", err)
	}
	if end.Before(start) {
		return domain.ServiceHistory{}, newError(ErrorInvalidInput, "end_before_start", nil)
	}

	now := s.now()
	h := domain.ServiceHistory{
		ID:          newUUID(),
		UserID:      userID,
		Branch:      branch,
		StartDate:   start,
		EndDate:     end,
		Job:         job,
		Deployments: domain.ParseDeployments(in.Deployments),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.AddServiceHistory(ctx, h); err != nil {
		return domain.ServiceHistory{}, newError(ErrorInternal, "service_history_write_error", err)
	}
	s.log.Info("added service history", "user_id", userID, "service_history_id", h.ID)
	return h, nil
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return Unauthorized("missing_user", nil)
	}
	return nil
}

func parseID(raw, reason string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return "", newError(ErrorInvalidInput, reason, err)
	}
	return id.String(), nil
}

package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
)

const (
	defaultMaxAnswerLength  = 4000
	defaultGeneratorTimeout = 25 * time.Second
)

// InterviewStore is the persistence surface of the interview orchestrator.
// Every method is scoped by the owning user ID.
type InterviewStore interface {
	GetCondition(ctx context.Context, userID, conditionID string) (domain.Condition, error)
	LatestServiceHistory(ctx context.Context, userID string) (domain.ServiceHistory, error)
	ListInterview(ctx context.Context, userID, conditionID string) ([]domain.InterviewResponse, error)
	AnswerQuestion(ctx context.Context, userID, conditionID string, sequence int, answer string, at time.Time) error
	AppendQuestion(ctx context.Context, r domain.InterviewResponse) error
}

// QuestionGenerator produces the next interview question. The returned
// payload is the workflow result object; it must carry a string
// "next_question" field.
type QuestionGenerator interface {
	GenerateQuestion(ctx context.Context, req domain.QuestionRequest) (json.RawMessage, error)
}

// TurnLocker serializes turns for one (user, condition) pair. Acquire
// reports ok=false when another turn holds the lock.
type TurnLocker interface {
	Acquire(ctx context.Context, key string) (release func(context.Context), ok bool, err error)
}

type InterviewConfig struct {
	MaxAnswerLength  int
	GeneratorTimeout time.Duration
	// Locker is optional; nil keeps turns unserialized.
	Locker TurnLocker
}

type InterviewService struct {
	store            InterviewStore
	generator        QuestionGenerator
	locker           TurnLocker
	log              *logger.Logger
	maxAnswerLength  int
	generatorTimeout time.Duration
	now              func() time.Time
}

type TurnInput struct {
	UserID       string
	ConditionID  string
	LatestAnswer *string
}

type TurnOutput struct {
	NextQuestion *string
	Status       domain.InterviewStatus
}

func NewInterviewService(store InterviewStore, gen QuestionGenerator, log *logger.Logger, cfg InterviewConfig) (*InterviewService, error) {
	if store == nil {
		return nil, errors.New("usecase: interview store must not be nil")
	}
	if gen == nil {
		return nil, errors.New("usecase: question generator must not be nil")
	}
	if log == nil {
		return nil, errors.New("usecase: logger must not be nil")
	}
	if cfg.MaxAnswerLength <= 0 {
		cfg.MaxAnswerLength = defaultMaxAnswerLength
	}
	if cfg.GeneratorTimeout <= 0 {
		cfg.GeneratorTimeout = defaultGeneratorTimeout
	}
	return &InterviewService{
		store:            store,
		generator:        gen,
		locker:           cfg.Locker,
		log:              log.With("service", "InterviewService"),
		maxAnswerLength:  cfg.MaxAnswerLength,
		generatorTimeout: cfg.GeneratorTimeout,
		now:              func() time.Time { return time.Now().UTC() },
	}, nil
}

// Turn runs one interview step: commit the caller's answer to the open
// question, pick the next target section, ask the generator, and store the
// question it returns.
//
// The answer commit and the question insert are separate writes. If the
// generator fails after the commit, the answer stays persisted and a retry
// with the same answer is a no-op for the commit step.
func (s *InterviewService) Turn(ctx context.Context, in TurnInput) (TurnOutput, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return TurnOutput{}, Unauthorized("missing_user", nil)
	}
	conditionID, err := parseID(in.ConditionID, "invalid_condition_id")
	if err != nil {
		return TurnOutput{}, err
	}

	var answer *string
	if in.LatestAnswer != nil {
		a := strings.TrimSpace(*in.LatestAnswer)
		if a == "" {
			return TurnOutput{}, newError(ErrorInvalidInput, "empty_answer", nil)
		}
		if utf8.RuneCountInString(a) > s.maxAnswerLength {
			return TurnOutput{}, newError(ErrorInvalidInput, "answer_too_long", nil)
		}
		answer = &a
	}

	log := s.log.With("user_id", userID, "condition_id", conditionID)

	if s.locker != nil {
		release, ok, err := s.locker.Acquire(ctx, turnLockKey(userID, conditionID))
		if err != nil {
			return TurnOutput{}, newError(ErrorInternal, "turn_lock_error", err)
		}
		if !ok {
			return TurnOutput{}, newError(ErrorConflict, "turn_in_progress", nil)
		}
		defer release(context.WithoutCancel(ctx))
	}

	condition, err := s.store.GetCondition(ctx, userID, conditionID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return TurnOutput{}, newError(ErrorNotFound, "condition_not_found", err)
		}
		return TurnOutput{}, newError(ErrorInternal, "condition_read_error", err)
	}

	serviceCtx := domain.PlaceholderServiceContext
	record, err := s.store.LatestServiceHistory(ctx, userID)
	switch {
	case err == nil:
		serviceCtx = record.Context()
	case errors.Is(err, domain.ErrNotFound):
	default:
		log.Warn("service history read failed, using placeholder context", "err", err)
	}

	history, err := s.store.ListInterview(ctx, userID, conditionID)
	if err != nil {
		return TurnOutput{}, newError(ErrorInternal, "interview_history_read_error", err)
	}

	// A turn without an answer while a question is still open re-serves that
	// question instead of appending another one.
	if answer == nil && len(history) > 0 && history[len(history)-1].Open() {
		open := history[len(history)-1]
		log.Info("returning open question", "sequence", open.Sequence)
		question := open.Question
		return TurnOutput{NextQuestion: &question, Status: domain.InterviewInProgress}, nil
	}

	if answer != nil {
		history, err = s.commitAnswer(ctx, log, userID, conditionID, history, *answer)
		if err != nil {
			return TurnOutput{}, newError(ErrorInternal, "answer_commit_error", err)
		}
	}

	section := SelectTargetSection(history, condition.ClaimType)
	req, err := buildQuestionRequest(condition, serviceCtx, history, section)
	if err != nil {
		return TurnOutput{}, newError(ErrorInternal, "generator_request_error", err)
	}

	log.Info("requesting next question", "target_section", section, "history_len", len(history))
	genCtx, cancel := context.WithTimeout(ctx, s.generatorTimeout)
	raw, err := s.generator.GenerateQuestion(genCtx, req)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return TurnOutput{}, newError(ErrorUpstream, "generator_timeout", err)
		}
		return TurnOutput{}, newError(ErrorUpstream, "generator_error", err)
	}
	question, err := parseNextQuestion(raw)
	if err != nil {
		return TurnOutput{}, newError(ErrorUpstream, "generator_malformed_response", err)
	}

	if question == "" {
		log.Info("generator returned no question, interview completed")
		return TurnOutput{Status: domain.InterviewCompleted}, nil
	}

	next := nextSequence(history)
	err = s.store.AppendQuestion(ctx, domain.InterviewResponse{
		UserID:      userID,
		ConditionID: conditionID,
		Sequence:    next,
		Question:    question,
		CreatedAt:   s.now(),
		UpdatedAt:   s.now(),
	})
	if err != nil {
		// The caller still gets the question; it will not survive a reload.
		log.Warn("failed to store next question", "reason", "persistence_warning", "sequence", next, "err", err)
	} else {
		log.Info("stored next question", "sequence", next)
	}

	return TurnOutput{NextQuestion: &question, Status: domain.InterviewInProgress}, nil
}

// commitAnswer records answer on the trailing open question. A missing open
// question, or one answered concurrently, is logged and ignored.
func (s *InterviewService) commitAnswer(ctx context.Context, log *logger.Logger, userID, conditionID string, history []domain.InterviewResponse, answer string) ([]domain.InterviewResponse, error) {
	if len(history) == 0 || !history[len(history)-1].Open() {
		log.Warn("answer received but no open question found, ignoring", "answer_len", len(answer))
		return history, nil
	}
	last := history[len(history)-1]
	err := s.store.AnswerQuestion(ctx, userID, conditionID, last.Sequence, answer, s.now())
	if errors.Is(err, domain.ErrAlreadyAnswered) {
		log.Warn("open question was answered concurrently, ignoring", "sequence", last.Sequence)
		return history, nil
	}
	if err != nil {
		return nil, err
	}
	log.Info("updated answer", "sequence", last.Sequence)

	updated := make([]domain.InterviewResponse, len(history))
	copy(updated, history)
	updated[len(updated)-1].Answer = &answer
	return updated, nil
}

func buildQuestionRequest(c domain.Condition, serviceCtx domain.ServiceContext, history []domain.InterviewResponse, section domain.Section) (domain.QuestionRequest, error) {
	svc, err := json.Marshal(serviceCtx)
	if err != nil {
		return domain.QuestionRequest{}, fmt.Errorf("usecase: marshal service context: %w", err)
	}
	pairs := make([]domain.QAPair, 0, len(history))
	for _, r := range history {
		a := ""
		if r.Answer != nil {
			a = *r.Answer
		}
		pairs = append(pairs, domain.QAPair{Question: r.Question, Answer: a})
	}
	qa, err := json.Marshal(pairs)
	if err != nil {
		return domain.QuestionRequest{}, fmt.Errorf("usecase: marshal qa pairs: %w", err)
	}
	claimType := c.ClaimType
	if claimType == "" {
		claimType = domain.ClaimTypePrimary
	}
	return domain.QuestionRequest{
		ConditionName:         c.Name,
		ClaimType:             claimType,
		ServiceHistoryContext: string(svc),
		PreviousQAPairs:       string(qa),
		TargetSection:         section,
	}, nil
}

// parseNextQuestion extracts next_question from a generator result. The
// field must be present and a JSON string; an empty string is valid and
// signals completion.
func parseNextQuestion(raw json.RawMessage) (string, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return "", fmt.Errorf("usecase: decode generator result: %w", err)
	}
	if obj == nil {
		return "", errors.New("usecase: generator result is not an object")
	}
	field, ok := obj["next_question"]
	if !ok {
		return "", errors.New("usecase: generator result missing next_question")
	}
	var q string
	if err := json.Unmarshal(field, &q); err != nil || strings.TrimSpace(string(field)) == "null" {
		return "", errors.New("usecase: generator next_question is not a string")
	}
	return strings.TrimSpace(q), nil
}

func nextSequence(history []domain.InterviewResponse) int {
	if len(history) == 0 {
		return 0
	}
	max := history[0].Sequence
	for _, r := range history[1:] {
		if r.Sequence > max {
			max = r.Sequence
		}
	}
	return max + 1
}

func turnLockKey(userID, conditionID string) string {
	return "interview-turn:" + userID + ":" + conditionID
}

package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"claim-assistant/internal/domain"
)

func (s *Store) ListInterview(ctx context.Context, userID, conditionID string) ([]domain.InterviewResponse, error) {
	var rows []interviewRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ? AND condition_id = ?", userID, conditionID).
		Order("sequence_number ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gormstore: ListInterview: %w", err)
	}
	out := make([]domain.InterviewResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// AnswerQuestion sets the answer only while it is still NULL.
func (s *Store) AnswerQuestion(ctx context.Context, userID, conditionID string, sequence int, answer string, at time.Time) error {
	res := s.db.WithContext(ctx).
		Model(&interviewRow{}).
		Where("user_id = ? AND condition_id = ? AND sequence_number = ? AND answer IS NULL", userID, conditionID, sequence).
		Updates(map[string]any{"answer": answer, "updated_at": at.UTC()})
	if res.Error != nil {
		return fmt.Errorf("gormstore: AnswerQuestion: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrAlreadyAnswered
	}
	return nil
}

func (s *Store) AppendQuestion(ctx context.Context, r domain.InterviewResponse) error {
	row := toInterviewRow(r)
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("gormstore: AppendQuestion: %w", err)
	}
	return nil
}

package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"claim-assistant/internal/domain"
)

func (s *Store) ListConditions(ctx context.Context, userID string) ([]domain.Condition, error) {
	var rows []conditionRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gormstore: ListConditions: %w", err)
	}
	out := make([]domain.Condition, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) GetCondition(ctx context.Context, userID, conditionID string) (domain.Condition, error) {
	var row conditionRow
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", conditionID, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Condition{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Condition{}, fmt.Errorf("gormstore: GetCondition: %w", err)
	}
	return row.toDomain(), nil
}

// AddConditions inserts the rows, skipping any (user, name) already on
// file.
func (s *Store) AddConditions(ctx context.Context, userID string, conditions []domain.Condition) error {
	if len(conditions) == 0 {
		return nil
	}
	rows := make([]conditionRow, 0, len(conditions))
	for _, c := range conditions {
		c.UserID = userID
		rows = append(rows, toConditionRow(c))
	}
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows)
	if res.Error != nil {
		return fmt.Errorf("gormstore: AddConditions: %w", res.Error)
	}
	if skipped := int64(len(rows)) - res.RowsAffected; skipped > 0 {
		s.log.Debug("skipped existing conditions", "user_id", userID, "skipped", skipped)
	}
	return nil
}

// DeleteCondition removes the condition and its interview history in one
// transaction.
func (s *Store) DeleteCondition(ctx context.Context, userID, conditionID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", conditionID, userID).Delete(&conditionRow{})
		if res.Error != nil {
			return fmt.Errorf("gormstore: DeleteCondition: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return domain.ErrNotFound
		}
		if err := tx.Where("user_id = ? AND condition_id = ?", userID, conditionID).Delete(&interviewRow{}).Error; err != nil {
			return fmt.Errorf("gormstore: DeleteCondition interview: %w", err)
		}
		return nil
	})
}

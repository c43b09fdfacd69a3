package gormstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"claim-assistant/internal/domain"
)

func (s *Store) AddServiceHistory(ctx context.Context, h domain.ServiceHistory) error {
	row := toServiceHistoryRow(h)
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("gormstore: AddServiceHistory: %w", err)
	}
	return nil
}

func (s *Store) ListServiceHistory(ctx context.Context, userID string) ([]domain.ServiceHistory, error) {
	var rows []serviceHistoryRow
	if err := s.newestFirst(ctx, userID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gormstore: ListServiceHistory: %w", err)
	}
	out := make([]domain.ServiceHistory, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) LatestServiceHistory(ctx context.Context, userID string) (domain.ServiceHistory, error) {
	var row serviceHistoryRow
	err := s.newestFirst(ctx, userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ServiceHistory{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.ServiceHistory{}, fmt.Errorf("gormstore: LatestServiceHistory: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) newestFirst(ctx context.Context, userID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("end_date DESC").
		Order("created_at DESC")
}

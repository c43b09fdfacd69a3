package gormstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"claim-assistant/internal/domain"
)

func (s *Store) CreateDocument(ctx context.Context, d domain.Document) error {
	row := toDocumentRow(d)
	err := s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("gormstore: CreateDocument: %w", err)
	}
	return nil
}

func (s *Store) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("uploaded_at DESC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("gormstore: ListDocuments: %w", err)
	}
	out := make([]domain.Document, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) GetDocument(ctx context.Context, userID, documentID string) (domain.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", documentID, userID).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Document{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Document{}, fmt.Errorf("gormstore: GetDocument: %w", err)
	}
	return row.toDomain(), nil
}

// MarkDocumentUploaded flips a pending document to uploaded and stamps the
// completion time.
func (s *Store) MarkDocumentUploaded(ctx context.Context, userID, documentID string, at time.Time) error {
	res := s.db.WithContext(ctx).Model(&documentRow{}).
		Where("id = ? AND user_id = ?", documentID, userID).
		Updates(map[string]any{"status": domain.DocumentStatusUploaded, "uploaded_at": at.UTC()})
	if res.Error != nil {
		return fmt.Errorf("gormstore: MarkDocumentUploaded: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDocument(ctx context.Context, userID, documentID string) error {
	res := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", documentID, userID).Delete(&documentRow{})
	if res.Error != nil {
		return fmt.Errorf("gormstore: DeleteDocument: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

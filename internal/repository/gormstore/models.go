package gormstore

import (
	"strings"
	"time"

	"gorm.io/datatypes"

	"claim-assistant/internal/domain"
)

type conditionRow struct {
	ID             string    `gorm:"size:36;primaryKey"`
	UserID         string    `gorm:"size:36;not null;uniqueIndex:idx_user_conditions_user_name,priority:1"`
	Name           string    `gorm:"not null"`
	NameKey        string    `gorm:"not null;uniqueIndex:idx_user_conditions_user_name,priority:2"`
	ClaimType      string    `gorm:"size:16;not null"`
	DiagnosticCode *string   `gorm:"size:32"`
	Status         string    `gorm:"size:32;not null"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (conditionRow) TableName() string { return "user_conditions" }

type serviceHistoryRow struct {
	ID          string                      `gorm:"size:36;primaryKey"`
	UserID      string                      `gorm:"size:36;not null;index"`
	Branch      string                      `gorm:"not null"`
	StartDate   time.Time                   `gorm:"not null"`
	EndDate     time.Time                   `gorm:"not null;index"`
	Job         string                      `gorm:"not null"`
	Deployments datatypes.JSONSlice[string] `gorm:"not null"`
	CreatedAt   time.Time                   `gorm:"not null"`
	UpdatedAt   time.Time                   `gorm:"not null"`
}

func (serviceHistoryRow) TableName() string { return "service_history" }

type interviewRow struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement"`
	UserID         string    `gorm:"size:36;not null;uniqueIndex:idx_interview_responses_seq,priority:1"`
	ConditionID    string    `gorm:"size:36;not null;uniqueIndex:idx_interview_responses_seq,priority:2"`
	SequenceNumber int       `gorm:"not null;uniqueIndex:idx_interview_responses_seq,priority:3"`
	Question       string    `gorm:"not null"`
	Answer         *string
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func (interviewRow) TableName() string { return "interview_responses" }

type documentRow struct {
	ID         string    `gorm:"size:36;primaryKey"`
	UserID     string    `gorm:"size:36;not null;index"`
	FileName   string    `gorm:"not null"`
	StorageKey string    `gorm:"not null;uniqueIndex"`
	MimeType   string    `gorm:"not null"`
	SizeBytes  int64     `gorm:"not null"`
	Status     string    `gorm:"size:16;not null"`
	UploadedAt time.Time `gorm:"not null"`
}

func (documentRow) TableName() string { return "documents" }

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toConditionRow(c domain.Condition) conditionRow {
	return conditionRow{
		ID:             c.ID,
		UserID:         c.UserID,
		Name:           c.Name,
		NameKey:        nameKey(c.Name),
		ClaimType:      string(c.ClaimType),
		DiagnosticCode: optional(c.DiagnosticCode),
		Status:         c.Status,
		CreatedAt:      c.CreatedAt.UTC(),
	}
}

func (r conditionRow) toDomain() domain.Condition {
	claimType, err := domain.ParseClaimType(r.ClaimType)
	if err != nil {
		claimType = domain.ClaimTypePrimary
	}
	c := domain.Condition{
		ID:        r.ID,
		UserID:    r.UserID,
		Name:      r.Name,
		ClaimType: claimType,
		Status:    r.Status,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.DiagnosticCode != nil {
		c.DiagnosticCode = *r.DiagnosticCode
	}
	return c
}

func toServiceHistoryRow(h domain.ServiceHistory) serviceHistoryRow {
	deployments := h.Deployments
	if deployments == nil {
		deployments = []string{}
	}
	return serviceHistoryRow{
		ID:          h.ID,
		UserID:      h.UserID,
		Branch:      h.Branch,
		StartDate:   h.StartDate.UTC(),
		EndDate:     h.EndDate.UTC(),
		Job:         h.Job,
		Deployments: datatypes.JSONSlice[string](deployments),
		CreatedAt:   h.CreatedAt.UTC(),
		UpdatedAt:   h.UpdatedAt.UTC(),
	}
}

func (r serviceHistoryRow) toDomain() domain.ServiceHistory {
	deployments := []string(r.Deployments)
	if deployments == nil {
		deployments = []string{}
	}
	return domain.ServiceHistory{
		ID:          r.ID,
		UserID:      r.UserID,
		Branch:      r.Branch,
		StartDate:   r.StartDate.UTC(),
		EndDate:     r.EndDate.UTC(),
		Job:         r.Job,
		Deployments: deployments,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toInterviewRow(r domain.InterviewResponse) interviewRow {
	return interviewRow{
		UserID:         r.UserID,
		ConditionID:    r.ConditionID,
		SequenceNumber: r.Sequence,
		Question:       r.Question,
		Answer:         r.Answer,
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

func (r interviewRow) toDomain() domain.InterviewResponse {
	return domain.InterviewResponse{
		UserID:      r.UserID,
		ConditionID: r.ConditionID,
		Sequence:    r.SequenceNumber,
		Question:    r.Question,
		Answer:      r.Answer,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

func toDocumentRow(d domain.Document) documentRow {
	return documentRow{
		ID:         d.ID,
		UserID:     d.UserID,
		FileName:   d.FileName,
		StorageKey: d.StorageKey,
		MimeType:   d.MimeType,
		SizeBytes:  d.SizeBytes,
		Status:     d.Status,
		UploadedAt: d.UploadedAt.UTC(),
	}
}

func (r documentRow) toDomain() domain.Document {
	return domain.Document{
		ID:         r.ID,
		UserID:     r.UserID,
		FileName:   r.FileName,
		StorageKey: r.StorageKey,
		MimeType:   r.MimeType,
		SizeBytes:  r.SizeBytes,
		Status:     r.Status,
		UploadedAt: r.UploadedAt.UTC(),
	}
}

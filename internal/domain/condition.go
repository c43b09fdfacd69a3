package domain

import (
	"fmt"
	"strings"
	"time"
)

// ClaimType describes how a condition relates to military service.
type ClaimType string

const (
	ClaimTypePrimary     ClaimType = "Primary"
	ClaimTypeSecondary   ClaimType = "Secondary"
	ClaimTypeAggravation ClaimType = "Aggravation"
)

const ConditionStatusConfirmed = "confirmed"

// ParseClaimType accepts the canonical names case-insensitively. An empty
// value defaults to Primary.
func ParseClaimType(s string) (ClaimType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "primary":
		return ClaimTypePrimary, nil
	case "secondary":
		return ClaimTypeSecondary, nil
	case "aggravation":
		return ClaimTypeAggravation, nil
	default:
		return "", fmt.Errorf("domain: unknown claim type %q", s)
	}
}

// Condition is a medical condition claimed by one user.
type Condition struct {
	ID             string
	UserID         string
	Name           string
	ClaimType      ClaimType
	DiagnosticCode string
	Status         string
	CreatedAt      time.Time
}

// CommonConditions is the fixed pick-list offered before custom entry.
var CommonConditions = []string{
	"Back Pain (Lumbosacral Strain)",
	"Tinnitus (Ringing in Ears)",
	"PTSD (Post-Traumatic Stress Disorder)",
	"Knee Condition (e.g., Patellofemoral Syndrome)",
	"Hearing Loss",
	"Migraines",
	"Shoulder Condition (e.g., Rotator Cuff)",
	"Ankle Condition (e.g., Sprain/Strain)",
	"Sleep Apnea",
	"Depression",
	"Anxiety Disorder",
}

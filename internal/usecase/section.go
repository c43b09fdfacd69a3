package usecase

import (
	"strings"

	"claim-assistant/internal/domain"
)

// serviceConnectionThreshold is how many service-connection questions are
// asked before the interview moves on to current symptoms.
const serviceConnectionThreshold = 2

var serviceConnectionKeywords = []string{"service", "exposure", "injury", "event"}

// SelectTargetSection picks the section the next question should address.
//
// Progress is inferred from the wording of prior questions rather than from
// an explicit signal, so a generator that phrases service-connection
// questions without any of the keywords keeps the interview in the
// claim-type section. That is a known limitation of the heuristic.
func SelectTargetSection(history []domain.InterviewResponse, claimType domain.ClaimType) domain.Section {
	initial := initialSection(claimType)
	if len(history) == 0 {
		return initial
	}
	if countServiceConnectionQuestions(history) < serviceConnectionThreshold {
		return initial
	}
	return domain.SectionCurrentSymptoms
}

func initialSection(claimType domain.ClaimType) domain.Section {
	switch claimType {
	case domain.ClaimTypeSecondary:
		return domain.SectionSecondaryConnect
	case domain.ClaimTypeAggravation:
		return domain.SectionAggravation
	default:
		return domain.SectionInServiceEvent
	}
}

func countServiceConnectionQuestions(history []domain.InterviewResponse) int {
	n := 0
	for _, r := range history {
		q := strings.ToLower(r.Question)
		for _, kw := range serviceConnectionKeywords {
			if strings.Contains(q, kw) {
				n++
				break
			}
		}
	}
	return n
}

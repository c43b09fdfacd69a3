package domain

import "time"

// InterviewStatus is reported with every interview turn.
type InterviewStatus string

const (
	InterviewInProgress InterviewStatus = "in_progress"
	InterviewCompleted  InterviewStatus = "completed"
	InterviewError      InterviewStatus = "error"
)

// Section is the topical area the next generated question should address.
type Section string

const (
	SectionInServiceEvent   Section = "II.B.i - In-Service Event, Injury, or Exposure"
	SectionSecondaryConnect Section = "II.B.ii - Secondary Connection"
	SectionAggravation      Section = "II.B.iii - Aggravation Details"
	SectionCurrentSymptoms  Section = "II.C - Current Symptoms and Functional Impact"
)

// InterviewResponse is one question/answer pair of a condition interview.
// A nil Answer means the question was asked but not yet answered.
type InterviewResponse struct {
	UserID      string
	ConditionID string
	Sequence    int
	Question    string
	Answer      *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Open reports whether the question is still awaiting an answer.
func (r InterviewResponse) Open() bool {
	return r.Answer == nil
}

// QAPair is the serialized history shape sent to the question generator.
type QAPair struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QuestionRequest carries everything the generator needs for one turn.
type QuestionRequest struct {
	ConditionName         string
	ClaimType             ClaimType
	ServiceHistoryContext string
	PreviousQAPairs       string
	TargetSection         Section
}

// SuggestRequest carries the inputs of the condition-suggestion workflow.
type SuggestRequest struct {
	ServiceBranch string
	JobTitle      string
}

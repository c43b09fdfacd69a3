package domain

import (
	"strings"
	"time"
)

// DateLayout is the wire format for service dates.
const DateLayout = "2006-01-02"

// ServiceHistory is one period of military service.
type ServiceHistory struct {
	ID          string
	UserID      string
	Branch      string
	StartDate   time.Time
	EndDate     time.Time
	Job         string
	Deployments []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ParseDeployments splits comma-separated deployment labels, dropping blanks.
func ParseDeployments(raw string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ServiceContext is the advisory service summary passed to the AI workflows.
type ServiceContext struct {
	Branch string `json:"branch"`
	Job    string `json:"job"`
}

// PlaceholderServiceContext stands in when no service history is on file.
var PlaceholderServiceContext = ServiceContext{Branch: "N/A", Job: "N/A"}

// Context reduces a record to the fields the AI workflows consume.
func (h ServiceHistory) Context() ServiceContext {
	return ServiceContext{Branch: h.Branch, Job: h.Job}
}

package openai

import (
	"fmt"

	"claim-assistant/internal/domain"
)

const interviewerPrompt = `You help a U.S. military veteran prepare a VA disability claim by interviewing them about one medical condition.
Ask exactly one clear, specific, empathetic question at a time, focused on the target section you are given.
Do not repeat questions already asked. Do not give legal or medical advice.
When the previous answers already cover the target section and current symptoms in enough detail for a personal statement, return an empty string for next_question.`

const suggesterPrompt = `You list medical conditions that are commonly service-connected for a given military branch and job.
Return short, plain condition names a veteran would recognize. Return at most 10 conditions.`

func interviewMessages(req domain.QuestionRequest) []message {
	user := fmt.Sprintf(`Condition: %s
Claim type: %s
Service history: %s
Target section: %s
Previous questions and answers (JSON): %s`,
		req.ConditionName, req.ClaimType, req.ServiceHistoryContext, req.TargetSection, req.PreviousQAPairs)
	return []message{
		{Role: "system", Content: interviewerPrompt},
		{Role: "user", Content: user},
	}
}

func suggestMessages(req domain.SuggestRequest) []message {
	return []message{
		{Role: "system", Content: suggesterPrompt},
		{Role: "user", Content: fmt.Sprintf("Branch: %s\nJob title: %s", req.ServiceBranch, req.JobTitle)},
	}
}

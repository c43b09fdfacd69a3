package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"claim-assistant/internal/domain"
)

func interviewPrefix(conditionID string) string {
	return skInterview + conditionID + "#"
}

// interviewSK zero-pads the sequence so lexical SK order matches numeric
// order.
func interviewSK(conditionID string, sequence int) string {
	return fmt.Sprintf("%s%08d", interviewPrefix(conditionID), sequence)
}

// ListInterview returns the condition's interview ascending by sequence.
func (c *Client) ListInterview(ctx context.Context, userID, conditionID string) ([]domain.InterviewResponse, error) {
	items, err := c.queryPrefix(ctx, userID, interviewPrefix(conditionID), true)
	if err != nil {
		return nil, fmt.Errorf("repository: ListInterview query: %w", err)
	}
	out := make([]domain.InterviewResponse, 0, len(items))
	for _, item := range items {
		r, err := itemToInterview(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListInterview unmarshal: %w", err)
		}
		out = append(out, r)
	}
	return out, nil
}

// AnswerQuestion sets the answer of an existing, unanswered row. It returns
// domain.ErrAlreadyAnswered when the row is missing or already answered.
func (c *Client) AnswerQuestion(ctx context.Context, userID, conditionID string, sequence int, answer string, at time.Time) error {
	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 itemKey(userID, interviewSK(conditionID, sequence)),
		UpdateExpression:    aws.String("SET answer = :answer, updatedAt = :updatedAt"),
		ConditionExpression: aws.String("attribute_exists(PK) AND attribute_not_exists(answer)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":answer":    strVal(answer),
			":updatedAt": timeVal(at),
		},
	})
	if isConditionFailed(err) {
		return domain.ErrAlreadyAnswered
	}
	if err != nil {
		return fmt.Errorf("repository: AnswerQuestion: %w", err)
	}
	return nil
}

// AppendQuestion inserts a new open question. It returns
// domain.ErrDuplicate when the sequence number is taken.
func (c *Client) AppendQuestion(ctx context.Context, r domain.InterviewResponse) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                interviewItem(r),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if isConditionFailed(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("repository: AppendQuestion: %w", err)
	}
	return nil
}

func interviewItem(r domain.InterviewResponse) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":          strVal(userPK(r.UserID)),
		"SK":          strVal(interviewSK(r.ConditionID, r.Sequence)),
		"entity":      strVal("interview_response"),
		"userId":      strVal(r.UserID),
		"conditionId": strVal(r.ConditionID),
		"seq":         numVal(int64(r.Sequence)),
		"question":    strVal(r.Question),
		"createdAt":   timeVal(r.CreatedAt),
		"updatedAt":   timeVal(r.UpdatedAt),
	}
	if r.Answer != nil {
		item["answer"] = strVal(*r.Answer)
	}
	return item
}

func itemToInterview(item map[string]types.AttributeValue) (domain.InterviewResponse, error) {
	var r domain.InterviewResponse
	var err error
	if r.UserID, err = strAttr(item, "userId"); err != nil {
		return r, err
	}
	if r.ConditionID, err = strAttr(item, "conditionId"); err != nil {
		return r, err
	}
	seq, err := intAttr(item, "seq")
	if err != nil {
		return r, err
	}
	r.Sequence = int(seq)
	if r.Question, err = strAttr(item, "question"); err != nil {
		return r, err
	}
	if r.Answer, err = optStrAttr(item, "answer"); err != nil {
		return r, err
	}
	if r.CreatedAt, err = timeAttr(item, "createdAt"); err != nil {
		return r, err
	}
	if r.UpdatedAt, err = timeAttr(item, "updatedAt"); err != nil {
		return r, err
	}
	return r, nil
}

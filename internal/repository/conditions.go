package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"claim-assistant/internal/domain"
)

func conditionSK(conditionID string) string {
	return skCondition + conditionID
}

// conditionNameSK guards (user, name) uniqueness; names compare
// case-insensitively.
func conditionNameSK(name string) string {
	return skConditionName + strings.ToLower(strings.TrimSpace(name))
}

// ListConditions returns the user's conditions oldest first.
func (c *Client) ListConditions(ctx context.Context, userID string) ([]domain.Condition, error) {
	items, err := c.queryPrefix(ctx, userID, skCondition, true)
	if err != nil {
		return nil, fmt.Errorf("repository: ListConditions query: %w", err)
	}
	out := make([]domain.Condition, 0, len(items))
	for _, item := range items {
		cond, err := itemToCondition(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListConditions unmarshal: %w", err)
		}
		out = append(out, cond)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (c *Client) GetCondition(ctx context.Context, userID, conditionID string) (domain.Condition, error) {
	item, err := c.getItem(ctx, userID, conditionSK(conditionID))
	if err != nil {
		return domain.Condition{}, fmt.Errorf("repository: GetCondition: %w", err)
	}
	if item == nil {
		return domain.Condition{}, domain.ErrNotFound
	}
	cond, err := itemToCondition(item)
	if err != nil {
		return domain.Condition{}, fmt.Errorf("repository: GetCondition unmarshal: %w", err)
	}
	return cond, nil
}

// AddConditions writes each condition together with its name guard in one
// transaction. A condition whose name is taken is skipped.
func (c *Client) AddConditions(ctx context.Context, userID string, conditions []domain.Condition) error {
	for _, cond := range conditions {
		cond.UserID = userID
		_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
			TransactItems: []types.TransactWriteItem{
				{
					Put: &types.Put{
						TableName:           aws.String(c.tableName),
						Item:                conditionNameItem(cond),
						ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
					},
				},
				{
					Put: &types.Put{
						TableName:           aws.String(c.tableName),
						Item:                conditionItem(cond),
						ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
					},
				},
			},
		})
		if isTxConditionFailed(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("repository: AddConditions: %w", err)
		}
	}
	return nil
}

// DeleteCondition removes the condition, its name guard and its interview
// history.
func (c *Client) DeleteCondition(ctx context.Context, userID, conditionID string) error {
	cond, err := c.GetCondition(ctx, userID, conditionID)
	if err != nil {
		return err
	}
	_, err = c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				Delete: &types.Delete{
					TableName:           aws.String(c.tableName),
					Key:                 itemKey(userID, conditionSK(conditionID)),
					ConditionExpression: aws.String("attribute_exists(PK)"),
				},
			},
			{
				Delete: &types.Delete{
					TableName: aws.String(c.tableName),
					Key:       itemKey(userID, conditionNameSK(cond.Name)),
				},
			},
		},
	})
	if isTxConditionFailed(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("repository: DeleteCondition: %w", err)
	}

	items, err := c.queryPrefix(ctx, userID, interviewPrefix(conditionID), true)
	if err != nil {
		return fmt.Errorf("repository: DeleteCondition interview query: %w", err)
	}
	for _, item := range items {
		sk, err := strAttr(item, "SK")
		if err != nil {
			return fmt.Errorf("repository: DeleteCondition: %w", err)
		}
		if _, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
			TableName: aws.String(c.tableName),
			Key:       itemKey(userID, sk),
		}); err != nil {
			return fmt.Errorf("repository: DeleteCondition interview item: %w", err)
		}
	}
	return nil
}

func conditionItem(cond domain.Condition) map[string]types.AttributeValue {
	item := map[string]types.AttributeValue{
		"PK":        strVal(userPK(cond.UserID)),
		"SK":        strVal(conditionSK(cond.ID)),
		"entity":    strVal("condition"),
		"id":        strVal(cond.ID),
		"userId":    strVal(cond.UserID),
		"name":      strVal(cond.Name),
		"claimType": strVal(string(cond.ClaimType)),
		"status":    strVal(cond.Status),
		"createdAt": timeVal(cond.CreatedAt),
	}
	if cond.DiagnosticCode != "" {
		item["diagnosticCode"] = strVal(cond.DiagnosticCode)
	}
	return item
}

func conditionNameItem(cond domain.Condition) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":          strVal(userPK(cond.UserID)),
		"SK":          strVal(conditionNameSK(cond.Name)),
		"entity":      strVal("condition_name"),
		"conditionId": strVal(cond.ID),
	}
}

func itemToCondition(item map[string]types.AttributeValue) (domain.Condition, error) {
	id, err := strAttr(item, "id")
	if err != nil {
		return domain.Condition{}, err
	}
	userID, err := strAttr(item, "userId")
	if err != nil {
		return domain.Condition{}, err
	}
	name, err := strAttr(item, "name")
	if err != nil {
		return domain.Condition{}, err
	}
	claimType, _ := strAttr(item, "claimType") // older rows default to Primary
	parsed, err := domain.ParseClaimType(claimType)
	if err != nil {
		return domain.Condition{}, err
	}
	createdAt, err := timeAttr(item, "createdAt")
	if err != nil {
		return domain.Condition{}, err
	}
	status, _ := strAttr(item, "status")
	if status == "" {
		status = domain.ConditionStatusConfirmed
	}
	code, _ := strAttr(item, "diagnosticCode")
	return domain.Condition{
		ID:             id,
		UserID:         userID,
		Name:           name,
		ClaimType:      parsed,
		DiagnosticCode: code,
		Status:         status,
		CreatedAt:      createdAt,
	}, nil
}

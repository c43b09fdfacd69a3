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

// serviceSK sorts records by end date so a descending query yields the most
// recently ended period first.
func serviceSK(h domain.ServiceHistory) string {
	return skService + h.EndDate.Format(domain.DateLayout) + "#" + h.ID
}

func (c *Client) AddServiceHistory(ctx context.Context, h domain.ServiceHistory) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                serviceItem(h),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: AddServiceHistory: %w", err)
	}
	return nil
}

// ListServiceHistory returns the user's records by end date, newest first.
func (c *Client) ListServiceHistory(ctx context.Context, userID string) ([]domain.ServiceHistory, error) {
	items, err := c.queryPrefix(ctx, userID, skService, false)
	if err != nil {
		return nil, fmt.Errorf("repository: ListServiceHistory query: %w", err)
	}
	out := make([]domain.ServiceHistory, 0, len(items))
	for _, item := range items {
		h, err := itemToService(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListServiceHistory unmarshal: %w", err)
		}
		out = append(out, h)
	}
	return out, nil
}

// LatestServiceHistory returns the most recently ended record or
// domain.ErrNotFound.
func (c *Client) LatestServiceHistory(ctx context.Context, userID string) (domain.ServiceHistory, error) {
	out, err := c.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     strVal(userPK(userID)),
			":prefix": strVal(skService),
		},
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(1),
	})
	if err != nil {
		return domain.ServiceHistory{}, fmt.Errorf("repository: LatestServiceHistory query: %w", err)
	}
	if out == nil || len(out.Items) == 0 {
		return domain.ServiceHistory{}, domain.ErrNotFound
	}
	h, err := itemToService(out.Items[0])
	if err != nil {
		return domain.ServiceHistory{}, fmt.Errorf("repository: LatestServiceHistory unmarshal: %w", err)
	}
	return h, nil
}

func serviceItem(h domain.ServiceHistory) map[string]types.AttributeValue {
	deployments := make([]types.AttributeValue, 0, len(h.Deployments))
	for _, d := range h.Deployments {
		deployments = append(deployments, strVal(d))
	}
	return map[string]types.AttributeValue{
		"PK":          strVal(userPK(h.UserID)),
		"SK":          strVal(serviceSK(h)),
		"entity":      strVal("service_history"),
		"id":          strVal(h.ID),
		"userId":      strVal(h.UserID),
		"branch":      strVal(h.Branch),
		"startDate":   strVal(h.StartDate.Format(domain.DateLayout)),
		"endDate":     strVal(h.EndDate.Format(domain.DateLayout)),
		"job":         strVal(h.Job),
		"deployments": &types.AttributeValueMemberL{Value: deployments},
		"createdAt":   timeVal(h.CreatedAt),
		"updatedAt":   timeVal(h.UpdatedAt),
	}
}

func itemToService(item map[string]types.AttributeValue) (domain.ServiceHistory, error) {
	var h domain.ServiceHistory
	var err error
	if h.ID, err = strAttr(item, "id"); err != nil {
		return h, err
	}
	if h.UserID, err = strAttr(item, "userId"); err != nil {
		return h, err
	}
	if h.Branch, err = strAttr(item, "branch"); err != nil {
		return h, err
	}
	if h.Job, err = strAttr(item, "job"); err != nil {
		return h, err
	}
	if h.StartDate, err = dateAttr(item, "startDate"); err != nil {
		return h, err
	}
	if h.EndDate, err = dateAttr(item, "endDate"); err != nil {
		return h, err
	}
	if h.Deployments, err = listAttr(item, "deployments"); err != nil {
		return h, err
	}
	if h.CreatedAt, err = timeAttr(item, "createdAt"); err != nil {
		return h, err
	}
	if h.UpdatedAt, err = timeAttr(item, "updatedAt"); err != nil {
		return h, err
	}
	return h, nil
}

func dateAttr(item map[string]types.AttributeValue, key string) (time.Time, error) {
	v, err := strAttr(item, key)
	if err != nil {
		return time.Time{}, err
	}
	t, err := time.Parse(domain.DateLayout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return t, nil
}

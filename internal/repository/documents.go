package repository

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"claim-assistant/internal/domain"
)

func documentSK(documentID string) string {
	return skDocument + documentID
}

func (c *Client) CreateDocument(ctx context.Context, d domain.Document) error {
	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                documentItem(d),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if isConditionFailed(err) {
		return domain.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("repository: CreateDocument: %w", err)
	}
	return nil
}

// ListDocuments returns the user's documents newest first.
func (c *Client) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	items, err := c.queryPrefix(ctx, userID, skDocument, true)
	if err != nil {
		return nil, fmt.Errorf("repository: ListDocuments query: %w", err)
	}
	out := make([]domain.Document, 0, len(items))
	for _, item := range items {
		d, err := itemToDocument(item)
		if err != nil {
			return nil, fmt.Errorf("repository: ListDocuments unmarshal: %w", err)
		}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (c *Client) GetDocument(ctx context.Context, userID, documentID string) (domain.Document, error) {
	item, err := c.getItem(ctx, userID, documentSK(documentID))
	if err != nil {
		return domain.Document{}, fmt.Errorf("repository: GetDocument: %w", err)
	}
	if item == nil {
		return domain.Document{}, domain.ErrNotFound
	}
	d, err := itemToDocument(item)
	if err != nil {
		return domain.Document{}, fmt.Errorf("repository: GetDocument unmarshal: %w", err)
	}
	return d, nil
}

// MarkDocumentUploaded flips a pending document to uploaded and stamps the
// completion time.
func (c *Client) MarkDocumentUploaded(ctx context.Context, userID, documentID string, at time.Time) error {
	_, err := c.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 itemKey(userID, documentSK(documentID)),
		UpdateExpression:    aws.String("SET uploadStatus = :status, uploadedAt = :uploadedAt"),
		ConditionExpression: aws.String("attribute_exists(PK)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":status":     strVal(domain.DocumentStatusUploaded),
			":uploadedAt": timeVal(at),
		},
	})
	if isConditionFailed(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("repository: MarkDocumentUploaded: %w", err)
	}
	return nil
}

func (c *Client) DeleteDocument(ctx context.Context, userID, documentID string) error {
	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(c.tableName),
		Key:                 itemKey(userID, documentSK(documentID)),
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if isConditionFailed(err) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("repository: DeleteDocument: %w", err)
	}
	return nil
}

func documentItem(d domain.Document) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":           strVal(userPK(d.UserID)),
		"SK":           strVal(documentSK(d.ID)),
		"entity":       strVal("document"),
		"id":           strVal(d.ID),
		"userId":       strVal(d.UserID),
		"fileName":     strVal(d.FileName),
		"storageKey":   strVal(d.StorageKey),
		"mimeType":     strVal(d.MimeType),
		"sizeBytes":    numVal(d.SizeBytes),
		"uploadStatus": strVal(d.Status),
		"uploadedAt":   timeVal(d.UploadedAt),
	}
}

func itemToDocument(item map[string]types.AttributeValue) (domain.Document, error) {
	var d domain.Document
	var err error
	if d.ID, err = strAttr(item, "id"); err != nil {
		return d, err
	}
	if d.UserID, err = strAttr(item, "userId"); err != nil {
		return d, err
	}
	if d.FileName, err = strAttr(item, "fileName"); err != nil {
		return d, err
	}
	if d.StorageKey, err = strAttr(item, "storageKey"); err != nil {
		return d, err
	}
	if d.MimeType, err = strAttr(item, "mimeType"); err != nil {
		return d, err
	}
	if d.SizeBytes, err = intAttr(item, "sizeBytes"); err != nil {
		return d, err
	}
	if d.UploadedAt, err = timeAttr(item, "uploadedAt"); err != nil {
		return d, err
	}
	// Items written before upload tracking have no status and were complete.
	status, err := optStrAttr(item, "uploadStatus")
	if err != nil {
		return d, err
	}
	d.Status = domain.DocumentStatusUploaded
	if status != nil {
		d.Status = *status
	}
	return d, nil
}

// Package queue publishes document events to SQS for downstream processing.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"claim-assistant/internal/domain"
)

type sqsAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// DocumentMessage is the body of a document-uploaded event.
type DocumentMessage struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	StorageKey string `json:"storage_key"`
	MimeType   string `json:"mime_type"`
	UploadedAt string `json:"uploaded_at"`
}

type Publisher struct {
	api      sqsAPI
	queueURL string
}

func New(api sqsAPI, queueURL string) (*Publisher, error) {
	if api == nil {
		return nil, errors.New("queue: sqs client must not be nil")
	}
	if strings.TrimSpace(queueURL) == "" {
		return nil, errors.New("queue: queue url must not be empty")
	}
	return &Publisher{api: api, queueURL: queueURL}, nil
}

func (p *Publisher) DocumentUploaded(ctx context.Context, d domain.Document) error {
	body, err := json.Marshal(DocumentMessage{
		DocumentID: d.ID,
		UserID:     d.UserID,
		StorageKey: d.StorageKey,
		MimeType:   d.MimeType,
		UploadedAt: d.UploadedAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("queue: marshal message: %w", err)
	}
	_, err = p.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"event": {DataType: aws.String("String"), StringValue: aws.String("document.uploaded")},
		},
	})
	if err != nil {
		return fmt.Errorf("queue: send message: %w", err)
	}
	return nil
}

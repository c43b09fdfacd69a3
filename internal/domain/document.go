package domain

import "time"

// Document statuses. A document is pending from the presign until the client
// confirms its PUT and the blob is seen in storage.
const (
	DocumentStatusPending  = "pending"
	DocumentStatusUploaded = "uploaded"
)

// Document is metadata for a supporting file held in object storage.
type Document struct {
	ID         string
	UserID     string
	FileName   string
	StorageKey string
	MimeType   string
	SizeBytes  int64
	Status     string
	UploadedAt time.Time
}

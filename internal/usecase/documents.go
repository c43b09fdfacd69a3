package usecase

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"claim-assistant/internal/domain"
	"claim-assistant/internal/logger"
)

const (
	defaultUploadURLTTL     = 15 * time.Minute
	defaultMaxDocumentBytes = 25 << 20
	maxFileNameLength       = 255
)

type DocumentStore interface {
	CreateDocument(ctx context.Context, d domain.Document) error
	ListDocuments(ctx context.Context, userID string) ([]domain.Document, error)
	GetDocument(ctx context.Context, userID, documentID string) (domain.Document, error)
	MarkDocumentUploaded(ctx context.Context, userID, documentID string, at time.Time) error
	DeleteDocument(ctx context.Context, userID, documentID string) error
}

// BlobStore holds document contents. Uploads go straight from the browser
// through a presigned URL.
type BlobStore interface {
	PresignUpload(ctx context.Context, key, contentType string, size int64, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type DocumentNotifier interface {
	DocumentUploaded(ctx context.Context, d domain.Document) error
}

type DocumentConfig struct {
	UploadURLTTL     time.Duration
	MaxDocumentBytes int64
	// Notifier is optional.
	Notifier DocumentNotifier
}

type DocumentService struct {
	store    DocumentStore
	blobs    BlobStore
	notifier DocumentNotifier
	log      *logger.Logger
	ttl      time.Duration
	maxBytes int64
	now      func() time.Time
}

type UploadInput struct {
	FileName  string
	MimeType  string
	SizeBytes int64
}

type UploadOutput struct {
	Document  domain.Document
	UploadURL string
	ExpiresAt time.Time
}

func NewDocumentService(store DocumentStore, blobs BlobStore, log *logger.Logger, cfg DocumentConfig) (*DocumentService, error) {
	if store == nil {
		return nil, errors.New("usecase: document store must not be nil")
	}
	if blobs == nil {
		return nil, errors.New("usecase: blob store must not be nil")
	}
	if log == nil {
		return nil, errors.New("usecase: logger must not be nil")
	}
	if cfg.UploadURLTTL <= 0 {
		cfg.UploadURLTTL = defaultUploadURLTTL
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = defaultMaxDocumentBytes
	}
	return &DocumentService{
		store:    store,
		blobs:    blobs,
		notifier: cfg.Notifier,
		log:      log.With("service", "DocumentService"),
		ttl:      cfg.UploadURLTTL,
		maxBytes: cfg.MaxDocumentBytes,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// CreateUpload records document metadata and returns a presigned PUT URL
// for the blob.
func (s *DocumentService) CreateUpload(ctx context.Context, userID string, in UploadInput) (UploadOutput, error) {
	if err := requireUser(userID); err != nil {
		return UploadOutput{}, err
	}
	name, err := cleanFileName(in.FileName)
	if err != nil {
		return UploadOutput{}, newError(ErrorInvalidInput, "invalid_file_name", err)
	}
	mimeType := strings.TrimSpace(in.MimeType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if in.SizeBytes <= 0 || in.SizeBytes > s.maxBytes {
		return UploadOutput{}, newError(ErrorInvalidInput, "invalid_file_size", nil)
	}

	now := s.now()
	id := newUUID()
	doc := domain.Document{
		ID:         id,
		UserID:     userID,
		FileName:   name,
		StorageKey: documentKey(userID, id, name),
		MimeType:   mimeType,
		SizeBytes:  in.SizeBytes,
		Status:     domain.DocumentStatusPending,
		UploadedAt: now,
	}

	url, err := s.blobs.PresignUpload(ctx, doc.StorageKey, doc.MimeType, doc.SizeBytes, s.ttl)
	if err != nil {
		return UploadOutput{}, newError(ErrorUpstream, "presign_error", err)
	}
	if err := s.store.CreateDocument(ctx, doc); err != nil {
		return UploadOutput{}, newError(ErrorInternal, "document_write_error", err)
	}

	s.log.Info("created document upload", "user_id", userID, "document_id", id, "size_bytes", doc.SizeBytes, "mime_type", doc.MimeType)
	return UploadOutput{Document: doc, UploadURL: url, ExpiresAt: now.Add(s.ttl)}, nil
}

// CompleteUpload is called by the client after its PUT to the presigned URL
// finishes. The uploaded event is published only once the blob is present,
// and only on the call that moves the document out of pending.
func (s *DocumentService) CompleteUpload(ctx context.Context, userID, documentID string) (domain.Document, error) {
	if err := requireUser(userID); err != nil {
		return domain.Document{}, err
	}
	id, err := parseID(documentID, "invalid_document_id")
	if err != nil {
		return domain.Document{}, err
	}
	doc, err := s.store.GetDocument(ctx, userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Document{}, newError(ErrorNotFound, "document_not_found", err)
		}
		return domain.Document{}, newError(ErrorInternal, "document_read_error", err)
	}
	if doc.Status == domain.DocumentStatusUploaded {
		return doc, nil
	}
	ok, err := s.blobs.Exists(ctx, doc.StorageKey)
	if err != nil {
		return domain.Document{}, newError(ErrorUpstream, "blob_check_error", err)
	}
	if !ok {
		return domain.Document{}, newError(ErrorConflict, "upload_not_found", nil)
	}
	now := s.now()
	if err := s.store.MarkDocumentUploaded(ctx, userID, id, now); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Document{}, newError(ErrorNotFound, "document_not_found", err)
		}
		return domain.Document{}, newError(ErrorInternal, "document_write_error", err)
	}
	doc.Status = domain.DocumentStatusUploaded
	doc.UploadedAt = now

	log := s.log.With("user_id", userID, "document_id", id)
	if s.notifier != nil {
		if err := s.notifier.DocumentUploaded(ctx, doc); err != nil {
			log.Warn("failed to publish document event", "err", err)
		}
	}
	log.Info("completed document upload")
	return doc, nil
}

func (s *DocumentService) ListDocuments(ctx context.Context, userID string) ([]domain.Document, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	docs, err := s.store.ListDocuments(ctx, userID)
	if err != nil {
		return nil, newError(ErrorInternal, "document_read_error", err)
	}
	return docs, nil
}

// DeleteDocument removes the blob first so metadata never outlives a
// deleted file.
func (s *DocumentService) DeleteDocument(ctx context.Context, userID, documentID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	id, err := parseID(documentID, "invalid_document_id")
	if err != nil {
		return err
	}
	doc, err := s.store.GetDocument(ctx, userID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return newError(ErrorNotFound, "document_not_found", err)
		}
		return newError(ErrorInternal, "document_read_error", err)
	}
	if err := s.blobs.Delete(ctx, doc.StorageKey); err != nil {
		return newError(ErrorUpstream, "blob_delete_error", err)
	}
	if err := s.store.DeleteDocument(ctx, userID, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return newError(ErrorNotFound, "document_not_found", err)
		}
		return newError(ErrorInternal, "document_delete_error", err)
	}
	s.log.Info("deleted document", "user_id", userID, "document_id", id)
	return nil
}

func cleanFileName(raw string) (string, error) {
	name := strings.TrimSpace(strings.ReplaceAll(raw, "\\", "/"))
	name = path.Base(name)
	if name == "" || name == "." || name == "/" || name == ".." {
		return "", errors.New("file name is empty")
	}
	if len(name) > maxFileNameLength {
		return "", fmt.Errorf("file name exceeds %d bytes", maxFileNameLength)
	}
	return name, nil
}

func documentKey(userID, documentID, fileName string) string {
	return "users/" + userID + "/documents/" + documentID + "/" + fileName
}

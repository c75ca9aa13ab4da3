package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/reconcile/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ObjectStorageService abstracts the object store used for return evidence
// photos. Implementations generate presigned URLs so clients upload and
// download directly without the payload passing through this service.
type ObjectStorageService interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// Evidence content types accepted for return photos
var evidenceContentTypes = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

// EvidenceUploadRequest asks for a presigned upload slot for one evidence file
type EvidenceUploadRequest struct {
	OrderID     uuid.UUID `json:"order_id" binding:"required"`
	ContentType string    `json:"content_type" binding:"required"`
}

// EvidenceUploadResponse carries the presigned upload URL and the storage
// key to reference in a subsequent return or replace request
type EvidenceUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// EvidenceDownloadResponse carries a presigned download URL
type EvidenceDownloadResponse struct {
	StorageKey string    `json:"storage_key"`
	URL        string    `json:"url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// EvidenceService issues presigned URLs for evidence photos attached to
// return and replace entries
type EvidenceService struct {
	storage ObjectStorageService
	logger  *zap.Logger
}

// NewEvidenceService creates a new EvidenceService
func NewEvidenceService(storage ObjectStorageService, logger *zap.Logger) *EvidenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvidenceService{storage: storage, logger: logger}
}

// RequestUpload generates a presigned upload URL for one evidence file.
// The returned storage key is what callers pass as evidence_key on
// return and replace operations.
func (s *EvidenceService) RequestUpload(ctx context.Context, req EvidenceUploadRequest) (*EvidenceUploadResponse, error) {
	ext, ok := evidenceContentTypes[req.ContentType]
	if !ok {
		return nil, shared.NewDomainError("UNSUPPORTED_CONTENT_TYPE",
			fmt.Sprintf("Content type %s is not accepted as return evidence", req.ContentType))
	}
	if req.OrderID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORDER_ID", "Order ID is required")
	}

	storageKey := fmt.Sprintf("evidence/%s/%s%s", req.OrderID, uuid.NewString(), ext)

	url, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, req.ContentType, 0)
	if err != nil {
		s.logger.Error("failed to generate evidence upload URL",
			zap.String("order_id", req.OrderID.String()),
			zap.Error(err))
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &EvidenceUploadResponse{
		StorageKey: storageKey,
		UploadURL:  url,
		ExpiresAt:  expiresAt,
	}, nil
}

// DownloadURL generates a presigned download URL for a stored evidence file.
// Returns ErrNotFound when nothing was uploaded under the key.
func (s *EvidenceService) DownloadURL(ctx context.Context, storageKey string) (*EvidenceDownloadResponse, error) {
	if storageKey == "" {
		return nil, shared.NewDomainError("INVALID_STORAGE_KEY", "Storage key is required")
	}

	exists, err := s.storage.ObjectExists(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check evidence object: %w", err)
	}
	if !exists {
		return nil, shared.ErrNotFound
	}

	url, expiresAt, err := s.storage.GenerateDownloadURL(ctx, storageKey, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to generate download URL: %w", err)
	}

	return &EvidenceDownloadResponse{
		StorageKey: storageKey,
		URL:        url,
		ExpiresAt:  expiresAt,
	}, nil
}

// VerifyUploaded reports whether an evidence object is actually present.
// Mutations referencing an evidence key call this before recording it.
func (s *EvidenceService) VerifyUploaded(ctx context.Context, storageKey string) (bool, error) {
	if storageKey == "" {
		return false, nil
	}
	return s.storage.ObjectExists(ctx, storageKey)
}

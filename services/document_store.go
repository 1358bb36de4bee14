package services

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/repository"
	"relief-claims-api/storage"
	"relief-claims-api/utils"
)

var allowedDocumentTypes = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// DocumentUpload describes one evidence file handed to the store.
type DocumentUpload struct {
	Category models.DocumentCategory
	FileName string
	Size     int64
	MimeType string
	Body     io.Reader
}

// DocumentStore keeps at most one current document per (claim, category).
// Replacement swaps the slot pointer in one transaction, so lookups always
// see exactly one current document.
type DocumentStore struct {
	store    repository.Store
	blobs    storage.BlobStore
	maxBytes int64
	retry    RetryPolicy
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewDocumentStore(store repository.Store, blobs storage.BlobStore, maxBytes int64, retry RetryPolicy, log logrus.FieldLogger) *DocumentStore {
	if maxBytes <= 0 {
		maxBytes = 10 * 1024 * 1024
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &DocumentStore{
		store:    store,
		blobs:    blobs,
		maxBytes: maxBytes,
		retry:    retry,
		log:      log,
		now:      time.Now,
	}
}

func (d *DocumentStore) validate(up DocumentUpload) (string, error) {
	var fields []apperrors.FieldError
	if !up.Category.Valid() {
		fields = append(fields, apperrors.FieldError{Field: "category", Message: "must be finding-report or post-mortem-report"})
	}
	ext := strings.ToLower(filepath.Ext(up.FileName))
	if strings.TrimSpace(up.FileName) == "" {
		fields = append(fields, apperrors.FieldError{Field: "file", Message: "is required"})
	} else if !allowedDocumentTypes[ext] {
		fields = append(fields, apperrors.FieldError{Field: "file", Message: "file type not allowed"})
	}
	if up.Size <= 0 {
		fields = append(fields, apperrors.FieldError{Field: "file", Message: "file is empty"})
	} else if up.Size > d.maxBytes {
		fields = append(fields, apperrors.FieldError{Field: "file", Message: "file size exceeds limit"})
	}
	if up.Body == nil {
		fields = append(fields, apperrors.FieldError{Field: "file", Message: "has no content"})
	}
	if len(fields) > 0 {
		return "", apperrors.Validation("invalid document", fields...)
	}
	return ext, nil
}

// ClaimGuard vets the claim as read inside the upload transaction.
type ClaimGuard func(claim *models.Claim) error

// Upload stores the bytes, then makes the new document current for its
// category. The previous current document, if any, is marked superseded.
// A non-nil guard runs against the claim in the same transaction, so the
// upload cannot land on a claim that changed after the caller checked it.
func (d *DocumentStore) Upload(ctx context.Context, claimID string, up DocumentUpload, uploader models.Identity, guard ClaimGuard) (*models.Document, error) {
	ext, err := d.validate(up)
	if err != nil {
		return nil, err
	}

	doc := &models.Document{
		DocumentID: uuid.NewString(),
		ClaimID:    claimID,
		Category:   up.Category,
		FileName:   utils.SafeFileName(up.FileName),
		FileSize:   up.Size,
		MimeType:   up.MimeType,
		UploadedBy: uploader.ID,
	}
	doc.StorageKey = storage.DocumentKey(claimID, string(up.Category), doc.DocumentID, ext)

	if err := d.blobs.Put(ctx, doc.StorageKey, up.Body, up.Size, up.MimeType); err != nil {
		return nil, apperrors.Storage(err, "failed to save file")
	}

	err = d.retry.Run(ctx, func() error {
		doc.CreatedAt = d.now()
		return d.store.WithinTx(ctx, func(tx repository.Store) error {
			if guard != nil {
				claim, err := tx.Claims().Get(ctx, claimID)
				if err != nil {
					return repoError(err, "claim", claimID)
				}
				if err := guard(claim); err != nil {
					return err
				}
			}
			return d.makeCurrent(ctx, tx, doc)
		})
	})
	if err != nil {
		if delErr := d.blobs.Delete(context.WithoutCancel(ctx), doc.StorageKey); delErr != nil {
			d.log.WithError(delErr).WithField("storage_key", doc.StorageKey).Warn("Failed to remove orphaned upload")
		}
		return nil, repoError(err, "document slot", claimID+"/"+string(up.Category))
	}
	return doc, nil
}

func (d *DocumentStore) makeCurrent(ctx context.Context, tx repository.Store, doc *models.Document) error {
	docs := tx.Documents()
	if err := docs.Insert(ctx, doc); err != nil {
		return err
	}

	slot, err := docs.Slot(ctx, doc.ClaimID, doc.Category)
	if errors.Is(err, repository.ErrNotFound) {
		return docs.CreateSlot(ctx, &models.DocumentSlot{
			ClaimID:    doc.ClaimID,
			Category:   doc.Category,
			DocumentID: doc.DocumentID,
			UpdatedAt:  doc.CreatedAt,
		})
	}
	if err != nil {
		return err
	}

	if err := docs.SwapSlot(ctx, doc.ClaimID, doc.Category, slot.Version, doc.DocumentID, doc.CreatedAt); err != nil {
		return err
	}
	return docs.MarkSuperseded(ctx, slot.DocumentID, doc.DocumentID, doc.CreatedAt)
}

// ListCurrent returns one document per category that has been uploaded.
func (d *DocumentStore) ListCurrent(ctx context.Context, claimID string) ([]models.Document, error) {
	docs, err := d.store.Documents().ListCurrent(ctx, claimID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list documents")
	}
	return docs, nil
}

// Open returns a document's metadata and content. Superseded documents stay
// readable for audit.
func (d *DocumentStore) Open(ctx context.Context, claimID, documentID string) (*models.Document, io.ReadCloser, error) {
	doc, err := d.store.Documents().Get(ctx, documentID)
	if err != nil {
		return nil, nil, repoError(err, "document", documentID)
	}
	if doc.ClaimID != claimID {
		return nil, nil, apperrors.NotFound("document", documentID)
	}

	body, err := d.blobs.Get(ctx, doc.StorageKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, apperrors.NotFound("document file", documentID)
	}
	if err != nil {
		return nil, nil, apperrors.Storage(err, "failed to read document")
	}
	return doc, body, nil
}

// Package repository isolates claim, ledger, document and officer persistence
// behind interfaces so the workflow engine runs against MySQL or memory alike.
package repository

import (
	"context"
	"errors"
	"time"

	"relief-claims-api/models"
)

// Common repository errors.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a compare-and-set precondition no longer holds
	// or a unique key is already taken.
	ErrConflict = errors.New("record changed concurrently")
)

// Store groups the repositories and runs units of work atomically.
type Store interface {
	Claims() ClaimRepository
	Approvals() ApprovalRepository
	Documents() DocumentRepository
	History() HistoryRepository
	Officers() OfficerRepository

	// WithinTx runs fn against a transactional view of the store. Every write
	// made through tx is committed when fn returns nil and discarded otherwise.
	WithinTx(ctx context.Context, fn func(tx Store) error) error
}

// ClaimState is the compare-and-set precondition for a claim update.
type ClaimState struct {
	Status  models.ClaimStatus
	Role    models.Role
	Version int
}

// ClaimUpdate is the mutable part of a claim written by CompareAndSet.
type ClaimUpdate struct {
	Status      models.ClaimStatus
	Role        models.Role
	UpdatedAt   time.Time
	SubmittedAt *time.Time
}

type ClaimRepository interface {
	Create(ctx context.Context, claim *models.Claim) error
	Get(ctx context.Context, claimID string) (*models.Claim, error)
	// CompareAndSet applies update and bumps the version only if the stored
	// claim still matches expect; otherwise it returns ErrConflict.
	CompareAndSet(ctx context.Context, claimID string, expect ClaimState, update ClaimUpdate) error
	// List returns claims matching any of the clauses, newest first.
	List(ctx context.Context, anyOf []models.ClaimMatch) ([]models.Claim, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int64, error)
}

type ApprovalRepository interface {
	Append(ctx context.Context, record *models.Approval) error
	// ListFor returns records for a claim in the order they were recorded.
	ListFor(ctx context.Context, claimID string) ([]models.Approval, error)
}

type DocumentRepository interface {
	Insert(ctx context.Context, doc *models.Document) error
	Get(ctx context.Context, documentID string) (*models.Document, error)
	Slot(ctx context.Context, claimID string, category models.DocumentCategory) (*models.DocumentSlot, error)
	// CreateSlot claims an empty (claim, category) slot; ErrConflict if taken.
	CreateSlot(ctx context.Context, slot *models.DocumentSlot) error
	// SwapSlot points the slot at documentID if its version is still expectVersion.
	SwapSlot(ctx context.Context, claimID string, category models.DocumentCategory, expectVersion int, documentID string, at time.Time) error
	MarkSuperseded(ctx context.Context, documentID, supersededBy string, at time.Time) error
	ListCurrent(ctx context.Context, claimID string) ([]models.Document, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, entry *models.ClaimStatusHistory) error
	ListFor(ctx context.Context, claimID string) ([]models.ClaimStatusHistory, error)
}

type OfficerRepository interface {
	Create(ctx context.Context, officer *models.Officer) error
	Get(ctx context.Context, officerID string) (*models.Officer, error)
	GetByEmail(ctx context.Context, email string) (*models.Officer, error)
	ListByRole(ctx context.Context, role models.Role) ([]models.Officer, error)
	Update(ctx context.Context, officer *models.Officer) error
}

package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/repository"
)

// ApprovalLedger is the append-only decision trail. It is never consulted to
// decide whether an action is allowed.
type ApprovalLedger struct {
	store repository.Store
	now   func() time.Time
}

func NewApprovalLedger(store repository.Store) *ApprovalLedger {
	return &ApprovalLedger{store: store, now: time.Now}
}

func (l *ApprovalLedger) With(tx repository.Store) *ApprovalLedger {
	return &ApprovalLedger{store: tx, now: l.now}
}

// Record appends one decision by actor on claimID.
func (l *ApprovalLedger) Record(ctx context.Context, claimID string, actor models.Identity, approved bool, notes string) (*models.Approval, error) {
	record := &models.Approval{
		ApprovalID: uuid.NewString(),
		ClaimID:    claimID,
		ApprovedBy: actor.ID,
		Role:       actor.Role,
		Approved:   approved,
		CreatedAt:  l.now(),
	}
	if notes != "" {
		record.Notes = &notes
	}
	if err := l.Append(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (l *ApprovalLedger) Append(ctx context.Context, record *models.Approval) error {
	if err := l.store.Approvals().Append(ctx, record); err != nil {
		return apperrors.Storage(err, "failed to append approval record")
	}
	return nil
}

// ListFor returns the records for claimID, oldest first.
func (l *ApprovalLedger) ListFor(ctx context.Context, claimID string) ([]models.Approval, error) {
	records, err := l.store.Approvals().ListFor(ctx, claimID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list approval records")
	}
	return records, nil
}

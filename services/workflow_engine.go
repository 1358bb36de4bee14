package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/policy"
	"relief-claims-api/repository"
)

// PaymentApprovedNote is recorded when the origin role confirms payment
// without notes of its own.
const PaymentApprovedNote = "Payment processed and approved by Tehsildar"

// ClaimView is a claim plus the workflow facts a caller needs to render it.
type ClaimView struct {
	models.Claim
	NextRole *models.Role `json:"next_role,omitempty"`
	Terminal bool         `json:"terminal"`
}

func newClaimView(c models.Claim) *ClaimView {
	v := &ClaimView{Claim: c, Terminal: policy.IsTerminal(c.Status)}
	if !v.Terminal && c.Status != models.StatusPaymentReady && c.Status != models.StatusDraft {
		if next, ok := policy.NextRole(c.CurrentRole); ok {
			v.NextRole = &next
		}
	}
	return v
}

// ActionRequest asks the engine to approve or reject a claim. When
// ExpectedVersion is set the action only applies to that exact version of
// the claim; a newer version fails with a conflict instead of being retried.
type ActionRequest struct {
	ClaimID         string
	Actor           models.Identity
	Action          models.Action
	Notes           string
	ExpectedVersion *int
}

type EngineOptions struct {
	Retry             RetryPolicy
	RequiredDocuments []models.DocumentCategory
	Notifier          Notifier
	Metrics           *Metrics
	Logger            logrus.FieldLogger
}

// WorkflowEngine is the only writer of claim state. Each operation loads the
// claim, validates against the role chain and commits the claim update with
// its ledger and history rows in one transaction.
type WorkflowEngine struct {
	store     repository.Store
	registry  *ClaimRegistry
	ledger    *ApprovalLedger
	documents *DocumentStore
	opts      EngineOptions
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewWorkflowEngine(store repository.Store, documents *DocumentStore, opts EngineOptions) *WorkflowEngine {
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &WorkflowEngine{
		store:     store,
		registry:  NewClaimRegistry(store),
		ledger:    NewApprovalLedger(store),
		documents: documents,
		opts:      opts,
		log:       log.WithField("component", "workflow"),
		now:       time.Now,
	}
}

// CreateClaim stores a new draft. Only the origin role may create claims.
func (e *WorkflowEngine) CreateClaim(ctx context.Context, in ClaimInput, actor models.Identity) (*ClaimView, error) {
	if actor.Role != policy.Origin() {
		return nil, apperrors.Forbidden("only %s may create claims", policy.Origin())
	}

	var claim *models.Claim
	err := e.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		if claim, err = e.registry.With(tx).Create(ctx, in, actor); err != nil {
			return err
		}
		return e.recordHistory(ctx, tx, claim, nil, nil, actor, "")
	})
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{"claim_id": claim.ClaimID, "claim_number": claim.ClaimNumber}).Info("Claim created")
	return newClaimView(*claim), nil
}

// SubmitClaim sends a draft to the first reviewer.
func (e *WorkflowEngine) SubmitClaim(ctx context.Context, claimID string, actor models.Identity) (*ClaimView, error) {
	if actor.Role != policy.Origin() {
		return nil, apperrors.Forbidden("only %s may submit claims", policy.Origin())
	}

	var claim *models.Claim
	err := e.withRetry(ctx, "submit", false, func() error {
		var err error
		if claim, err = e.registry.Get(ctx, claimID); err != nil {
			return err
		}
		if claim.CreatedBy != actor.ID {
			return apperrors.Forbidden("claim %s belongs to another officer", claim.ClaimNumber)
		}
		if claim.Status != models.StatusDraft {
			return apperrors.InvalidState("claim %s is %s; only drafts can be submitted", claim.ClaimNumber, claim.Status)
		}
		if err := e.checkRequiredDocuments(ctx, claim.ClaimID); err != nil {
			return err
		}

		before := *claim
		return e.store.WithinTx(ctx, func(tx repository.Store) error {
			if err := e.registry.With(tx).Submit(ctx, claim); err != nil {
				return err
			}
			return e.recordHistory(ctx, tx, claim, &before.Status, &before.CurrentRole, actor, "")
		})
	})
	if err != nil {
		return nil, err
	}

	e.opts.Notifier.ClaimChanged(*claim)
	return newClaimView(*claim), nil
}

func (e *WorkflowEngine) checkRequiredDocuments(ctx context.Context, claimID string) error {
	if len(e.opts.RequiredDocuments) == 0 || e.documents == nil {
		return nil
	}
	current, err := e.documents.ListCurrent(ctx, claimID)
	if err != nil {
		return err
	}
	have := make(map[models.DocumentCategory]bool, len(current))
	for _, d := range current {
		have[d.Category] = true
	}

	var missing []apperrors.FieldError
	for _, category := range e.opts.RequiredDocuments {
		if !have[category] {
			missing = append(missing, apperrors.FieldError{Field: string(category), Message: "document is required before submission"})
		}
	}
	if len(missing) > 0 {
		return apperrors.Validation("required documents are missing", missing...)
	}
	return nil
}

// StartReview marks a pending claim as being examined by its current role.
func (e *WorkflowEngine) StartReview(ctx context.Context, claimID string, actor models.Identity) (*ClaimView, error) {
	var claim *models.Claim
	err := e.withRetry(ctx, "review", false, func() error {
		var err error
		if claim, err = e.registry.Get(ctx, claimID); err != nil {
			return err
		}
		t, err := policy.StartReview(actor.Role, claim.CurrentRole, claim.Status)
		if err != nil {
			return err
		}

		before := *claim
		return e.store.WithinTx(ctx, func(tx repository.Store) error {
			if err := e.registry.With(tx).Transition(ctx, claim, t); err != nil {
				return err
			}
			return e.recordHistory(ctx, tx, claim, &before.Status, &before.CurrentRole, actor, "")
		})
	})
	if err != nil {
		return nil, err
	}
	return newClaimView(*claim), nil
}

// SubmitAction approves or rejects a claim on behalf of actor. Exactly one
// claim update and one approval record are written, or neither.
func (e *WorkflowEngine) SubmitAction(ctx context.Context, req ActionRequest) (*ClaimView, error) {
	var (
		claim *models.Claim
		race  raceTracker
	)
	err := e.withRetry(ctx, "action", req.ExpectedVersion != nil, func() error {
		var err error
		if claim, err = e.registry.Get(ctx, req.ClaimID); err != nil {
			return err
		}
		race.loaded(claim)
		if req.ExpectedVersion != nil && *req.ExpectedVersion != claim.Version {
			return apperrors.Conflict("claim %s is at version %d, not %d; reload and retry",
				claim.ClaimNumber, claim.Version, *req.ExpectedVersion)
		}

		t, err := policy.Decide(req.Actor.Role, claim.CurrentRole, claim.Status, req.Action)
		if err != nil {
			return race.refused(claim, err)
		}

		notes := req.Notes
		if notes == "" && t.Status == models.StatusPaymentApproved {
			notes = PaymentApprovedNote
		}

		before := *claim
		return race.committed(e.store.WithinTx(ctx, func(tx repository.Store) error {
			if err := e.registry.With(tx).Transition(ctx, claim, t); err != nil {
				return err
			}
			if _, err := e.ledger.With(tx).Record(ctx, claim.ClaimID, req.Actor, t.Approved, notes); err != nil {
				return err
			}
			return e.recordHistory(ctx, tx, claim, &before.Status, &before.CurrentRole, req.Actor, notes)
		}))
	})

	outcome := "success"
	if err != nil {
		outcome = apperrors.KindOf(err).String()
	}
	e.opts.Metrics.action(string(req.Actor.Role), string(req.Action), outcome)
	if err != nil {
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"claim_id": claim.ClaimID,
		"actor":    req.Actor.ID,
		"role":     req.Actor.Role,
		"action":   req.Action,
		"status":   claim.Status,
	}).Info("Claim action applied")
	e.opts.Notifier.ClaimChanged(*claim)
	return newClaimView(*claim), nil
}

// withRetry reruns op from a fresh load when it loses a compare-and-set.
// A pinned caller gets the conflict straight back.
func (e *WorkflowEngine) withRetry(ctx context.Context, operation string, pinned bool, op func() error) error {
	retry := e.opts.Retry
	if pinned {
		retry.MaxRetries = 0
	}
	retry.OnRetry = func(err error, wait time.Duration) {
		e.opts.Metrics.conflict(operation)
		e.log.WithError(err).WithFields(logrus.Fields{"operation": operation, "wait": wait}).Debug("Retrying after conflict")
	}
	return retry.Run(ctx, op)
}

func (e *WorkflowEngine) recordHistory(ctx context.Context, tx repository.Store, claim *models.Claim, oldStatus *models.ClaimStatus, oldRole *models.Role, actor models.Identity, notes string) error {
	entry := &models.ClaimStatusHistory{
		HistoryID: uuid.NewString(),
		ClaimID:   claim.ClaimID,
		OldStatus: oldStatus,
		NewStatus: claim.Status,
		OldRole:   oldRole,
		NewRole:   claim.CurrentRole,
		ChangedBy: actor.ID,
		CreatedAt: e.now(),
	}
	if notes != "" {
		entry.Notes = &notes
	}
	if err := tx.History().Append(ctx, entry); err != nil {
		return apperrors.Storage(err, "failed to record status history")
	}
	return nil
}

// UploadDocument attaches evidence to a claim the actor may act on. The
// claim is checked up front and again inside the document transaction.
func (e *WorkflowEngine) UploadDocument(ctx context.Context, claimID string, up DocumentUpload, actor models.Identity) (*models.Document, error) {
	claim, err := e.registry.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	guard := func(c *models.Claim) error {
		if policy.IsTerminal(c.Status) {
			return apperrors.InvalidState("claim %s is %s; documents can no longer change", c.ClaimNumber, c.Status)
		}
		if !policy.CanActOnClaim(actor, *c) {
			return apperrors.Forbidden("officer %s (%s) may not add documents to claim %s held by %q",
				actor.ID, actor.Role, c.ClaimNumber, c.CurrentRole)
		}
		return nil
	}
	if err := guard(claim); err != nil {
		return nil, err
	}

	doc, err := e.documents.Upload(ctx, claim.ClaimID, up, actor, guard)
	if err != nil {
		e.opts.Metrics.upload(string(up.Category), apperrors.KindOf(err).String())
		return nil, err
	}
	e.opts.Metrics.upload(string(up.Category), "success")
	e.log.WithFields(logrus.Fields{"claim_id": claimID, "document_id": doc.DocumentID, "category": doc.Category}).Info("Document uploaded")
	return doc, nil
}

// ListClaimsForRole applies the role's visibility rules.
func (e *WorkflowEngine) ListClaimsForRole(ctx context.Context, actor models.Identity) ([]*ClaimView, error) {
	claims, err := e.registry.ListForRole(ctx, actor)
	if err != nil {
		return nil, err
	}
	views := make([]*ClaimView, 0, len(claims))
	for _, c := range claims {
		views = append(views, newClaimView(c))
	}
	return views, nil
}

// GetClaim returns one claim to any officer in the chain.
func (e *WorkflowEngine) GetClaim(ctx context.Context, claimID string, actor models.Identity) (*ClaimView, error) {
	if !policy.IsKnown(actor.Role) {
		return nil, apperrors.Forbidden("role %q is not part of the approval chain", actor.Role)
	}
	claim, err := e.registry.Get(ctx, claimID)
	if err != nil {
		return nil, err
	}
	return newClaimView(*claim), nil
}

func (e *WorkflowEngine) ListDocuments(ctx context.Context, claimID string) ([]models.Document, error) {
	if _, err := e.registry.Get(ctx, claimID); err != nil {
		return nil, err
	}
	return e.documents.ListCurrent(ctx, claimID)
}

func (e *WorkflowEngine) ListApprovals(ctx context.Context, claimID string) ([]models.Approval, error) {
	if _, err := e.registry.Get(ctx, claimID); err != nil {
		return nil, err
	}
	return e.ledger.ListFor(ctx, claimID)
}

func (e *WorkflowEngine) ListHistory(ctx context.Context, claimID string) ([]models.ClaimStatusHistory, error) {
	if _, err := e.registry.Get(ctx, claimID); err != nil {
		return nil, err
	}
	entries, err := e.store.History().ListFor(ctx, claimID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list status history")
	}
	return entries, nil
}

// OpenDocument returns a current or superseded document of claimID.
func (e *WorkflowEngine) OpenDocument(ctx context.Context, claimID, documentID string) (*models.Document, io.ReadCloser, error) {
	if _, err := e.registry.Get(ctx, claimID); err != nil {
		return nil, nil, err
	}
	return e.documents.Open(ctx, claimID, documentID)
}

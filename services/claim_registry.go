package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/policy"
	"relief-claims-api/repository"
	"relief-claims-api/utils"
)

const claimNumberAttempts = 5

// ClaimInput holds the applicant and case facts captured at creation.
type ClaimInput struct {
	ApplicantName        string    `json:"applicant_name"`
	Age                  int       `json:"age"`
	Sex                  string    `json:"sex"`
	DateOfBirth          time.Time `json:"date_of_birth"`
	DateOfDeath          time.Time `json:"date_of_death"`
	Location             string    `json:"location"`
	ResidentialAddress   string    `json:"residential_address"`
	FamilyDetails        string    `json:"family_details"`
	PatwariChecked       bool      `json:"patwari_checked"`
	ThanaInchargeChecked bool      `json:"thana_incharge_checked"`
}

// ClaimRegistry owns the mutable claim record. Status and role only change
// through Submit and Transition, both compare-and-set on the stored state.
type ClaimRegistry struct {
	store repository.Store
	now   func() time.Time
}

func NewClaimRegistry(store repository.Store) *ClaimRegistry {
	return &ClaimRegistry{store: store, now: time.Now}
}

// With returns a registry bound to a transactional store view.
func (r *ClaimRegistry) With(tx repository.Store) *ClaimRegistry {
	return &ClaimRegistry{store: tx, now: r.now}
}

// Validate checks the fields required before a claim may exist.
func (r *ClaimRegistry) Validate(in ClaimInput) error {
	var fields []apperrors.FieldError
	require := func(ok bool, field, msg string) {
		if !ok {
			fields = append(fields, apperrors.FieldError{Field: field, Message: msg})
		}
	}

	require(strings.TrimSpace(in.ApplicantName) != "", "applicant_name", "is required")
	require(in.Age > 0, "age", "must be greater than zero")
	require(!in.DateOfBirth.IsZero(), "date_of_birth", "is required")
	require(!in.DateOfDeath.IsZero(), "date_of_death", "is required")
	if !in.DateOfBirth.IsZero() && !in.DateOfDeath.IsZero() {
		require(!in.DateOfDeath.Before(in.DateOfBirth), "date_of_death", "must not be before date_of_birth")
	}
	require(strings.TrimSpace(in.Location) != "", "location", "is required")
	require(strings.TrimSpace(in.ResidentialAddress) != "", "residential_address", "is required")
	require(strings.TrimSpace(in.FamilyDetails) != "", "family_details", "is required")
	require(in.PatwariChecked, "patwari_checked", "Patwari verification must be completed")
	require(in.ThanaInchargeChecked, "thana_incharge_checked", "Thana-in-charge verification must be completed")

	if len(fields) > 0 {
		return apperrors.Validation("claim is incomplete", fields...)
	}
	return nil
}

// Create inserts a draft claim held by the origin role.
func (r *ClaimRegistry) Create(ctx context.Context, in ClaimInput, creator models.Identity) (*models.Claim, error) {
	if err := r.Validate(in); err != nil {
		return nil, err
	}

	now := r.now()
	claim := &models.Claim{
		ClaimID:              uuid.NewString(),
		ApplicantName:        utils.SanitizeInput(in.ApplicantName),
		Age:                  in.Age,
		Sex:                  utils.SanitizeInput(in.Sex),
		DateOfBirth:          in.DateOfBirth,
		DateOfDeath:          in.DateOfDeath,
		Location:             utils.SanitizeInput(in.Location),
		ResidentialAddress:   utils.SanitizeInput(in.ResidentialAddress),
		FamilyDetails:        utils.SanitizeInput(in.FamilyDetails),
		PatwariChecked:       in.PatwariChecked,
		ThanaInchargeChecked: in.ThanaInchargeChecked,
		Status:               models.StatusDraft,
		CurrentRole:          policy.Origin(),
		CreatedBy:            creator.ID,
		CreatedAt:            now,
		UpdatedAt:            now,
	}

	// Claim numbers come from a per-day count, so two creators can race for
	// the same one; the unique index turns that into ErrConflict.
	for attempt := 0; attempt < claimNumberAttempts; attempt++ {
		number, err := r.generateClaimNumber(ctx, now, attempt)
		if err != nil {
			return nil, err
		}
		claim.ClaimNumber = number

		err = r.store.Claims().Create(ctx, claim)
		if err == nil {
			return claim, nil
		}
		if !errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Storage(err, "failed to create claim")
		}
	}
	return nil, apperrors.Conflict("could not allocate a claim number, please retry")
}

// generateClaimNumber returns RC-YYYYMMDD-NNNN.
func (r *ClaimRegistry) generateClaimNumber(ctx context.Context, now time.Time, offset int) (string, error) {
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count, err := r.store.Claims().CountCreatedSince(ctx, startOfDay)
	if err != nil {
		return "", apperrors.Storage(err, "failed to count claims")
	}
	return fmt.Sprintf("RC-%s-%04d", now.Format("20060102"), count+1+int64(offset)), nil
}

func (r *ClaimRegistry) Get(ctx context.Context, claimID string) (*models.Claim, error) {
	claim, err := r.store.Claims().Get(ctx, claimID)
	if err != nil {
		return nil, repoError(err, "claim", claimID)
	}
	return claim, nil
}

// Submit moves a draft to pending at the first reviewer.
func (r *ClaimRegistry) Submit(ctx context.Context, claim *models.Claim) error {
	if claim.Status != models.StatusDraft {
		return apperrors.InvalidState("claim %s is %s; only drafts can be submitted", claim.ClaimNumber, claim.Status)
	}
	now := r.now()
	return r.apply(ctx, claim, policy.Transition{Status: models.StatusPending, Role: policy.FirstReviewer()}, &now)
}

// Transition applies t if claim is still in the state it was loaded in.
func (r *ClaimRegistry) Transition(ctx context.Context, claim *models.Claim, t policy.Transition) error {
	return r.apply(ctx, claim, t, nil)
}

func (r *ClaimRegistry) apply(ctx context.Context, claim *models.Claim, t policy.Transition, submittedAt *time.Time) error {
	now := r.now()
	expect := repository.ClaimState{Status: claim.Status, Role: claim.CurrentRole, Version: claim.Version}
	update := repository.ClaimUpdate{Status: t.Status, Role: t.Role, UpdatedAt: now, SubmittedAt: submittedAt}

	if err := r.store.Claims().CompareAndSet(ctx, claim.ClaimID, expect, update); err != nil {
		return repoError(err, "claim", claim.ClaimID)
	}

	claim.Status = t.Status
	claim.CurrentRole = t.Role
	claim.Version++
	claim.UpdatedAt = now
	if submittedAt != nil {
		claim.SubmittedAt = submittedAt
	}
	return nil
}

// ListForRole returns the claims visible to actor, newest first.
func (r *ClaimRegistry) ListForRole(ctx context.Context, actor models.Identity) ([]models.Claim, error) {
	clauses := policy.Visibility(actor.Role, actor.ID)
	if len(clauses) == 0 {
		return []models.Claim{}, nil
	}
	claims, err := r.store.Claims().List(ctx, clauses)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list claims")
	}
	return claims, nil
}

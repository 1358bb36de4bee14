package policy

import (
	"relief-claims-api/apperrors"
	"relief-claims-api/models"
)

// Transition is the computed outcome of one decision.
type Transition struct {
	Status   models.ClaimStatus
	Role     models.Role
	Approved bool
}

// Decide computes the next (status, role) for action taken by actorRole on a
// claim currently at (status, currentRole). Terminal claims always fail with
// an invalid-state error regardless of who asks.
func Decide(actorRole, currentRole models.Role, status models.ClaimStatus, action models.Action) (Transition, error) {
	if !action.Valid() {
		return Transition{}, apperrors.Validation("unknown action",
			apperrors.FieldError{Field: "action", Message: "must be approve or reject"})
	}
	if IsTerminal(status) {
		return Transition{}, apperrors.InvalidState("claim is %s; no further action is permitted", status)
	}
	if !MayDecide(actorRole, currentRole) {
		return Transition{}, apperrors.Forbidden("role %q may not act on a claim held by %q", actorRole, currentRole)
	}
	if !IsActionable(status) {
		return Transition{}, apperrors.InvalidState("claim in status %s is not awaiting a decision", status)
	}

	if action == models.ActionReject {
		return Transition{Status: models.StatusRejected, Role: currentRole}, nil
	}

	switch {
	case status == models.StatusPaymentReady:
		if actorRole != Origin() {
			return Transition{}, apperrors.InvalidState("payment confirmation belongs to %s", Origin())
		}
		return Transition{Status: models.StatusPaymentApproved, Role: Origin(), Approved: true}, nil
	case actorRole == FinalAuthority():
		return Transition{Status: models.StatusPaymentReady, Role: Origin(), Approved: true}, nil
	}

	next, ok := NextRole(actorRole)
	if !ok || actorRole == Origin() {
		return Transition{}, apperrors.InvalidState("role %s has no approval step in status %s", actorRole, status)
	}
	// "approved" is only a marker between holders; the next role receives it as pending.
	return Transition{Status: models.StatusPending, Role: next, Approved: true}, nil
}

// StartReview validates moving a pending claim to under-review by its holder.
func StartReview(actorRole, currentRole models.Role, status models.ClaimStatus) (Transition, error) {
	if IsTerminal(status) {
		return Transition{}, apperrors.InvalidState("claim is %s; no further action is permitted", status)
	}
	if !MayDecide(actorRole, currentRole) {
		return Transition{}, apperrors.Forbidden("role %q may not review a claim held by %q", actorRole, currentRole)
	}
	if status != models.StatusPending {
		return Transition{}, apperrors.InvalidState("only pending claims can be taken under review, claim is %s", status)
	}
	return Transition{Status: models.StatusUnderReview, Role: currentRole}, nil
}

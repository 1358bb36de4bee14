// Package policy holds the fixed role chain and the status transitions it allows.
// Everything here is pure: no state, no I/O, and every function is total.
package policy

import "relief-claims-api/models"

var chain = []models.Role{
	models.RoleTehsildar,
	models.RoleSDM,
	models.RoleRahatOperator,
	models.RoleOIC,
	models.RoleADG,
	models.RoleCollector,
}

var chainIndex = func() map[models.Role]int {
	idx := make(map[models.Role]int, len(chain))
	for i, r := range chain {
		idx[r] = i
	}
	return idx
}()

// Chain returns the ordered role chain. The slice is a copy.
func Chain() []models.Role {
	out := make([]models.Role, len(chain))
	copy(out, chain)
	return out
}

// Origin is the role that creates claims and confirms payment.
func Origin() models.Role { return chain[0] }

// FirstReviewer receives a claim on submission.
func FirstReviewer() models.Role { return chain[1] }

// FinalAuthority is the last reviewer; its approval makes a claim payment-ready.
func FinalAuthority() models.Role { return chain[len(chain)-1] }

// Index returns the position of role in the chain.
func Index(role models.Role) (int, bool) {
	i, ok := chainIndex[role]
	return i, ok
}

// IsKnown reports whether role belongs to the chain.
func IsKnown(role models.Role) bool {
	_, ok := chainIndex[role]
	return ok
}

// NextRole returns the role after current, or false when current is terminal or unknown.
func NextRole(current models.Role) (models.Role, bool) {
	i, ok := chainIndex[current]
	if !ok || i == len(chain)-1 {
		return "", false
	}
	return chain[i+1], true
}

// IsTerminal reports whether no transition may leave status.
func IsTerminal(status models.ClaimStatus) bool {
	return status == models.StatusRejected || status == models.StatusPaymentApproved
}

// IsActionable reports whether a decision may be recorded in status.
func IsActionable(status models.ClaimStatus) bool {
	switch status {
	case models.StatusPending, models.StatusUnderReview, models.StatusPaymentReady:
		return true
	}
	return false
}

// CanAct reports whether actorRole may work with a claim held by currentRole
// in the given status. Beyond role equality, the origin role may always
// reach claims (it creates them and tracks its submissions), and the final
// authority keeps access to claims it released for payment.
func CanAct(actorRole, currentRole models.Role, status models.ClaimStatus) bool {
	if !IsKnown(actorRole) || !IsKnown(currentRole) || !status.Valid() {
		return false
	}
	if actorRole == currentRole {
		return true
	}
	if actorRole == Origin() {
		return true
	}
	return actorRole == FinalAuthority() && status == models.StatusPaymentReady
}

// CanActOnClaim is CanAct for a concrete officer: an origin officer only
// reaches claims it created.
func CanActOnClaim(actor models.Identity, claim models.Claim) bool {
	if actor.Role == Origin() && claim.CreatedBy != actor.ID {
		return false
	}
	return CanAct(actor.Role, claim.CurrentRole, claim.Status)
}

// MayDecide is the strict gate for recording a decision: only the role
// currently holding the claim.
func MayDecide(actorRole, currentRole models.Role) bool {
	return IsKnown(actorRole) && actorRole == currentRole
}

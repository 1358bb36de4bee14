package policy

import "relief-claims-api/models"

// Visibility returns the clauses selecting the claims role may list. A claim
// is visible when any clause matches.
func Visibility(role models.Role, actorID string) []models.ClaimMatch {
	switch {
	case role == Origin():
		return []models.ClaimMatch{
			{CreatedBy: actorID},
			{Statuses: []models.ClaimStatus{models.StatusPaymentReady}},
		}
	case role == FinalAuthority():
		return []models.ClaimMatch{
			{CurrentRole: role},
			{Statuses: []models.ClaimStatus{models.StatusApproved}},
		}
	case IsKnown(role):
		return []models.ClaimMatch{
			{CurrentRole: role, ExcludeStatus: []models.ClaimStatus{models.StatusDraft}},
		}
	}
	return nil
}

// Visible reports whether claim appears in role's listing for actorID.
func Visible(role models.Role, actorID string, claim models.Claim) bool {
	for _, m := range Visibility(role, actorID) {
		if m.Matches(claim) {
			return true
		}
	}
	return false
}

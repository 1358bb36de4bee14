package models

// ClaimStatus is the lifecycle state of a relief claim.
type ClaimStatus string

const (
	StatusDraft           ClaimStatus = "draft"
	StatusPending         ClaimStatus = "pending"
	StatusUnderReview     ClaimStatus = "under-review"
	StatusApproved        ClaimStatus = "approved"
	StatusRejected        ClaimStatus = "rejected"
	StatusPaymentReady    ClaimStatus = "payment-ready"
	StatusPaymentApproved ClaimStatus = "payment-approved"
)

// AllStatuses lists every status a claim may hold.
var AllStatuses = []ClaimStatus{
	StatusDraft,
	StatusPending,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusPaymentReady,
	StatusPaymentApproved,
}

// Valid reports whether s is one of the known statuses.
func (s ClaimStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Action is a decision an official records against a claim.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// Valid reports whether a is approve or reject.
func (a Action) Valid() bool {
	return a == ActionApprove || a == ActionReject
}

package models

import "time"

// Approval is an immutable decision entry recorded against a claim.
type Approval struct {
	ApprovalID string    `gorm:"primaryKey;column:approval_id;type:varchar(36)" json:"approval_id"`
	ClaimID    string    `gorm:"column:claim_id;type:varchar(36);index" json:"claim_id"`
	ApprovedBy string    `gorm:"column:approved_by;type:varchar(36)" json:"approved_by"`
	Role       Role      `gorm:"column:role;type:varchar(32)" json:"role"`
	Approved   bool      `gorm:"column:approved" json:"approved"`
	Notes      *string   `gorm:"column:notes;type:text" json:"notes,omitempty"`
	CreatedAt  time.Time `gorm:"column:created_at;type:datetime(6);index" json:"created_at"`
	// Seq is assigned by the store on insert and orders records that share a timestamp.
	Seq uint64 `gorm:"column:seq;autoIncrement;uniqueIndex" json:"-"`
}

// TableName specifies the table name for Approval.
func (Approval) TableName() string {
	return "approvals"
}

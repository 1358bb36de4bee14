package models

import "time"

// ClaimStatusHistory tracks every status and level change of a claim.
type ClaimStatusHistory struct {
	HistoryID string       `gorm:"primaryKey;column:history_id;type:varchar(36)" json:"history_id"`
	ClaimID   string       `gorm:"column:claim_id;type:varchar(36);index" json:"claim_id"`
	OldStatus *ClaimStatus `gorm:"column:old_status;type:varchar(32)" json:"old_status"`
	NewStatus ClaimStatus  `gorm:"column:new_status;type:varchar(32)" json:"new_status"`
	OldRole   *Role        `gorm:"column:old_level;type:varchar(32)" json:"old_role"`
	NewRole   Role         `gorm:"column:new_level;type:varchar(32)" json:"new_role"`
	ChangedBy string       `gorm:"column:changed_by;type:varchar(36)" json:"changed_by"`
	Notes     *string      `gorm:"column:notes;type:text" json:"notes"`
	CreatedAt time.Time    `gorm:"column:created_at;type:datetime(6)" json:"created_at"`
}

// TableName specifies the table for ClaimStatusHistory.
func (ClaimStatusHistory) TableName() string {
	return "claim_status_history"
}

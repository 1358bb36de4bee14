package models

import "time"

// Officer is a government official who signs in and acts on claims.
type Officer struct {
	OfficerID       string     `gorm:"primaryKey;column:officer_id;type:varchar(36)" json:"officer_id"`
	Email           string     `gorm:"column:email;uniqueIndex;type:varchar(191)" json:"email"`
	PasswordHash    string     `gorm:"column:password_hash" json:"-"`
	Role            Role       `gorm:"column:role;type:varchar(32)" json:"role"`
	DisplayName     string     `gorm:"column:display_name" json:"display_name"`
	Phone           string     `gorm:"column:phone" json:"phone"`
	Department      string     `gorm:"column:department" json:"department"`
	Designation     string     `gorm:"column:designation" json:"designation"`
	ProfileComplete bool       `gorm:"column:profile_complete" json:"profile_complete"`
	CreatedAt       time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeleteAt        *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

// TableName specifies the table name for Officer.
func (Officer) TableName() string {
	return "officers"
}

// Identity returns the role-bearing identity for this officer.
func (o Officer) Identity() Identity {
	return Identity{ID: o.OfficerID, Role: o.Role}
}

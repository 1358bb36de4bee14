package models

import "time"

// Claim is one death-compensation relief case.
//
// Applicant facts are fixed at creation; only Status, CurrentRole, Version,
// UpdatedAt and SubmittedAt change afterwards.
type Claim struct {
	ClaimID              string      `gorm:"primaryKey;column:claim_id;type:varchar(36)" json:"claim_id"`
	ClaimNumber          string      `gorm:"column:claim_number;type:varchar(32);uniqueIndex" json:"claim_number"`
	ApplicantName        string      `gorm:"column:applicant_name" json:"applicant_name"`
	Age                  int         `gorm:"column:age" json:"age"`
	Sex                  string      `gorm:"column:sex;type:varchar(16)" json:"sex"`
	DateOfBirth          time.Time   `gorm:"column:date_of_birth;type:date" json:"date_of_birth"`
	DateOfDeath          time.Time   `gorm:"column:date_of_death;type:date" json:"date_of_death"`
	Location             string      `gorm:"column:location" json:"location"`
	ResidentialAddress   string      `gorm:"column:residential_address;type:text" json:"residential_address"`
	FamilyDetails        string      `gorm:"column:family_details;type:text" json:"family_details"`
	PatwariChecked       bool        `gorm:"column:patwari_checked" json:"patwari_checked"`
	ThanaInchargeChecked bool        `gorm:"column:thana_incharge_checked" json:"thana_incharge_checked"`
	Status               ClaimStatus `gorm:"column:status;type:varchar(32);index" json:"status"`
	CurrentRole          Role        `gorm:"column:current_level;type:varchar(32);index" json:"current_role"`
	Version              int         `gorm:"column:version" json:"version"`
	CreatedBy            string      `gorm:"column:created_by;type:varchar(36);index" json:"created_by"`
	CreatedAt            time.Time   `gorm:"column:created_at" json:"created_at"`
	UpdatedAt            time.Time   `gorm:"column:updated_at" json:"updated_at"`
	SubmittedAt          *time.Time  `gorm:"column:submitted_at" json:"submitted_at,omitempty"`
}

// TableName specifies the table name for Claim.
func (Claim) TableName() string {
	return "claims"
}

// ClaimMatch is one visibility clause over claims. Zero-valued fields are
// ignored; a claim matches when every set field holds.
type ClaimMatch struct {
	CreatedBy     string
	CurrentRole   Role
	Statuses      []ClaimStatus
	ExcludeStatus []ClaimStatus
}

// Matches reports whether c satisfies every populated field of m.
func (m ClaimMatch) Matches(c Claim) bool {
	if m.CreatedBy != "" && c.CreatedBy != m.CreatedBy {
		return false
	}
	if m.CurrentRole != "" && c.CurrentRole != m.CurrentRole {
		return false
	}
	if len(m.Statuses) > 0 && !containsStatus(m.Statuses, c.Status) {
		return false
	}
	if containsStatus(m.ExcludeStatus, c.Status) {
		return false
	}
	return true
}

func containsStatus(list []ClaimStatus, s ClaimStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

package models

import "time"

// DocumentCategory is one of the closed set of evidence kinds.
type DocumentCategory string

const (
	CategoryFindingReport    DocumentCategory = "finding-report"
	CategoryPostMortemReport DocumentCategory = "post-mortem-report"
)

// DocumentCategories lists the accepted evidence categories.
var DocumentCategories = []DocumentCategory{
	CategoryFindingReport,
	CategoryPostMortemReport,
}

// Valid reports whether c is an accepted category.
func (c DocumentCategory) Valid() bool {
	for _, known := range DocumentCategories {
		if c == known {
			return true
		}
	}
	return false
}

// Document is one uploaded evidence file. Rows are never edited except to
// mark them superseded by a newer upload of the same category.
type Document struct {
	DocumentID   string           `gorm:"primaryKey;column:document_id;type:varchar(36)" json:"document_id"`
	ClaimID      string           `gorm:"column:claim_id;type:varchar(36);index" json:"claim_id"`
	Category     DocumentCategory `gorm:"column:category;type:varchar(32)" json:"category"`
	FileName     string           `gorm:"column:file_name" json:"file_name"`
	FileSize     int64            `gorm:"column:file_size" json:"file_size"`
	MimeType     string           `gorm:"column:mime_type" json:"mime_type"`
	StorageKey   string           `gorm:"column:storage_key" json:"-"`
	UploadedBy   string           `gorm:"column:uploaded_by;type:varchar(36)" json:"uploaded_by"`
	CreatedAt    time.Time        `gorm:"column:created_at;type:datetime(6)" json:"created_at"`
	SupersededAt *time.Time       `gorm:"column:superseded_at;type:datetime(6)" json:"superseded_at,omitempty"`
	SupersededBy *string          `gorm:"column:superseded_by;type:varchar(36)" json:"superseded_by,omitempty"`
}

// DocumentSlot points at the current document for one (claim, category)
// pair. Version is bumped on every swap.
type DocumentSlot struct {
	ClaimID    string           `gorm:"primaryKey;column:claim_id;type:varchar(36)" json:"claim_id"`
	Category   DocumentCategory `gorm:"primaryKey;column:category;type:varchar(32)" json:"category"`
	DocumentID string           `gorm:"column:document_id;type:varchar(36)" json:"document_id"`
	Version    int              `gorm:"column:version" json:"version"`
	UpdatedAt  time.Time        `gorm:"column:updated_at;type:datetime(6)" json:"updated_at"`
}

// TableName overrides
func (Document) TableName() string {
	return "documents"
}

func (DocumentSlot) TableName() string {
	return "document_slots"
}

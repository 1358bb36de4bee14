package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"relief-claims-api/models"
)

const mysqlDuplicateEntry = 1062

// GormStore persists the workflow in MySQL through gorm. Inside WithinTx,
// claim reads take a shared row lock so a concurrent transition waits for
// the transaction that read the claim.
type GormStore struct {
	db   *gorm.DB
	inTx bool
}

// NewGormStore wraps db. The caller owns the connection.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// AutoMigrate creates or updates every table the store uses.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Claim{},
		&models.Approval{},
		&models.Document{},
		&models.DocumentSlot{},
		&models.ClaimStatusHistory{},
		&models.Officer{},
	)
}

func (s *GormStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, inTx: true})
	})
}

func (s *GormStore) Claims() ClaimRepository       { return gormClaims{s.db, s.inTx} }
func (s *GormStore) Approvals() ApprovalRepository { return gormApprovals{s.db} }
func (s *GormStore) Documents() DocumentRepository { return gormDocuments{s.db} }
func (s *GormStore) History() HistoryRepository    { return gormHistory{s.db} }
func (s *GormStore) Officers() OfficerRepository   { return gormOfficers{s.db} }

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicateKey(err):
		return ErrConflict
	}
	return err
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var myErr *mysql.MySQLError
	return errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry
}

type gormClaims struct {
	db   *gorm.DB
	lock bool
}

func (r gormClaims) Create(ctx context.Context, claim *models.Claim) error {
	return translate(r.db.WithContext(ctx).Create(claim).Error)
}

func (r gormClaims) Get(ctx context.Context, claimID string) (*models.Claim, error) {
	q := r.db.WithContext(ctx)
	if r.lock {
		q = q.Clauses(clause.Locking{Strength: "SHARE"})
	}
	var claim models.Claim
	if err := q.Where("claim_id = ?", claimID).Take(&claim).Error; err != nil {
		return nil, translate(err)
	}
	return &claim, nil
}

func (r gormClaims) CompareAndSet(ctx context.Context, claimID string, expect ClaimState, update ClaimUpdate) error {
	values := map[string]interface{}{
		"status":        update.Status,
		"current_level": update.Role,
		"updated_at":    update.UpdatedAt,
		"version":       gorm.Expr("version + 1"),
	}
	if update.SubmittedAt != nil {
		values["submitted_at"] = *update.SubmittedAt
	}

	res := r.db.WithContext(ctx).Model(&models.Claim{}).
		Where("claim_id = ? AND status = ? AND current_level = ? AND version = ?",
			claimID, expect.Status, expect.Role, expect.Version).
		Updates(values)
	if res.Error != nil {
		return fmt.Errorf("update claim %s: %w", claimID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r gormClaims) List(ctx context.Context, anyOf []models.ClaimMatch) ([]models.Claim, error) {
	claims := make([]models.Claim, 0)
	if len(anyOf) == 0 {
		return claims, nil
	}

	session := r.db.WithContext(ctx)
	var group *gorm.DB
	for _, m := range anyOf {
		clause := matchClause(session.Session(&gorm.Session{NewDB: true}), m)
		if group == nil {
			group = session.Session(&gorm.Session{NewDB: true}).Where(clause)
			continue
		}
		group = group.Or(clause)
	}

	if err := session.Where(group).Order("created_at DESC").Find(&claims).Error; err != nil {
		return nil, err
	}
	return claims, nil
}

func matchClause(q *gorm.DB, m models.ClaimMatch) *gorm.DB {
	q = q.Where("1 = 1")
	if m.CreatedBy != "" {
		q = q.Where("created_by = ?", m.CreatedBy)
	}
	if m.CurrentRole != "" {
		q = q.Where("current_level = ?", m.CurrentRole)
	}
	if len(m.Statuses) > 0 {
		q = q.Where("status IN ?", m.Statuses)
	}
	if len(m.ExcludeStatus) > 0 {
		q = q.Where("status NOT IN ?", m.ExcludeStatus)
	}
	return q
}

func (r gormClaims) CountCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Claim{}).Where("created_at >= ?", since).Count(&n).Error
	return n, err
}

type gormApprovals struct{ db *gorm.DB }

func (r gormApprovals) Append(ctx context.Context, record *models.Approval) error {
	return translate(r.db.WithContext(ctx).Create(record).Error)
}

func (r gormApprovals) ListFor(ctx context.Context, claimID string) ([]models.Approval, error) {
	records := make([]models.Approval, 0)
	if err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).
		Order("created_at ASC, seq ASC").Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

type gormDocuments struct{ db *gorm.DB }

func (r gormDocuments) Insert(ctx context.Context, doc *models.Document) error {
	return translate(r.db.WithContext(ctx).Create(doc).Error)
}

func (r gormDocuments) Get(ctx context.Context, documentID string) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).Where("document_id = ?", documentID).Take(&doc).Error; err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func (r gormDocuments) Slot(ctx context.Context, claimID string, category models.DocumentCategory) (*models.DocumentSlot, error) {
	var slot models.DocumentSlot
	if err := r.db.WithContext(ctx).Where("claim_id = ? AND category = ?", claimID, category).
		Take(&slot).Error; err != nil {
		return nil, translate(err)
	}
	return &slot, nil
}

func (r gormDocuments) CreateSlot(ctx context.Context, slot *models.DocumentSlot) error {
	return translate(r.db.WithContext(ctx).Create(slot).Error)
}

func (r gormDocuments) SwapSlot(ctx context.Context, claimID string, category models.DocumentCategory, expectVersion int, documentID string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.DocumentSlot{}).
		Where("claim_id = ? AND category = ? AND version = ?", claimID, category, expectVersion).
		Updates(map[string]interface{}{
			"document_id": documentID,
			"updated_at":  at,
			"version":     gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return fmt.Errorf("swap document slot %s/%s: %w", claimID, category, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r gormDocuments) MarkSuperseded(ctx context.Context, documentID, supersededBy string, at time.Time) error {
	res := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("document_id = ? AND superseded_at IS NULL", documentID).
		Updates(map[string]interface{}{
			"superseded_at": at,
			"superseded_by": supersededBy,
		})
	if res.Error != nil {
		return fmt.Errorf("supersede document %s: %w", documentID, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	return nil
}

func (r gormDocuments) ListCurrent(ctx context.Context, claimID string) ([]models.Document, error) {
	docs := make([]models.Document, 0)
	err := r.db.WithContext(ctx).
		Joins("JOIN document_slots ON document_slots.document_id = documents.document_id").
		Where("documents.claim_id = ?", claimID).
		Order("documents.category ASC").
		Find(&docs).Error
	if err != nil {
		return nil, err
	}
	return docs, nil
}

type gormHistory struct{ db *gorm.DB }

func (r gormHistory) Append(ctx context.Context, entry *models.ClaimStatusHistory) error {
	return translate(r.db.WithContext(ctx).Create(entry).Error)
}

func (r gormHistory) ListFor(ctx context.Context, claimID string) ([]models.ClaimStatusHistory, error) {
	entries := make([]models.ClaimStatusHistory, 0)
	if err := r.db.WithContext(ctx).Where("claim_id = ?", claimID).
		Order("created_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

type gormOfficers struct{ db *gorm.DB }

func (r gormOfficers) Create(ctx context.Context, officer *models.Officer) error {
	return translate(r.db.WithContext(ctx).Create(officer).Error)
}

func (r gormOfficers) Get(ctx context.Context, officerID string) (*models.Officer, error) {
	var officer models.Officer
	if err := r.db.WithContext(ctx).Where("officer_id = ? AND delete_at IS NULL", officerID).
		Take(&officer).Error; err != nil {
		return nil, translate(err)
	}
	return &officer, nil
}

func (r gormOfficers) GetByEmail(ctx context.Context, email string) (*models.Officer, error) {
	var officer models.Officer
	if err := r.db.WithContext(ctx).Where("email = ? AND delete_at IS NULL", email).
		Take(&officer).Error; err != nil {
		return nil, translate(err)
	}
	return &officer, nil
}

func (r gormOfficers) ListByRole(ctx context.Context, role models.Role) ([]models.Officer, error) {
	officers := make([]models.Officer, 0)
	if err := r.db.WithContext(ctx).Where("role = ? AND delete_at IS NULL", role).
		Order("email ASC").Find(&officers).Error; err != nil {
		return nil, err
	}
	return officers, nil
}

func (r gormOfficers) Update(ctx context.Context, officer *models.Officer) error {
	res := r.db.WithContext(ctx).Model(&models.Officer{}).
		Where("officer_id = ?", officer.OfficerID).
		Updates(map[string]interface{}{
			"display_name":     officer.DisplayName,
			"phone":            officer.Phone,
			"department":       officer.Department,
			"designation":      officer.Designation,
			"profile_complete": officer.ProfileComplete,
			"password_hash":    officer.PasswordHash,
			"updated_at":       officer.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

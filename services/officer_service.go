package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"relief-claims-api/apperrors"
	"relief-claims-api/models"
	"relief-claims-api/policy"
	"relief-claims-api/repository"
	"relief-claims-api/utils"
)

var errInvalidLogin = errors.New("invalid email or password")

// OfficerService signs officers in and maintains their profiles.
type OfficerService struct {
	officers  repository.OfficerRepository
	jwtSecret string
	tokenTTL  time.Duration
	now       func() time.Time
}

func NewOfficerService(officers repository.OfficerRepository, jwtSecret string, tokenTTL time.Duration) *OfficerService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &OfficerService{officers: officers, jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now}
}

type LoginResult struct {
	Token   string         `json:"token"`
	Officer models.Officer `json:"officer"`
}

// Login returns a signed token. Unknown email and wrong password are
// indistinguishable to the caller.
func (s *OfficerService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(utils.SanitizeInput(email))
	if email == "" || password == "" {
		return nil, apperrors.Validation("email and password are required")
	}

	officer, err := s.officers.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Forbidden("%s", errInvalidLogin)
	}
	if err != nil {
		return nil, apperrors.Storage(err, "failed to load officer")
	}
	if !utils.CheckPasswordHash(password, officer.PasswordHash) {
		return nil, apperrors.Forbidden("%s", errInvalidLogin)
	}

	token, err := utils.IssueToken(*officer, s.jwtSecret, s.tokenTTL, s.now())
	if err != nil {
		return nil, apperrors.Storage(err, "failed to generate token")
	}
	return &LoginResult{Token: token, Officer: *officer}, nil
}

func (s *OfficerService) Profile(ctx context.Context, officerID string) (*models.Officer, error) {
	officer, err := s.officers.Get(ctx, officerID)
	if err != nil {
		return nil, repoError(err, "officer", officerID)
	}
	return officer, nil
}

// ProfileInput holds the editable profile fields.
type ProfileInput struct {
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone"`
	Department  string `json:"department"`
	Designation string `json:"designation"`
}

// UpdateProfile replaces the editable fields. The profile counts as complete
// once every field is filled in.
func (s *OfficerService) UpdateProfile(ctx context.Context, officerID string, in ProfileInput) (*models.Officer, error) {
	in.DisplayName = utils.SanitizeInput(in.DisplayName)
	in.Phone = utils.SanitizeInput(in.Phone)
	in.Department = utils.SanitizeInput(in.Department)
	in.Designation = utils.SanitizeInput(in.Designation)

	var fields []apperrors.FieldError
	if in.DisplayName == "" {
		fields = append(fields, apperrors.FieldError{Field: "display_name", Message: "is required"})
	}
	if in.Phone != "" && !utils.ValidatePhone(in.Phone) {
		fields = append(fields, apperrors.FieldError{Field: "phone", Message: "is not a valid phone number"})
	}
	if len(fields) > 0 {
		return nil, apperrors.Validation("invalid profile", fields...)
	}

	officer, err := s.Profile(ctx, officerID)
	if err != nil {
		return nil, err
	}
	officer.DisplayName = in.DisplayName
	officer.Phone = in.Phone
	officer.Department = in.Department
	officer.Designation = in.Designation
	officer.ProfileComplete = in.DisplayName != "" && in.Phone != "" && in.Department != "" && in.Designation != ""
	officer.UpdatedAt = s.now()

	if err := s.officers.Update(ctx, officer); err != nil {
		return nil, repoError(err, "officer", officerID)
	}
	return officer, nil
}

// Register creates an officer account, hashing password unless it is
// already a bcrypt hash.
func (s *OfficerService) Register(ctx context.Context, officer models.Officer, password string) (*models.Officer, error) {
	officer.Email = strings.ToLower(utils.SanitizeInput(officer.Email))
	if !utils.ValidateEmail(officer.Email) {
		return nil, apperrors.Validation("invalid officer", apperrors.FieldError{Field: "email", Message: "is not a valid email"})
	}
	if !policy.IsKnown(officer.Role) {
		return nil, apperrors.Validation("invalid officer", apperrors.FieldError{Field: "role", Message: "is not a role in the chain"})
	}

	hash := password
	if !utils.IsBcryptHash(password) {
		if ok, msg := utils.ValidatePassword(password); !ok {
			return nil, apperrors.Validation("invalid officer", apperrors.FieldError{Field: "password", Message: msg})
		}
		var err error
		if hash, err = utils.HashPassword(password); err != nil {
			return nil, apperrors.Storage(err, "failed to hash password")
		}
	}

	if officer.OfficerID == "" {
		officer.OfficerID = uuid.NewString()
	}
	now := s.now()
	officer.PasswordHash = hash
	officer.CreatedAt = now
	officer.UpdatedAt = now
	if err := s.officers.Create(ctx, &officer); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("officer %s already exists", officer.Email)
		}
		return nil, apperrors.Storage(err, "failed to create officer")
	}
	return &officer, nil
}

package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/security"
)

// CreateStaffRequest provisions a staff account for a pharmacy.
type CreateStaffRequest struct {
	Email      string         `json:"email" validate:"required,email"`
	FullName   string         `json:"fullName" validate:"required"`
	Role       enums.UserRole `json:"role" validate:"required,oneof=ADMIN SALESMAN"`
	PharmacyID uint           `json:"pharmacyId" validate:"required"`
}

// CreateStaffResponse returns the new account with its one-time password.
type CreateStaffResponse struct {
	User         UserDTO `json:"user"`
	TempPassword string  `json:"tempPassword"`
}

// ResetCredentialsResponse carries the replacement password.
type ResetCredentialsResponse struct {
	TempPassword string `json:"tempPassword"`
}

// Service is the operator-side staff management surface.
type Service interface {
	CreateStaff(ctx context.Context, req CreateStaffRequest) (*CreateStaffResponse, error)
	ResetCredentials(ctx context.Context, userID uint) (*ResetCredentialsResponse, error)
	ListByPharmacy(ctx context.Context, pharmacyID uint) ([]UserDTO, error)
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	ListByPharmacy(ctx context.Context, pharmacyID uint) ([]models.User, error)
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type service struct {
	repo        userRepository
	audit       auditRecorder
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           userRepository
	Audit          auditRecorder
	PasswordConfig config.PasswordConfig
}

// NewService constructs the users service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	return &service{
		repo:        params.Repo,
		audit:       params.Audit,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) CreateStaff(ctx context.Context, req CreateStaffRequest) (*CreateStaffResponse, error) {
	tempPassword, err := security.GenerateTempPassword(12)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	pharmacyID := req.PharmacyID
	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		FullName:     strings.TrimSpace(req.FullName),
		Role:         req.Role,
		PharmacyID:   &pharmacyID,
	})
	if err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "a user with this email already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}

	s.recordAudit(ctx, user, enums.AuditActionUserCreate)
	return &CreateStaffResponse{User: *FromModel(user), TempPassword: tempPassword}, nil
}

// ResetCredentials replaces the password with a fresh one-time value. The
// token version bump inside UpdatePassword kills every live session.
func (s *service) ResetCredentials(ctx context.Context, userID uint) (*ResetCredentialsResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	tempPassword, err := security.GenerateTempPassword(12)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update password")
	}

	s.recordAudit(ctx, user, enums.AuditActionCredentialsReset)
	return &ResetCredentialsResponse{TempPassword: tempPassword}, nil
}

func (s *service) ListByPharmacy(ctx context.Context, pharmacyID uint) ([]UserDTO, error) {
	rows, err := s.repo.ListByPharmacy(ctx, pharmacyID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list users")
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) recordAudit(ctx context.Context, user *models.User, action enums.AuditAction) {
	if s.audit == nil {
		return
	}
	userID := user.ID
	_ = s.audit.Record(ctx, models.AuditLog{
		PharmacyID: user.PharmacyID,
		Action:     action,
		Entity:     "user",
		EntityID:   &userID,
	})
}

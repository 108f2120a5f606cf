package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/internal/users"
	pkgAuth "github.com/rxpos/pharmacare-backend/pkg/auth"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) (*ChangePasswordResponse, error)
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uint, at time.Time) error
	UpdatePassword(ctx context.Context, id uint, passwordHash string) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type service struct {
	users       userRepository
	audit       auditRecorder
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	UserRepo       userRepository
	Audit          auditRecorder
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.UserRepo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.JWTConfig.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &service{
		users:       params.UserRepo,
		audit:       params.Audit,
		jwtCfg:      params.JWTConfig,
		passwordCfg: params.PasswordConfig,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := time.Now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record login")
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		PharmacyID:   user.PharmacyID,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	s.recordAudit(ctx, user, enums.AuditActionLogin, "user login")

	return &LoginResponse{
		AccessToken: token,
		User:        users.FromModel(user),
	}, nil
}

func (s *service) ChangePassword(ctx context.Context, userID uint, req ChangePasswordRequest) (*ChangePasswordResponse, error) {
	if userID == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user identity missing")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup user")
	}

	ok, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "current password is incorrect")
	}

	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	// UpdatePassword bumps token_version, revoking every outstanding token.
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgAuth.AccessTokenPayload{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		PharmacyID:   user.PharmacyID,
		TokenVersion: user.TokenVersion + 1,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	s.recordAudit(ctx, user, enums.AuditActionPasswordChange, "password changed")

	return &ChangePasswordResponse{AccessToken: token}, nil
}

func (s *service) recordAudit(ctx context.Context, user *models.User, action enums.AuditAction, details string) {
	if s.audit == nil {
		return
	}
	userID := user.ID
	// best effort, auth flows never fail on audit writes
	_ = s.audit.Record(ctx, models.AuditLog{
		PharmacyID: user.PharmacyID,
		UserID:     &userID,
		Action:     action,
		Entity:     "user",
		EntityID:   &userID,
		Details:    &details,
	})
}

package pharmacies

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/rxpos/pharmacare-backend/internal/users"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/licensing"
	"github.com/rxpos/pharmacare-backend/pkg/security"
)

const invalidKeyMessage = "invalid license key or machine mismatch"

// Fingerprinter computes the current machine fingerprint.
type Fingerprinter func() (string, error)

// Service exposes the tenant licensing lifecycle: fingerprint lookup,
// activation on the install machine, and the operator-side onboarding,
// renewal, and suspension flows.
type Service interface {
	MachineID(ctx context.Context) (*MachineIDResponse, error)
	Activate(ctx context.Context, req ActivateRequest) (*ActivateResponse, error)
	LicenseStatus(ctx context.Context) (*LicenseStatusResponse, error)
	Onboard(ctx context.Context, req OnboardRequest) (*OnboardResponse, error)
	Renew(ctx context.Context, pharmacyID uint, req RenewRequest) (*RenewResponse, error)
	Suspend(ctx context.Context, pharmacyID uint) error
	Unsuspend(ctx context.Context, pharmacyID uint) error
	List(ctx context.Context) ([]PharmacyDTO, error)
}

type pharmacyRepository interface {
	WithTx(tx *gorm.DB) *Repository
	Create(ctx context.Context, pharmacy *models.Pharmacy) (*models.Pharmacy, error)
	FirstPharmacy(ctx context.Context) (*models.Pharmacy, error)
	FindByID(ctx context.Context, id uint) (*models.Pharmacy, error)
	List(ctx context.Context) ([]models.Pharmacy, error)
	UpdateLicense(ctx context.Context, id uint, key string, startedAt, expiresAt time.Time, isActive bool) error
	SetActive(ctx context.Context, id uint, active bool) error
}

type userCreator interface {
	Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error)
	ListByPharmacy(ctx context.Context, pharmacyID uint) ([]models.User, error)
	BumpTokenVersion(ctx context.Context, id uint) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog) error
}

type service struct {
	repo        pharmacyRepository
	users       userCreator
	tx          txRunner
	audit       auditRecorder
	codec       *licensing.Codec
	fingerprint Fingerprinter
	passwordCfg config.PasswordConfig
	now         func() time.Time
}

// ServiceParams bundles the dependencies required to build a pharmacy service.
type ServiceParams struct {
	Repo           pharmacyRepository
	Users          userCreator
	Tx             txRunner
	Audit          auditRecorder
	Codec          *licensing.Codec
	Fingerprint    Fingerprinter
	PasswordConfig config.PasswordConfig
	Now            func() time.Time
}

// NewService constructs the pharmacy/licensing service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("pharmacy repository is required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("users repository is required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner is required")
	}
	if params.Codec == nil {
		return nil, fmt.Errorf("license codec is required")
	}
	if params.Fingerprint == nil {
		return nil, fmt.Errorf("fingerprinter is required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{
		repo:        params.Repo,
		users:       params.Users,
		tx:          params.Tx,
		audit:       params.Audit,
		codec:       params.Codec,
		fingerprint: params.Fingerprint,
		passwordCfg: params.PasswordConfig,
		now:         now,
	}, nil
}

func (s *service) MachineID(ctx context.Context) (*MachineIDResponse, error) {
	id, err := s.fingerprint()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "machine fingerprint")
	}
	return &MachineIDResponse{MachineID: id}, nil
}

// Activate binds the submitted key to the pharmacy it was minted for. The
// stored license_no is the submitted key text verbatim; the gate re-decodes
// it on every request.
func (s *service) Activate(ctx context.Context, req ActivateRequest) (*ActivateResponse, error) {
	key := strings.TrimSpace(req.LicenseKey)
	if key == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "license key is required")
	}

	machineID, err := s.fingerprint()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "machine fingerprint")
	}

	payload, err := s.codec.Decode(key, machineID)
	if err != nil {
		// deliberately one message for every decode failure mode
		return nil, pkgerrors.New(pkgerrors.CodeValidation, invalidKeyMessage)
	}

	pharmacy, err := s.repo.FindByID(ctx, payload.PharmacyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pharmacy")
	}

	if err := s.repo.UpdateLicense(ctx, pharmacy.ID, key, s.now(), payload.ExpiresAt, true); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store license")
	}

	s.recordAudit(ctx, pharmacy.ID, enums.AuditActionLicenseActivate, "license activated")

	return &ActivateResponse{
		Message:   "License activated successfully",
		ExpiresAt: payload.ExpiresAt,
	}, nil
}

func (s *service) LicenseStatus(ctx context.Context) (*LicenseStatusResponse, error) {
	pharmacy, err := s.repo.FirstPharmacy(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pharmacy")
	}
	if pharmacy == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no pharmacy on this install")
	}

	resp := &LicenseStatusResponse{
		Activated: pharmacy.LicenseKey() != "",
		IsActive:  pharmacy.IsActive,
		StartedAt: pharmacy.LicenseStartedAt,
		ExpiresAt: pharmacy.LicenseExpiresAt,
	}
	if pharmacy.LicenseExpiresAt != nil {
		if left := pharmacy.LicenseExpiresAt.Sub(s.now()); left > 0 {
			resp.DaysLeft = int(left.Hours() / 24)
		}
	}
	return resp, nil
}

// Onboard provisions a pharmacy, its first admin user, and an unbound
// license key in a single transaction.
func (s *service) Onboard(ctx context.Context, req OnboardRequest) (*OnboardResponse, error) {
	tempPassword, err := security.GenerateTempPassword(12)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	var (
		pharmacy *models.Pharmacy
		key      string
	)
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		pharmacy = &models.Pharmacy{
			Name:            strings.TrimSpace(req.Name),
			Address:         req.Address,
			Phone:           req.Phone,
			Email:           req.Email,
			SubscriptionFee: req.SubscriptionFee,
		}
		if _, err := repo.Create(ctx, pharmacy); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pharmacy")
		}

		expiresAt := s.now().AddDate(0, req.LicenseMonths, 0)
		key, err = s.codec.Encode(licensing.Payload{
			PharmacyID: pharmacy.ID,
			ExpiresAt:  expiresAt,
			MachineID:  licensing.OpenMachineID,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode license key")
		}

		pharmacyID := pharmacy.ID
		if _, err := s.users.Create(ctx, users.CreateUserDTO{
			Email:        strings.ToLower(strings.TrimSpace(req.AdminEmail)),
			PasswordHash: hash,
			FullName:     strings.TrimSpace(req.AdminFullName),
			Role:         enums.UserRoleAdmin,
			PharmacyID:   &pharmacyID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin user")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, pharmacy.ID, enums.AuditActionPharmacyOnboard, "pharmacy onboarded")

	return &OnboardResponse{
		Pharmacy:     FromModel(pharmacy),
		LicenseKey:   key,
		AdminEmail:   strings.ToLower(strings.TrimSpace(req.AdminEmail)),
		TempPassword: tempPassword,
	}, nil
}

// Renew stacks the purchased duration on the stored expiry, even when the
// license has already lapsed, and cuts a fresh key embedding the new expiry
// when requested or when a machine binding is supplied.
func (s *service) Renew(ctx context.Context, pharmacyID uint, req RenewRequest) (*RenewResponse, error) {
	pharmacy, err := s.repo.FindByID(ctx, pharmacyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pharmacy")
	}

	base := s.now()
	if pharmacy.LicenseExpiresAt != nil {
		base = *pharmacy.LicenseExpiresAt
	}
	expiresAt := base.AddDate(0, req.Months, 0)

	binding := licensing.OpenMachineID
	if req.MachineID != nil && strings.TrimSpace(*req.MachineID) != "" {
		binding = strings.TrimSpace(*req.MachineID)
	}

	var newKey *string
	keyText := pharmacy.LicenseKey()
	if req.RegenerateKey || req.MachineID != nil || keyText == "" {
		generated, err := s.codec.Encode(licensing.Payload{
			PharmacyID: pharmacy.ID,
			ExpiresAt:  expiresAt,
			MachineID:  binding,
		})
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode license key")
		}
		keyText = generated
		newKey = &generated
	}

	startedAt := s.now()
	if pharmacy.LicenseStartedAt != nil {
		startedAt = *pharmacy.LicenseStartedAt
	}
	isActive := pharmacy.IsActive
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateLicense(ctx, pharmacy.ID, keyText, startedAt, expiresAt, isActive); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store license")
		}
		if err := repo.AddPayment(ctx, pharmacy.ID, req.AmountPaid); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, pharmacy.ID, enums.AuditActionLicenseRenew, "license renewed")

	return &RenewResponse{LicenseKey: newKey, ExpiresAt: expiresAt}, nil
}

// Suspend deactivates the tenant and revokes every staff token so cached
// sessions die with the subscription.
func (s *service) Suspend(ctx context.Context, pharmacyID uint) error {
	if err := s.setActive(ctx, pharmacyID, false); err != nil {
		return err
	}

	staff, err := s.users.ListByPharmacy(ctx, pharmacyID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list staff")
	}
	for _, user := range staff {
		if err := s.users.BumpTokenVersion(ctx, user.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke tokens")
		}
	}

	s.recordAudit(ctx, pharmacyID, enums.AuditActionPharmacySuspend, "pharmacy suspended")
	return nil
}

func (s *service) Unsuspend(ctx context.Context, pharmacyID uint) error {
	if err := s.setActive(ctx, pharmacyID, true); err != nil {
		return err
	}
	s.recordAudit(ctx, pharmacyID, enums.AuditActionPharmacyResume, "pharmacy unsuspended")
	return nil
}

func (s *service) List(ctx context.Context) ([]PharmacyDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pharmacies")
	}
	out := make([]PharmacyDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *FromModel(&rows[i]))
	}
	return out, nil
}

func (s *service) setActive(ctx context.Context, pharmacyID uint, active bool) error {
	if _, err := s.repo.FindByID(ctx, pharmacyID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "pharmacy not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pharmacy")
	}
	if err := s.repo.SetActive(ctx, pharmacyID, active); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pharmacy")
	}
	return nil
}

func (s *service) recordAudit(ctx context.Context, pharmacyID uint, action enums.AuditAction, details string) {
	if s.audit == nil {
		return
	}
	id := pharmacyID
	_ = s.audit.Record(ctx, models.AuditLog{
		PharmacyID: &id,
		Action:     action,
		Entity:     "pharmacy",
		EntityID:   &id,
		Details:    &details,
	})
}

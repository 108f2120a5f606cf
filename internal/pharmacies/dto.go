package pharmacies

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxpos/pharmacare-backend/pkg/db/models"
)

// PharmacyDTO is the transport shape of a pharmacy row.
type PharmacyDTO struct {
	ID               uint            `json:"id"`
	Name             string          `json:"name"`
	Address          *string         `json:"address,omitempty"`
	Phone            *string         `json:"phone,omitempty"`
	Email            *string         `json:"email,omitempty"`
	LicenseExpiresAt *time.Time      `json:"licenseExpiresAt,omitempty"`
	LicenseStartedAt *time.Time      `json:"licenseStartedAt,omitempty"`
	IsActive         bool            `json:"isActive"`
	SubscriptionFee  decimal.Decimal `json:"subscriptionFee"`
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func FromModel(p *models.Pharmacy) *PharmacyDTO {
	if p == nil {
		return nil
	}
	return &PharmacyDTO{
		ID:               p.ID,
		Name:             p.Name,
		Address:          p.Address,
		Phone:            p.Phone,
		Email:            p.Email,
		LicenseExpiresAt: p.LicenseExpiresAt,
		LicenseStartedAt: p.LicenseStartedAt,
		IsActive:         p.IsActive,
		SubscriptionFee:  p.SubscriptionFee,
		TotalPaid:        p.TotalPaid,
		CreatedAt:        p.CreatedAt,
	}
}

// ActivateRequest carries the key text submitted by the desktop client.
type ActivateRequest struct {
	LicenseKey string `json:"licenseKey" validate:"required"`
}

// ActivateResponse confirms a successful binding.
type ActivateResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// LicenseStatusResponse summarizes the install's license for the settings UI.
type LicenseStatusResponse struct {
	Activated bool       `json:"activated"`
	IsActive  bool       `json:"isActive"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	DaysLeft  int        `json:"daysLeft"`
}

// MachineIDResponse exposes the fingerprint operators embed when cutting keys.
type MachineIDResponse struct {
	MachineID string `json:"machineId"`
}

// OnboardRequest provisions a new pharmacy with its first admin.
type OnboardRequest struct {
	Name            string          `json:"name" validate:"required"`
	Address         *string         `json:"address,omitempty"`
	Phone           *string         `json:"phone,omitempty"`
	Email           *string         `json:"email,omitempty"`
	AdminEmail      string          `json:"adminEmail" validate:"required,email"`
	AdminFullName   string          `json:"adminFullName" validate:"required"`
	SubscriptionFee decimal.Decimal `json:"subscriptionFee"`
	LicenseMonths   int             `json:"licenseMonths" validate:"required,gt=0"`
}

// OnboardResponse returns the provisioned tenant, the unbound license key,
// and the one-time admin credentials.
type OnboardResponse struct {
	Pharmacy     *PharmacyDTO `json:"pharmacy"`
	LicenseKey   string       `json:"licenseKey"`
	AdminEmail   string       `json:"adminEmail"`
	TempPassword string       `json:"tempPassword"`
}

// RenewRequest extends a pharmacy's license. Supplying machineId regenerates
// the key bound to that fingerprint; isActive, when present, overrides the
// stored activation flag in either direction.
type RenewRequest struct {
	Months        int             `json:"months" validate:"required,gt=0"`
	RegenerateKey bool            `json:"regenerateKey"`
	MachineID     *string         `json:"machineId,omitempty"`
	IsActive      *bool           `json:"isActive,omitempty"`
	AmountPaid    decimal.Decimal `json:"amountPaid"`
}

// RenewResponse reports the new expiry and, when regenerated, the new key.
type RenewResponse struct {
	LicenseKey *string   `json:"licenseKey,omitempty"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

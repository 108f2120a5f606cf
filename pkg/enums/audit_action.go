package enums

import "fmt"

// AuditAction labels an entry in the audit log.
type AuditAction string

const (
	AuditActionLogin            AuditAction = "LOGIN"
	AuditActionPasswordChange   AuditAction = "PASSWORD_CHANGE"
	AuditActionLicenseActivate  AuditAction = "LICENSE_ACTIVATE"
	AuditActionLicenseRenew     AuditAction = "LICENSE_RENEW"
	AuditActionPharmacySuspend  AuditAction = "PHARMACY_SUSPEND"
	AuditActionPharmacyResume   AuditAction = "PHARMACY_RESUME"
	AuditActionPharmacyOnboard  AuditAction = "PHARMACY_ONBOARD"
	AuditActionSaleCreate       AuditAction = "SALE_CREATE"
	AuditActionMedicineCreate   AuditAction = "MEDICINE_CREATE"
	AuditActionMedicineUpdate   AuditAction = "MEDICINE_UPDATE"
	AuditActionMedicineDelete   AuditAction = "MEDICINE_DELETE"
	AuditActionBatchReceive     AuditAction = "BATCH_RECEIVE"
	AuditActionExpenseCreate    AuditAction = "EXPENSE_CREATE"
	AuditActionUserCreate       AuditAction = "USER_CREATE"
	AuditActionCredentialsReset AuditAction = "CREDENTIALS_RESET"
)

var validAuditActions = []AuditAction{
	AuditActionLogin,
	AuditActionPasswordChange,
	AuditActionLicenseActivate,
	AuditActionLicenseRenew,
	AuditActionPharmacySuspend,
	AuditActionPharmacyResume,
	AuditActionPharmacyOnboard,
	AuditActionSaleCreate,
	AuditActionMedicineCreate,
	AuditActionMedicineUpdate,
	AuditActionMedicineDelete,
	AuditActionBatchReceive,
	AuditActionExpenseCreate,
	AuditActionUserCreate,
	AuditActionCredentialsReset,
}

// String implements fmt.Stringer.
func (a AuditAction) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AuditAction.
func (a AuditAction) IsValid() bool {
	for _, candidate := range validAuditActions {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAuditAction converts raw input into an AuditAction.
func ParseAuditAction(value string) (AuditAction, error) {
	for _, candidate := range validAuditActions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit action %q", value)
}

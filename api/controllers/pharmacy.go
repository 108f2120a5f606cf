package controllers

import (
	"net/http"

	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/pharmacies"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
	"github.com/rxpos/pharmacare-backend/pkg/metrics"
)

// PharmacyMachineID prints the install's fingerprint. Unauthenticated: the
// lock screen needs it before anyone can log in or activate.
func PharmacyMachineID(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.MachineID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// PharmacyLicenseActivate binds a submitted key to this install.
func PharmacyLicenseActivate(svc pharmacies.Service, gm *metrics.GateMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pharmacies.ActivateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Activate(r.Context(), body)
		if err != nil {
			gm.IncActivation("failure")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gm.IncActivation("success")
		responses.WriteSuccess(w, result)
	}
}

// PharmacyLicenseStatus reports the current license state for the lock screen.
func PharmacyLicenseStatus(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.LicenseStatus(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

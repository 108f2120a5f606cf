package controllers

import (
	"net/http"

	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/pharmacies"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

// AdminPharmacyOnboard provisions a pharmacy, its admin account, and an
// unbound license key in one call.
func AdminPharmacyOnboard(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pharmacies.OnboardRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Onboard(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AdminPharmacyRenew stacks purchased months onto a tenant's license.
func AdminPharmacyRenew(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body pharmacies.RenewRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Renew(r.Context(), id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminPharmacySuspend deactivates a tenant and revokes staff sessions.
func AdminPharmacySuspend(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Suspend(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "pharmacy suspended"})
	}
}

// AdminPharmacyUnsuspend restores a suspended tenant.
func AdminPharmacyUnsuspend(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Unsuspend(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "pharmacy unsuspended"})
	}
}

// AdminPharmacyList returns every tenant.
func AdminPharmacyList(svc pharmacies.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "pharmacy service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"net/http"

	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/users"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

// AdminUserCreate provisions a staff account with a one-time password.
func AdminUserCreate(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body users.CreateStaffRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.CreateStaff(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// AdminUserResetCredentials rotates a staff password and kills live sessions.
func AdminUserResetCredentials(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ResetCredentials(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminUserList returns the staff of one pharmacy.
func AdminUserList(svc users.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "users service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pharmacyID, err := validators.ParseQueryInt(r, "pharmacyId", 0, 1, 1<<31)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if pharmacyID == 0 {
			err := pkgerrors.New(pkgerrors.CodeValidation, "pharmacyId query parameter is required")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListByPharmacy(r.Context(), uint(pharmacyID))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"net/http"

	"github.com/rxpos/pharmacare-backend/api/middleware"
	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/auth"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
	"github.com/rxpos/pharmacare-backend/pkg/metrics"
)

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc auth.Service, gm *metrics.GateMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.LoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body)
		if err != nil {
			gm.IncLogin("failure")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gm.IncLogin("success")
		responses.WriteSuccess(w, result)
	}
}

// AuthChangePassword rotates the caller's password and hands back a token
// minted against the bumped token version.
func AuthChangePassword(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body auth.ChangePasswordRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		userID := middleware.UserIDFromContext(r.Context())
		result, err := svc.ChangePassword(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

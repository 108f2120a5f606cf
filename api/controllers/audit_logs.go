package controllers

import (
	"net/http"
	"strings"

	"github.com/rxpos/pharmacare-backend/api/middleware"
	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/audit"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

// AuditLogList returns the caller's pharmacy audit trail, newest first.
// SUPER_ADMIN sees every tenant unless narrowed with ?pharmacyId.
func AuditLogList(svc audit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "audit service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<31)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		filter := audit.ListFilter{Limit: limit, Offset: offset}

		if middleware.RoleFromContext(ctx) == string(enums.UserRoleSuperAdmin) {
			queried, err := validators.ParseQueryInt(r, "pharmacyId", 0, 1, 1<<31)
			if err != nil {
				responses.WriteError(ctx, logg, w, err)
				return
			}
			if queried > 0 {
				pharmacyID := uint(queried)
				filter.PharmacyID = &pharmacyID
			}
		} else {
			pharmacyID := middleware.PharmacyIDFromContext(ctx)
			filter.PharmacyID = &pharmacyID
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("action")); raw != "" {
			action := enums.AuditAction(strings.ToUpper(raw))
			filter.Action = &action
		}

		result, err := svc.List(ctx, filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/rxpos/pharmacare-backend/api/middleware"
	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/expenses"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

func ExpenseCreate(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "expenses service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body expenses.CreateExpenseRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Create(ctx, middleware.PharmacyIDFromContext(ctx), middleware.UserIDFromContext(ctx), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func ExpenseList(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "expenses service unavailable")
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

		filter := expenses.ListFilter{Limit: limit, Offset: offset}
		if raw := strings.TrimSpace(r.URL.Query().Get("category")); raw != "" {
			category := enums.ExpenseCategory(strings.ToUpper(raw))
			filter.Category = &category
		}

		ctx := r.Context()
		result, err := svc.List(ctx, middleware.PharmacyIDFromContext(ctx), filter)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ExpenseDelete(svc expenses.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "expenses service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if err := svc.Delete(ctx, middleware.PharmacyIDFromContext(ctx), id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "expense deleted"})
	}
}

package controllers

import (
	"net/http"

	"github.com/rxpos/pharmacare-backend/api/middleware"
	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/customers"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

func CustomerCreate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body customers.CreateCustomerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Create(ctx, middleware.PharmacyIDFromContext(ctx), body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

func CustomerGet(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Get(ctx, middleware.PharmacyIDFromContext(ctx), id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerList(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable")
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
		result, err := svc.List(ctx, middleware.PharmacyIDFromContext(ctx), customers.ListFilter{
			Search: validators.SanitizeString(r.URL.Query().Get("search"), 100),
			Limit:  limit,
			Offset: offset,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerUpdate(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body customers.UpdateCustomerRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Update(ctx, middleware.PharmacyIDFromContext(ctx), id, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func CustomerDelete(svc customers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "customers service unavailable")
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
		responses.WriteSuccess(w, map[string]string{"message": "customer deleted"})
	}
}

package controllers

import (
	"net/http"
	"strings"

	"github.com/rxpos/pharmacare-backend/api/middleware"
	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/api/validators"
	"github.com/rxpos/pharmacare-backend/internal/medicines"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

// MedicineCreate adds a medicine to the caller's catalog.
func MedicineCreate(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body medicines.CreateMedicineRequest
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

// MedicineGet loads one medicine with its batches.
func MedicineGet(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
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

// MedicineList returns the catalog with optional search and paging.
func MedicineList(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter, err := medicineFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
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

// MedicineUpdate applies partial edits.
func MedicineUpdate(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body medicines.UpdateMedicineRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.Update(ctx, middleware.PharmacyIDFromContext(ctx), middleware.UserIDFromContext(ctx), id, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MedicineDelete removes a medicine and its batches.
func MedicineDelete(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if err := svc.Delete(ctx, middleware.PharmacyIDFromContext(ctx), middleware.UserIDFromContext(ctx), id); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"message": "medicine deleted"})
	}
}

// MedicineReceiveBatch records an incoming stock lot.
func MedicineReceiveBatch(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := validators.ParseIDParam(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body medicines.ReceiveBatchRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.ReceiveBatch(ctx, middleware.PharmacyIDFromContext(ctx), middleware.UserIDFromContext(ctx), id, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// MedicineLowStock lists medicines at or under their reorder level.
func MedicineLowStock(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.LowStock(ctx, middleware.PharmacyIDFromContext(ctx))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// MedicineExpiringBatches lists stocked batches expiring within ?days.
func MedicineExpiringBatches(svc medicines.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			err := pkgerrors.New(pkgerrors.CodeInternal, "medicines service unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		days, err := validators.ParseQueryInt(r, "days", 30, 1, 365)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		result, err := svc.ExpiringBatches(ctx, middleware.PharmacyIDFromContext(ctx), days)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func medicineFilterFromQuery(r *http.Request) (medicines.ListFilter, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 200)
	if err != nil {
		return medicines.ListFilter{}, err
	}
	offset, err := validators.ParseQueryInt(r, "offset", 0, 0, 1<<31)
	if err != nil {
		return medicines.ListFilter{}, err
	}

	filter := medicines.ListFilter{
		Search: validators.SanitizeString(r.URL.Query().Get("search"), 100),
		Limit:  limit,
		Offset: offset,
	}
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		filter.Category = &category
	}
	return filter, nil
}

package middleware

import "context"

type contextKey string

const (
	ctxUserID     contextKey = "user_id"
	ctxRole       contextKey = "actor_role"
	ctxPharmacyID contextKey = "pharmacy_id"
)

func UserIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxUserID).(uint); ok {
		return v
	}
	return 0
}

func RoleFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxRole).(string); ok {
		return v
	}
	return ""
}

// PharmacyIDFromContext returns the tenant id, zero when the actor is not
// attached to a pharmacy.
func PharmacyIDFromContext(ctx context.Context) uint {
	if ctx == nil {
		return 0
	}
	if v, ok := ctx.Value(ctxPharmacyID).(uint); ok {
		return v
	}
	return 0
}

// WithUserID injects the user identifier into the context.
func WithUserID(ctx context.Context, userID uint) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxUserID, userID)
}

// WithRole injects the actor role into the context.
func WithRole(ctx context.Context, role string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxRole, role)
}

// WithPharmacyID injects the tenant identifier into the context for downstream handlers.
func WithPharmacyID(ctx context.Context, pharmacyID uint) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPharmacyID, pharmacyID)
}

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rxpos/pharmacare-backend/api/responses"
	pkgAuth "github.com/rxpos/pharmacare-backend/pkg/auth"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

// UserSource re-fetches the token subject so revocations take effect on the
// next request rather than at token expiry.
type UserSource interface {
	GetUserByID(ctx context.Context, id uint) (*models.User, error)
}

// Auth validates a bearer token, re-fetches the user, and seeds the request
// context with the verified identity.
//
// Tokens carry the token_version in force when they were minted; any
// mismatch against the persisted counter means credentials changed since,
// and the client gets a distinct stale-token reason so it can explain the
// forced logout instead of showing a generic session-expired message.
func Auth(cfg config.JWTConfig, users UserSource, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := BearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			user, err := users.GetUserByID(r.Context(), claims.UserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user"))
				return
			}
			if user == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user no longer exists"))
				return
			}
			if user.TokenVersion != claims.TokenVersion {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeTokenStale, "credentials changed, please log in again"))
				return
			}
			if !user.IsSuperAdmin() && user.PharmacyID == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user has no pharmacy"))
				return
			}

			ctx := WithUserID(r.Context(), user.ID)
			ctx = WithRole(ctx, string(user.Role))
			if user.PharmacyID != nil {
				ctx = WithPharmacyID(ctx, *user.PharmacyID)
			}

			if logg != nil {
				fields := map[string]any{
					"user_id":    user.ID,
					"actor_role": string(user.Role),
				}
				if user.PharmacyID != nil {
					fields["pharmacy_id"] = *user.PharmacyID
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the raw token from the Authorization header, empty
// when absent.
func BearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}

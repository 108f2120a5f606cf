package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rxpos/pharmacare-backend/api/responses"
	pkgAuth "github.com/rxpos/pharmacare-backend/pkg/auth"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/enums"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/licensing"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
	"github.com/rxpos/pharmacare-backend/pkg/metrics"
)

// licenseBypassPaths skip the gate entirely: login has to work on a
// suspended install, and the activation/machine-id endpoints are the only
// way out of an unlicensed state.
var licenseBypassPaths = []string{
	"/api/auth/login",
	"/api/pharmacy/license/activate",
	"/api/pharmacy/machine-id",
}

// PharmacySource loads the single tenant row of this install.
type PharmacySource interface {
	FirstPharmacy(ctx context.Context) (*models.Pharmacy, error)
}

// Fingerprinter computes the current machine fingerprint.
type Fingerprinter func() (string, error)

// Clock supplies the current time, overridable in tests.
type Clock func() time.Time

// License gates every request on the install's license state. The decision
// chain is strictly ordered: super-admin exemption, fresh-install pass,
// suspension, missing key, undecodable key, expiry. Each deny is returned
// synchronously on every offending request with the flat 403 body.
func License(cfg config.JWTConfig, pharmacies PharmacySource, codec *licensing.Codec, fingerprint Fingerprinter, now Clock, gm *metrics.GateMetrics, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, bypass := range licenseBypassPaths {
				if strings.Contains(r.URL.Path, bypass) {
					next.ServeHTTP(w, r)
					return
				}
			}

			ctx := r.Context()

			if isSuperAdmin(ctx, cfg, r) {
				gm.IncDecision("allow")
				next.ServeHTTP(w, r)
				return
			}

			pharmacy, err := pharmacies.FirstPharmacy(ctx)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pharmacy"))
				return
			}
			if pharmacy == nil {
				// fresh install, nothing to license yet
				gm.IncDecision("allow")
				next.ServeHTTP(w, r)
				return
			}

			if !pharmacy.IsActive {
				deny(ctx, w, gm, logg, pkgerrors.CodeAccountSuspended, "Your account is suspended. Please contact support.")
				return
			}

			key := pharmacy.LicenseKey()
			if key == "" {
				deny(ctx, w, gm, logg, pkgerrors.CodeLicenseMissing, "No license found. Please activate your license.")
				return
			}

			machineID, err := fingerprint()
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "machine fingerprint"))
				return
			}

			payload, err := codec.Decode(key, machineID)
			if err != nil {
				deny(ctx, w, gm, logg, pkgerrors.CodeLicenseInvalid, "License is invalid for this machine.")
				return
			}

			if payload.ExpiresAt.Before(now()) {
				msg := fmt.Sprintf("License expired on %s. Please renew your license.", payload.ExpiresAt.Format("2006-01-02"))
				deny(ctx, w, gm, logg, pkgerrors.CodeLicenseExpired, msg)
				return
			}

			gm.IncDecision("allow")
			next.ServeHTTP(w, r)
		})
	}
}

// isSuperAdmin is a best-effort check: the gate runs before route-level auth,
// so it decodes the bearer token itself and ignores any failure.
func isSuperAdmin(ctx context.Context, cfg config.JWTConfig, r *http.Request) bool {
	if RoleFromContext(ctx) == string(enums.UserRoleSuperAdmin) {
		return true
	}
	token := BearerToken(r)
	if token == "" {
		return false
	}
	claims, err := pkgAuth.ParseAccessToken(cfg, token)
	if err != nil {
		return false
	}
	return claims.Role == enums.UserRoleSuperAdmin
}

func deny(ctx context.Context, w http.ResponseWriter, gm *metrics.GateMetrics, logg *logger.Logger, code pkgerrors.Code, message string) {
	gm.IncDecision(string(code))
	if logg != nil {
		ctx = logg.WithFields(ctx, map[string]any{"deny_code": string(code)})
		logg.Warn(ctx, "license.gate.denied")
	}
	responses.WriteLicenseDeny(w, code, message)
}

package controllers

import (
	"net/http"

	"github.com/rxpos/pharmacare-backend/api/responses"
	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db"
	pkgerrors "github.com/rxpos/pharmacare-backend/pkg/errors"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
	"github.com/rxpos/pharmacare-backend/pkg/redis"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PharmaCare-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady checks the database and, when configured, redis.
func HealthReady(cfg *config.Config, database db.Pinger, cache redis.Pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-PharmaCare-Env", cfg.App.Env)

		if database == nil {
			err := pkgerrors.New(pkgerrors.CodeDependency, "database unavailable")
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := database.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database ping"))
			return
		}

		checks := map[string]string{"database": "ok"}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis ping"))
				return
			}
			checks["redis"] = "ok"
		}

		checks["status"] = "ready"
		responses.WriteSuccess(w, checks)
	}
}

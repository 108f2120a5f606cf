package migrate

import (
	"context"
	"fmt"

	"github.com/rxpos/pharmacare-backend/pkg/config"
	"github.com/rxpos/pharmacare-backend/pkg/db"
	"github.com/rxpos/pharmacare-backend/pkg/db/models"
	"github.com/rxpos/pharmacare-backend/pkg/logger"
)

// MaybeRun applies schema automatically where the deployment expects it.
//
// SQLite installs always auto-migrate: the embedded file ships with the
// POS installer and there is no operator around to run goose by hand.
// Postgres deployments auto-run goose only in dev with the feature flag on.
func MaybeRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.DB.IsSQLite() {
		ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.DB.Driver})
		logg.Info(ctx, "running schema auto-migration (embedded sqlite)")
		if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
			return fmt.Errorf("auto-migrating sqlite schema: %w", err)
		}
		return nil
	}

	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	meta := map[string]any{"env": cfg.App.Env, "dir": DefaultDir}
	ctx = logg.WithFields(ctx, meta)
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DialectFor(cfg.DB.Driver), DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}

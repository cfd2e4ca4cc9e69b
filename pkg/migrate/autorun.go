package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
)

// MaybeRunDev executes migrations automatically when the app is running in dev mode and
// the feature flag is enabled. Sqlite databases are always bootstrapped.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if cfg.DB.IsSQLite() {
		return Bootstrap(ctx, cfg, logg, client)
	}
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}
	return Bootstrap(ctx, cfg, logg, client)
}

// Bootstrap brings the schema to the latest version and seeds system roles.
func Bootstrap(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	meta := map[string]any{"env": cfg.App.Env, "driver": cfg.DB.Driver}
	ctx = logg.WithFields(ctx, meta)

	if cfg.DB.IsSQLite() {
		logg.Info(ctx, "auto-migrating sqlite schema")
		if err := AutoMigrateSQLite(ctx, client.DB()); err != nil {
			return err
		}
	} else {
		sqlDB, err := client.DB().DB()
		if err != nil {
			return fmt.Errorf("extracting sql.DB: %w", err)
		}
		logg.Info(ctx, "running Goose migrations (dev auto-run)")
		if err := Run(ctx, sqlDB, "up"); err != nil {
			return fmt.Errorf("running goose up: %w", err)
		}
	}

	created, err := SeedSystemRoles(ctx, client.DB())
	if err != nil {
		return fmt.Errorf("seeding system roles: %w", err)
	}
	logg.Info(logg.WithField(ctx, "roles_created", created), "migrations completed")
	return nil
}

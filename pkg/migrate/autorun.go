package migrate

import (
	"context"
	"fmt"

	"github.com/plywoodshop/storefront/pkg/config"
	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/logger"
)

// Models lists every table the storefront owns, in dependency order.
func Models() []any {
	return []any{
		&models.Product{},
		&models.Order{},
		&models.OrderItem{},
		&models.BlogPost{},
	}
}

// MaybeRunDev migrates automatically when the app runs in dev mode with the
// feature flag enabled. SQLite databases get gorm's AutoMigrate because the
// SQL files target Postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "sqlite": cfg.FeatureFlags.UseSQLite})

	if cfg.FeatureFlags.UseSQLite {
		logg.Info(ctx, "migrate.automigrate_start")
		if err := client.DB().WithContext(ctx).AutoMigrate(Models()...); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		logg.Info(ctx, "migrate.automigrate_done")
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	runner, err := NewPostgresRunner(sqlDB, logg)
	if err != nil {
		return err
	}
	logg.Info(ctx, "migrate.goose_up_start")
	if err := runner.Up(ctx); err != nil {
		return err
	}
	logg.Info(ctx, "migrate.goose_up_done")
	return nil
}

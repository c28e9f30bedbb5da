package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/plywoodshop/storefront/pkg/config"
	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/plywoodshop/storefront/pkg/migrate"
	"github.com/plywoodshop/storefront/pkg/security"
)

const usage = `usage: migrate -cmd <command> [flags]

commands that need no database:
  create         -name <name> [-dir <dir>]   write an empty migration
  validate       [-dir <dir>]                check migration files
  hash-password  -password <plain>           print an argon2id hash for PLYWOOD_ADMIN_PASSWORD_HASH

commands that use PLYWOOD_DB_*:
  up | down | status | version -version <YYYYMMDDHHMMSS>
`

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate", Level: logger.ParseLevel("")})
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "up|down|status|version|create|validate|hash-password")
	dir := flag.String("dir", migrate.SourceDir, "migration source directory for create and validate")
	name := flag.String("name", "", "migration name for create")
	target := flag.String("version", "", "target version for -cmd=version")
	password := flag.String("password", "", "plain password for hash-password")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	// These run before config.Load so they work on a machine with no admin or
	// database settings yet.
	switch *cmd {
	case "hash-password":
		var cost config.PasswordConfig
		must(ctx, logg, "password config", envconfig.Process(config.EnvPrefix, &cost))
		if strings.TrimSpace(*password) == "" {
			exitUsage("hash-password needs -password")
		}
		hash, err := security.HashPassword(*password, cost)
		must(ctx, logg, "hash password", err)
		fmt.Println(hash)
		return
	case "create":
		if *name == "" {
			exitUsage("create needs -name")
		}
		path, err := migrate.CreateSQLMigration(*dir, *name, time.Now())
		must(ctx, logg, "create migration", err)
		fmt.Println("created", path)
		return
	case "validate":
		must(ctx, logg, "validate migrations", migrate.Validate(os.DirFS(*dir)))
		fmt.Println("migrations ok")
		return
	}

	cfg, err := config.Load()
	must(ctx, logg, "config", err)
	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	must(ctx, logg, "database", err)
	defer dbClient.Close()

	if cfg.FeatureFlags.UseSQLite {
		// The goose files are Postgres SQL; SQLite gets the gorm schema.
		if *cmd != "up" {
			exitUsage("sqlite only supports -cmd=up")
		}
		must(ctx, logg, "sqlite automigrate", dbClient.DB().WithContext(ctx).AutoMigrate(migrate.Models()...))
		logg.Info(ctx, "migrate.automigrate_done")
		return
	}

	sqlDB, err := dbClient.DB().DB()
	must(ctx, logg, "sql handle", err)
	runner, err := migrate.NewPostgresRunner(sqlDB, logg)
	must(ctx, logg, "goose provider", err)

	switch *cmd {
	case "up":
		must(ctx, logg, "migrate up", runner.Up(ctx))
	case "down":
		must(ctx, logg, "migrate down", runner.Down(ctx))
	case "status":
		must(ctx, logg, "migrate status", runner.Status(ctx, os.Stdout))
	case "version":
		if *target == "" {
			exitUsage("version needs -version")
		}
		must(ctx, logg, "migrate to version", runner.MigrateTo(ctx, *target))
	default:
		exitUsage("unknown -cmd " + *cmd)
	}

	current, err := runner.Version(ctx)
	must(ctx, logg, "read version", err)
	logg.Info(logg.WithField(ctx, "version", current), "migrate.done")
}

func must(ctx context.Context, logg *logger.Logger, step string, err error) {
	if err == nil {
		return
	}
	logg.Error(logg.WithField(ctx, "step", step), "migrate.failed", err)
	os.Exit(1)
}

func exitUsage(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	fmt.Fprint(os.Stderr, usage)
	os.Exit(2)
}

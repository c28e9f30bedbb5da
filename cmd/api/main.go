package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/plywoodshop/storefront/api/routes"
	"github.com/plywoodshop/storefront/api/views"
	"github.com/plywoodshop/storefront/internal/auth"
	"github.com/plywoodshop/storefront/internal/blog"
	"github.com/plywoodshop/storefront/internal/cart"
	"github.com/plywoodshop/storefront/internal/checkout"
	"github.com/plywoodshop/storefront/internal/media"
	"github.com/plywoodshop/storefront/internal/orders"
	product "github.com/plywoodshop/storefront/internal/products"
	"github.com/plywoodshop/storefront/internal/quiz"
	"github.com/plywoodshop/storefront/pkg/config"
	"github.com/plywoodshop/storefront/pkg/db"
	"github.com/plywoodshop/storefront/pkg/db/models"
	"github.com/plywoodshop/storefront/pkg/instance"
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/plywoodshop/storefront/pkg/metrics"
	"github.com/plywoodshop/storefront/pkg/migrate"
	"github.com/plywoodshop/storefront/pkg/redis"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api", Level: logger.ParseLevel("")})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logg); err != nil {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) error {
	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}
	if cfg.App.IsProd() && !cfg.Admin.SecureCookie {
		logg.Warn(ctx, "admin session cookie is sent without Secure in prod; set PLYWOOD_ADMIN_SECURE_COOKIE")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(ctx, "redis not configured; carts and login limits stay in process memory")
	}

	m := metrics.New()
	deps, err := buildDependencies(cfg, logg, dbClient, redisClient, m)
	if err != nil {
		return err
	}

	addr := ":" + cfg.App.Port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logg.Info(ctx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildDependencies(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client, m *metrics.Metrics) (routes.Dependencies, error) {
	conn := dbClient.DB()

	var storage cart.Storage = cart.NewMemoryStorage()
	if redisClient != nil {
		redisStorage, err := cart.NewRedisStorage(redisClient, cfg.Cart.TTL)
		if err != nil {
			return routes.Dependencies{}, err
		}
		storage = redisStorage
	}

	authSvc, err := auth.NewService(cfg.Admin, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	products, err := product.NewService(product.NewRepository(conn))
	if err != nil {
		return routes.Dependencies{}, err
	}
	quizSvc, err := quiz.NewService(products)
	if err != nil {
		return routes.Dependencies{}, err
	}
	carts, err := cart.NewService(storage, logg,
		cart.WithProductLoader(products),
		cart.WithObserver(m.IncCartOp),
	)
	if err != nil {
		return routes.Dependencies{}, err
	}
	ordersRepo := orders.NewRepository(conn)
	ordersSvc, err := orders.NewService(ordersRepo)
	if err != nil {
		return routes.Dependencies{}, err
	}
	checkoutSvc, err := checkout.NewService(dbClient, carts, ordersRepo, logg, func(*models.Order) {
		m.IncOrders()
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	blogSvc, err := blog.NewService(blog.NewRepository(conn), blog.NewSanitizer())
	if err != nil {
		return routes.Dependencies{}, err
	}
	mediaSvc, err := media.NewService(media.Config{
		Dir:       cfg.Media.UploadDir,
		URLPrefix: cfg.Media.PublicURLPrefix,
		MaxBytes:  cfg.Media.MaxUploadBytes(),
	}, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	renderer, err := views.New()
	if err != nil {
		return routes.Dependencies{}, err
	}

	deps := routes.Dependencies{
		DB:       dbClient,
		Redis:    redisClient,
		Metrics:  m,
		Views:    renderer,
		Auth:     authSvc,
		Products: products,
		Quiz:     quizSvc,
		Cart:     carts,
		Checkout: checkoutSvc,
		Orders:   ordersSvc,
		Blog:     blogSvc,
		Media:    mediaSvc,
	}
	return deps, nil
}

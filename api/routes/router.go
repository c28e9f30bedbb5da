package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/plywoodshop/storefront/api/controllers"
	"github.com/plywoodshop/storefront/api/middleware"
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
	"github.com/plywoodshop/storefront/pkg/logger"
	"github.com/plywoodshop/storefront/pkg/metrics"
	"github.com/plywoodshop/storefront/pkg/redis"
)

// Dependencies are the services the router hands to controllers. Redis is
// optional; without it idempotency is skipped and login limits are kept in
// process memory.
type Dependencies struct {
	DB      controllers.Pinger
	Redis   *redis.Client
	Metrics *metrics.Metrics
	Views   *views.Renderer

	Auth     auth.Service
	Products product.Service
	Quiz     quiz.Service
	Cart     cart.Service
	Checkout checkout.Service
	Orders   orders.Service
	Blog     blog.Service
	Media    media.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(deps.Metrics),
	)

	var (
		idempotencyStore redis.IdempotencyStore
		limiter          middleware.RateLimiter
		readiness        = map[string]controllers.Pinger{"db": deps.DB}
	)
	if deps.Redis != nil {
		idempotencyStore = deps.Redis
		limiter = middleware.NewRedisRateLimiter(deps.Redis)
		readiness["redis"] = deps.Redis
	} else {
		limiter = middleware.NewLocalRateLimiter()
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"admin_login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginUsernameLimit,
	)
	cartCookie := controllers.CartCookie{
		Name:   cfg.Cart.CookieName,
		TTL:    cfg.Cart.TTL,
		Secure: cfg.Admin.SecureCookie,
	}
	replayable := func(ttl time.Duration) func(http.Handler) http.Handler {
		return middleware.Idempotency(idempotencyStore, middleware.IdempotencyOptions{
			TTL:         ttl,
			ScopeCookie: cfg.Cart.CookieName,
		}, logg)
	}
	sessionCookie := deps.Auth.CookieOptions().Name

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, readiness, logg))
	})
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	prefix := strings.TrimRight(cfg.Media.PublicURLPrefix, "/")
	if prefix == "" {
		prefix = "/uploads"
	}
	r.Handle(prefix+"/*", uploadsHandler(prefix, cfg.Media.UploadDir))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.Get("/filters", controllers.ProductFilterOptions(deps.Products, logg))
			r.Get("/{ref}", controllers.GetProduct(deps.Products, logg))
		})

		r.Post("/quiz/recommendations", controllers.QuizRecommend(deps.Quiz, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.GetCart(deps.Cart, cartCookie, logg))
			r.Delete("/", controllers.ClearCart(deps.Cart, cartCookie, logg))
			r.Post("/items", controllers.AddCartItem(deps.Cart, cartCookie, logg))
			r.Patch("/items/{lineId}", controllers.UpdateCartItem(deps.Cart, cartCookie, logg))
			r.Delete("/items/{lineId}", controllers.RemoveCartItem(deps.Cart, cartCookie, logg))
		})

		r.With(replayable(middleware.CheckoutReplayTTL)).Post("/checkout", controllers.Checkout(deps.Checkout, cartCookie, logg))

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", controllers.ListPublishedPosts(deps.Blog, logg))
			r.Get("/{slug}", controllers.GetPublishedPost(deps.Blog, logg))
		})
	})

	r.Route(controllers.AdminHomePath, func(r chi.Router) {
		r.Use(middleware.CrossOrigin())

		r.Get("/login", controllers.AdminLoginPage(deps.Auth, deps.Views, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, limiter, logg)).
			Post("/login", controllers.AdminLogin(deps.Auth, deps.Metrics, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminGuard(deps.Auth, middleware.AdminGuardOptions{
				CookieName: sessionCookie,
				LoginPath:  controllers.AdminLoginPath,
				Mode:       middleware.GuardRedirect,
			}, logg))
			r.Get("/", controllers.AdminDashboard(deps.Orders, deps.Products, deps.Blog, deps.Views, logg))
			r.Post("/logout", controllers.AdminLogout(deps.Auth))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(
			middleware.CrossOrigin(),
			middleware.AdminGuard(deps.Auth, middleware.AdminGuardOptions{
				CookieName: sessionCookie,
				Mode:       middleware.GuardJSON,
			}, logg),
		)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(deps.Products, logg))
			r.With(replayable(middleware.DefaultReplayTTL)).Post("/", controllers.AdminCreateProduct(deps.Products, logg))
			r.Get("/{id}", controllers.AdminGetProduct(deps.Products, logg))
			r.Patch("/{id}", controllers.AdminUpdateProduct(deps.Products, logg))
			r.Delete("/{id}", controllers.AdminDeleteProduct(deps.Products, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
			r.Get("/stats", controllers.AdminOrderStats(deps.Orders, logg))
			r.Get("/export.csv", controllers.AdminExportOrders(deps.Orders, logg))
			r.Get("/{id}", controllers.AdminGetOrder(deps.Orders, logg))
			r.Patch("/{id}/status", controllers.AdminUpdateOrderStatus(deps.Orders, deps.Metrics, logg))
		})

		r.Route("/posts", func(r chi.Router) {
			r.Get("/", controllers.AdminListPosts(deps.Blog, logg))
			r.With(replayable(middleware.DefaultReplayTTL)).Post("/", controllers.AdminCreatePost(deps.Blog, logg))
			r.Get("/{id}", controllers.AdminGetPost(deps.Blog, logg))
			r.Patch("/{id}", controllers.AdminUpdatePost(deps.Blog, logg))
			r.Delete("/{id}", controllers.AdminDeletePost(deps.Blog, logg))
		})

		r.Post("/uploads", controllers.AdminUpload(deps.Media, cfg.Media.MaxUploadBytes(), logg))
	})

	return r
}

// uploadsHandler serves stored images without directory listings.
func uploadsHandler(prefix, dir string) http.Handler {
	files := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		files.ServeHTTP(w, r)
	})
}

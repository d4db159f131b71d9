package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tortasnery/storefront/api/controllers"
	"github.com/tortasnery/storefront/api/middleware"
	"github.com/tortasnery/storefront/internal/auth"
	"github.com/tortasnery/storefront/internal/cart"
	"github.com/tortasnery/storefront/internal/categories"
	"github.com/tortasnery/storefront/internal/dashboard"
	"github.com/tortasnery/storefront/internal/orders"
	"github.com/tortasnery/storefront/internal/products"
	"github.com/tortasnery/storefront/internal/settings"
	"github.com/tortasnery/storefront/internal/users"
	"github.com/tortasnery/storefront/pkg/auth/session"
	"github.com/tortasnery/storefront/pkg/config"
	"github.com/tortasnery/storefront/pkg/enums"
	"github.com/tortasnery/storefront/pkg/logger"
	"github.com/tortasnery/storefront/pkg/metrics"
	"github.com/tortasnery/storefront/pkg/redis"
)

// Dependencies groups everything the router hands to controllers. Nil
// services answer with an internal error; a nil Redis disables rate
// limiting and idempotency replay.
type Dependencies struct {
	Config   *config.Config
	Logger   *logger.Logger
	Health   map[string]controllers.Pinger
	Redis    *redis.Client
	Sessions session.Checker
	Gatherer prometheus.Gatherer
	HTTP     *metrics.HTTPMetrics

	Auth       auth.Service
	Users      users.Service
	Products   products.Service
	Categories categories.Service
	Cart       cart.Service
	Orders     orders.Service
	Dashboard  dashboard.Service
	Settings   settings.Service
}

func NewRouter(d Dependencies) http.Handler {
	cfg, logg := d.Config, d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
		middleware.Logging(logg),
	)
	if d.HTTP != nil {
		r.Use(middleware.Metrics(d.HTTP))
	}

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)
	rateLimit := func(policy middleware.AuthRateLimitPolicy) func(http.Handler) http.Handler {
		if d.Redis == nil {
			return middleware.AuthRateLimit(policy, nil, logg)
		}
		return middleware.AuthRateLimit(policy, d.Redis, logg)
	}
	checkoutIdempotency := middleware.Idempotency(nil, 0, logg)
	if d.Redis != nil {
		checkoutIdempotency = middleware.Idempotency(d.Redis, middleware.CheckoutIdempotencyTTL, logg)
	}

	requireAuth := middleware.Auth(cfg.JWT, d.Sessions, logg)
	optionalAuth := middleware.OptionalAuth(cfg.JWT, d.Sessions, logg)
	cartID := middleware.CartID(cfg.Cart.TTL, cfg.JWT.CookieSecure, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Health))
	})

	if d.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ListProducts(d.Products, logg))
		r.Get("/products/featured", controllers.FeaturedProducts(d.Products, logg))
		r.Get("/products/{ref}", controllers.GetProduct(d.Products, logg))
		r.Get("/categories", controllers.ListCategories(d.Categories, logg))
		r.Get("/settings", controllers.GetSettings(d.Settings, logg))

		r.Group(func(r chi.Router) {
			r.Use(cartID)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(d.Cart, logg))
				r.Delete("/", controllers.ClearCart(d.Cart, logg))
				r.Post("/items", controllers.AddCartItem(d.Cart, logg))
				r.Delete("/items/{productId}", controllers.RemoveCartItem(d.Cart, logg))
			})
			r.With(optionalAuth, checkoutIdempotency).
				Post("/checkout", controllers.Checkout(d.Orders, d.Cart, cfg.Store, logg))
		})

		r.Route("/auth", func(r chi.Router) {
			r.With(rateLimit(loginPolicy)).Post("/login", controllers.AuthLogin(d.Auth, cfg.JWT, logg))
			r.With(rateLimit(registerPolicy)).Post("/register", controllers.AuthRegister(d.Auth, logg))
			r.With(optionalAuth).Post("/logout", controllers.AuthLogout(d.Auth, cfg.JWT, logg))
			r.With(requireAuth).Get("/me", controllers.AuthMe(d.Auth, logg))
		})
		r.With(requireAuth).Get("/me/orders", controllers.MyOrders(d.Orders, logg))

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))

			r.Get("/dashboard", controllers.AdminDashboard(d.Dashboard, logg))

			r.Route("/products", func(r chi.Router) {
				r.Get("/", controllers.AdminListProducts(d.Products, logg))
				r.Post("/", controllers.AdminCreateProduct(d.Products, logg))
				r.Post("/import", controllers.AdminImportProducts(d.Products, logg))
				r.Post("/backfill-slugs", controllers.AdminBackfillSlugs(d.Products, logg))
				r.Put("/{productId}", controllers.AdminUpdateProduct(d.Products, logg))
				r.Delete("/{productId}", controllers.AdminDeleteProduct(d.Products, logg))
				r.Put("/{productId}/featured", controllers.AdminToggleFeatured(d.Products, logg))
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", controllers.ListCategories(d.Categories, logg))
				r.Post("/", controllers.AdminCreateCategory(d.Categories, logg))
				r.Put("/{categoryId}", controllers.AdminUpdateCategory(d.Categories, logg))
				r.Delete("/{categoryId}", controllers.AdminDeleteCategory(d.Categories, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/", controllers.AdminListOrders(d.Orders, logg))
				r.Get("/recent", controllers.AdminRecentOrders(d.Dashboard, logg))
				r.Get("/pending-count", controllers.AdminPendingCount(d.Dashboard, logg))
				r.Get("/{orderId}", controllers.AdminGetOrder(d.Orders, logg))
				r.Put("/{orderId}/status", controllers.AdminUpdateOrderStatus(d.Orders, logg))
			})

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.AdminListUsers(d.Users, logg))
				r.Delete("/{userId}", controllers.AdminDeleteUser(d.Users, logg))
			})

			r.Put("/settings", controllers.AdminUpdateSettings(d.Settings, logg))
		})
	})

	return r
}

package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/bookstore-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/bookstore-backend/api/controllers/cart"
	ordercontrollers "github.com/angelmondragon/bookstore-backend/api/controllers/orders"
	"github.com/angelmondragon/bookstore-backend/api/middleware"
	"github.com/angelmondragon/bookstore-backend/internal/auth"
	"github.com/angelmondragon/bookstore-backend/internal/cart"
	"github.com/angelmondragon/bookstore-backend/internal/catalog"
	"github.com/angelmondragon/bookstore-backend/internal/notifications"
	"github.com/angelmondragon/bookstore-backend/internal/orders"
	"github.com/angelmondragon/bookstore-backend/internal/reviews"
	"github.com/angelmondragon/bookstore-backend/internal/wishlist"
	"github.com/angelmondragon/bookstore-backend/pkg/auth/session"
	"github.com/angelmondragon/bookstore-backend/pkg/config"
	"github.com/angelmondragon/bookstore-backend/pkg/enums"
	"github.com/angelmondragon/bookstore-backend/pkg/logger"
)

// RateLimiter is the fixed-window counter used by the auth endpoints.
type RateLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// IdempotencyStore persists replayable responses keyed by Idempotency-Key.
type IdempotencyStore interface {
	Get(context.Context, string) (string, error)
	SetNX(context.Context, string, any, time.Duration) (bool, error)
	IdempotencyKey(scope, id string) string
}

// Dependencies carries everything the HTTP surface needs. Nil Redis-backed
// stores disable rate limiting and idempotency, which tests rely on.
type Dependencies struct {
	Config *config.Config
	Logger *logger.Logger

	DB    controllers.Pinger
	Redis controllers.Pinger

	Sessions    session.AccessSessionChecker
	RateLimiter RateLimiter
	Idempotency IdempotencyStore
	Metrics     prometheus.Gatherer

	Auth          auth.Service
	Catalog       catalog.Service
	Cart          cart.Service
	Orders        orders.Service
	Reviews       reviews.Service
	Wishlist      wishlist.Service
	Notifications notifications.Service
}

func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.AllowedOrigins()),
	)

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

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    deps.DB,
			"redis": deps.Redis,
		}))
	})

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Metrics, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			if deps.RateLimiter != nil {
				r.With(middleware.AuthRateLimit(loginPolicy, deps.RateLimiter, logg)).Post("/login", controllers.AuthLogin(deps.Auth, logg))
				r.With(middleware.AuthRateLimit(registerPolicy, deps.RateLimiter, logg)).Post("/register", controllers.AuthRegister(deps.Auth, logg))
			} else {
				r.Post("/login", controllers.AuthLogin(deps.Auth, logg))
				r.Post("/register", controllers.AuthRegister(deps.Auth, logg))
			}
			r.Post("/refresh", controllers.AuthRefresh(deps.Auth, logg))
			r.Post("/logout", controllers.AuthLogout(deps.Auth, logg))
		})

		// Public catalog browsing.
		r.Get("/books", controllers.ListBooks(deps.Catalog, logg))
		r.Get("/books/{bookId}", controllers.GetBook(deps.Catalog, deps.Reviews, logg))
		r.Get("/books/{bookId}/reviews", controllers.ListBookReviews(deps.Reviews, logg))
		r.Get("/categories", controllers.ListCategories(deps.Catalog, logg))
		r.Get("/categories/{categoryId}/books", controllers.ListCategoryBooks(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
			if deps.Idempotency != nil {
				r.Use(middleware.Idempotency(deps.Idempotency, logg))
			}

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartcontrollers.CartFetch(deps.Cart, logg))
				r.Delete("/", cartcontrollers.CartClear(deps.Cart, logg))
				r.Post("/items", cartcontrollers.CartAddItem(deps.Cart, logg))
				r.Patch("/items/{bookId}", cartcontrollers.CartUpdateItem(deps.Cart, logg))
				r.Delete("/items/{bookId}", cartcontrollers.CartRemoveItem(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordercontrollers.Create(deps.Orders, logg))
				r.Get("/my", ordercontrollers.MyOrders(deps.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.Detail(deps.Orders, logg))
				r.Patch("/{orderId}/confirm", ordercontrollers.Confirm(deps.Orders, logg))
				r.Patch("/{orderId}/cancel", ordercontrollers.Cancel(deps.Orders, logg))

				r.Route("/admin", func(r chi.Router) {
					r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
					r.Get("/", ordercontrollers.AdminList(deps.Orders, logg))
					r.Patch("/{orderId}/status", ordercontrollers.AdminUpdateStatus(deps.Orders, logg))
					r.Patch("/{orderId}/refund", ordercontrollers.AdminRefund(deps.Orders, logg))
				})
			})

			r.Post("/books/{bookId}/reviews", controllers.CreateReview(deps.Reviews, logg))
			r.Delete("/reviews/{reviewId}", controllers.DeleteReview(deps.Reviews, logg))

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", controllers.WishlistList(deps.Wishlist, logg))
				r.Post("/{bookId}", controllers.WishlistAdd(deps.Wishlist, logg))
				r.Delete("/{bookId}", controllers.WishlistRemove(deps.Wishlist, logg))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
				r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Notifications, logg))
				r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Notifications, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
				r.Post("/books", controllers.AdminCreateBook(deps.Catalog, logg))
				r.Patch("/books/{bookId}", controllers.AdminUpdateBook(deps.Catalog, logg))
				r.Delete("/books/{bookId}", controllers.AdminDeleteBook(deps.Catalog, logg))
				r.Post("/categories", controllers.AdminCreateCategory(deps.Catalog, logg))
			})
		})
	})

	return r
}

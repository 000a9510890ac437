package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/vidrobox-backend/api/controllers"
	budgetcontrollers "github.com/angelmondragon/vidrobox-backend/api/controllers/budgets"
	customercontrollers "github.com/angelmondragon/vidrobox-backend/api/controllers/customers"
	ordercontrollers "github.com/angelmondragon/vidrobox-backend/api/controllers/orders"
	"github.com/angelmondragon/vidrobox-backend/api/middleware"
	"github.com/angelmondragon/vidrobox-backend/internal/auth"
	"github.com/angelmondragon/vidrobox-backend/internal/budgets"
	"github.com/angelmondragon/vidrobox-backend/internal/customers"
	"github.com/angelmondragon/vidrobox-backend/internal/orders"
	"github.com/angelmondragon/vidrobox-backend/pkg/auth/session"
	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/metrics"
	"github.com/angelmondragon/vidrobox-backend/pkg/redis"
)

const adminRole = "admin"

// Services groups the domain services exposed over HTTP.
type Services struct {
	Auth      auth.Service
	Orders    orders.Service
	Customers customers.Service
	Budgets   budgets.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessions session.OwnerLookup,
	gatherer prometheus.Gatherer,
	httpMetrics *metrics.HTTPMetrics,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, httpMetrics),
		middleware.CORS(cfg.App.PublicBaseURL, cfg.App.IsDev()),
	)

	limits := cfg.RateLimit
	loginPolicy := middleware.NewRateLimitPolicy("login", limits.LoginWindow, limits.LoginIPLimit, limits.LoginEmailLimit)
	quotePolicy := middleware.NewRateLimitPolicy("quote", limits.PublicWindow, limits.QuoteRequestsLimit, limits.QuoteRequestsLimit)
	messagePolicy := middleware.NewRateLimitPolicy("client-message", limits.PublicWindow, limits.ClientMessageLimit, 0)

	idempotent := middleware.Idempotency(redisClient, middleware.IdempotencyTTL, logg)
	idempotentBulk := middleware.Idempotency(redisClient, middleware.BulkIdempotencyTTL, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": redisClient,
		}))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Route("/budgets", func(r chi.Router) {
			r.With(middleware.RateLimit(quotePolicy, redisClient, logg), idempotent).
				Post("/", budgetcontrollers.PublicRequest(svc.Budgets, logg))
			r.Get("/{token}", budgetcontrollers.PublicView(svc.Budgets, logg))
			r.Post("/{token}/confirm", budgetcontrollers.PublicConfirm(svc.Budgets, logg))
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/{token}", ordercontrollers.PublicView(svc.Orders, logg))
			r.With(middleware.RateLimit(messagePolicy, redisClient, logg), idempotent).
				Post("/{token}/messages", ordercontrollers.ClientMessage(svc.Orders, logg))
		})
	})

	r.Route("/api/admin/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AdminLogin(svc.Auth, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, sessions, logg))
			r.Post("/logout", controllers.AdminLogout(svc.Auth, logg))
			r.Get("/me", controllers.AdminMe(svc.Auth, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessions, logg))
		r.Use(middleware.RequireRole(logg, adminRole))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.List(svc.Orders, logg))
			r.With(idempotent).Post("/", ordercontrollers.Create(svc.Orders, logg))
			r.Get("/summary", ordercontrollers.Summary(svc.Orders, logg))
			r.Get("/trash", ordercontrollers.Trash(svc.Orders, logg))
			r.With(idempotentBulk).Post("/status", ordercontrollers.BulkTransition(svc.Orders, logg))
			r.With(idempotentBulk).Post("/advance", ordercontrollers.Advance(svc.Orders, logg))
			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", ordercontrollers.Get(svc.Orders, logg))
				r.Patch("/", ordercontrollers.Update(svc.Orders, logg))
				r.Delete("/", ordercontrollers.Delete(svc.Orders, logg))
				r.Post("/restore", ordercontrollers.Restore(svc.Orders, logg))
				r.With(idempotent).Post("/status", ordercontrollers.Transition(svc.Orders, logg))
				r.With(idempotent).Post("/messages", ordercontrollers.AdminMessage(svc.Orders, logg))
			})
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", customercontrollers.List(svc.Customers, logg))
			r.Get("/{customerId}", customercontrollers.Get(svc.Customers, logg))
			r.Put("/{customerId}", customercontrollers.Update(svc.Customers, logg))
		})

		r.Route("/budgets", func(r chi.Router) {
			r.Get("/", budgetcontrollers.List(svc.Budgets, logg))
			r.Post("/", budgetcontrollers.Create(svc.Budgets, logg))
			r.Get("/trash", budgetcontrollers.Trash(svc.Budgets, logg))
			r.Get("/jobs/{jobId}", budgetcontrollers.Job(svc.Budgets, logg))
			r.Route("/{budgetId}", func(r chi.Router) {
				r.Get("/", budgetcontrollers.Get(svc.Budgets, logg))
				r.Patch("/", budgetcontrollers.Update(svc.Budgets, logg))
				r.Delete("/", budgetcontrollers.Delete(svc.Budgets, logg))
				r.Post("/restore", budgetcontrollers.Restore(svc.Budgets, logg))
				r.Post("/send", budgetcontrollers.Send(svc.Budgets, logg))
				r.Post("/confirm", budgetcontrollers.Confirm(svc.Budgets, logg))
			})
		})
	})

	return r
}

package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tillcore-backend/api/controllers"
	analyticscontrollers "github.com/angelmondragon/tillcore-backend/api/controllers/analytics"
	authcontrollers "github.com/angelmondragon/tillcore-backend/api/controllers/auth"
	"github.com/angelmondragon/tillcore-backend/api/middleware"
	"github.com/angelmondragon/tillcore-backend/internal/analytics"
	"github.com/angelmondragon/tillcore-backend/internal/auth"
	checkoutsvc "github.com/angelmondragon/tillcore-backend/internal/checkout"
	products "github.com/angelmondragon/tillcore-backend/internal/products"
	"github.com/angelmondragon/tillcore-backend/internal/sales"
	"github.com/angelmondragon/tillcore-backend/internal/sessiongate"
	"github.com/angelmondragon/tillcore-backend/internal/tenants"
	"github.com/angelmondragon/tillcore-backend/pkg/auth/session"
	"github.com/angelmondragon/tillcore-backend/pkg/config"
	"github.com/angelmondragon/tillcore-backend/pkg/db"
	"github.com/angelmondragon/tillcore-backend/pkg/logger"
	"github.com/angelmondragon/tillcore-backend/pkg/metrics"
	"github.com/angelmondragon/tillcore-backend/pkg/redis"
)

// Dependencies are the wired services the HTTP surface dispatches to.
type Dependencies struct {
	DB          db.Pinger
	Redis       *redis.Client
	Sessions    session.AccessSessionChecker
	Resolver    *sessiongate.Resolver
	Gate        *sessiongate.Gate
	HTTPMetrics *metrics.HTTPMetrics
	Gatherer    prometheus.Gatherer

	Auth      auth.Service
	Tenants   tenants.Service
	Products  products.Service
	Checkout  checkoutsvc.Service
	Sales     *sales.Recorder
	Analytics analytics.Service
}

func NewRouter(cfg *config.Config, logg *logger.Logger, deps Dependencies) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg),
		middleware.Metrics(deps.HTTPMetrics),
	)

	loginPolicy := middleware.LoginRateLimitPolicy(cfg.AuthRateLimit)
	registerPolicy := middleware.RegisterRateLimitPolicy(cfg.AuthRateLimit)
	routes := deps.Gate.Routes()
	authenticated := middleware.Auth(cfg.JWT, deps.Sessions, logg)
	idempotent := middleware.Idempotency(deps.Redis, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": deps.DB,
			"redis":    deps.Redis,
		}))
	})

	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg)).Post("/login", authcontrollers.AuthLogin(deps.Auth, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, deps.Redis, logg), idempotent).Post("/register", authcontrollers.AuthRegister(deps.Auth, logg))
		r.Post("/refresh", authcontrollers.AuthRefresh(deps.Auth, logg))
		r.With(authenticated).Post("/logout", authcontrollers.AuthLogout(deps.Auth, logg))
		r.With(authenticated, middleware.SessionGate(deps.Resolver, deps.Gate, routes.ChangeCredential, logg)).
			Post("/change-credential", authcontrollers.AuthChangeCredential(deps.Auth, logg))
	})

	r.Route("/api/v1/session", func(r chi.Router) {
		r.Use(authenticated)
		r.Get("/", controllers.SessionCurrent(deps.Resolver, deps.Gate, logg))
		r.Post("/navigate", controllers.SessionNavigate(deps.Resolver, deps.Gate, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(authenticated)
		r.Use(middleware.SessionGate(deps.Resolver, deps.Gate, routes.Home, logg))
		r.Use(idempotent)

		r.Post("/checkout", controllers.Checkout(deps.Checkout, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ProductList(deps.Products, logg))
			r.Post("/", controllers.ProductCreate(deps.Products, logg))
			r.Get("/{productID}", controllers.ProductGet(deps.Products, logg))
			r.Patch("/{productID}", controllers.ProductUpdate(deps.Products, logg))
			r.Post("/{productID}/restock", controllers.ProductRestock(deps.Products, logg))
			r.Get("/{productID}/movements", controllers.ProductMovements(deps.Products, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Get("/", controllers.SaleList(deps.Sales, logg))
			r.Get("/{saleID}", controllers.SaleGet(deps.Sales, logg))
		})

		r.Get("/analytics/dashboard", analyticscontrollers.Dashboard(deps.Analytics, logg))

		r.Route("/business", func(r chi.Router) {
			r.Get("/", controllers.BusinessGet(deps.Tenants, logg))
			r.Patch("/", controllers.BusinessUpdate(deps.Tenants, logg))
			r.Get("/branches", controllers.BranchList(deps.Tenants, logg))
			r.Post("/branches", controllers.BranchCreate(deps.Tenants, logg))
			r.Post("/branches/{branchID}/status", controllers.BranchSetStatus(deps.Tenants, logg))
			r.Get("/staff", controllers.StaffList(deps.Tenants, logg))
			r.Post("/staff", controllers.StaffInvite(deps.Tenants, logg))
			r.Patch("/staff/{staffID}", controllers.StaffUpdate(deps.Tenants, logg))
			r.Post("/staff/{staffID}/deactivate", controllers.StaffDeactivate(deps.Tenants, logg))
		})
	})

	return r
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/internal/session"
)

// RateLimit configures the limiter on the credential endpoints.
type RateLimit struct {
	Limiter *RateLimiter
	Limit   int
	Window  time.Duration
}

// Dependencies is everything the HTTP layer needs.
type Dependencies struct {
	Users        *services.UserService
	Assets       *services.AssetService
	Maintenance  *services.MaintenanceService
	Dashboard    *services.DashboardService
	History      *services.HistoryService
	Issuer       *session.Issuer
	Cookie       CookieConfig
	Errors       ErrorPolicy
	RateLimit    *RateLimit
	Logger       *slog.Logger
	RouteTimeout time.Duration
}

// NewRouter builds the chi router serving /healthz and the /api tree.
func NewRouter(deps Dependencies) *chi.Mux {
	timeout := deps.RouteTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		RequestLogger(deps.Logger),
		middleware.Recoverer,
		middleware.Timeout(timeout),
	)
	router.Get("/healthz", Healthz)

	authHandler := NewAuthHandler(deps.Users, deps.Issuer, deps.Cookie, deps.Errors)
	assetHandler := NewAssetHandler(deps.Assets, deps.Errors)
	maintenanceHandler := NewMaintenanceHandler(deps.Maintenance, deps.Errors)
	dashboardHandler := NewDashboardHandler(deps.Dashboard, deps.Errors)
	historyHandler := NewHistoryHandler(deps.History, deps.Errors)

	var limit func(http.Handler) http.Handler
	if deps.RateLimit != nil && deps.RateLimit.Limiter != nil {
		limit = deps.RateLimit.Limiter.Limit("auth", deps.RateLimit.Limit, deps.RateLimit.Window)
	}

	router.Route("/api", func(r chi.Router) {
		AuthRouter(r, authHandler, limit)

		r.Group(func(r chi.Router) {
			r.Use(authHandler.RequireAuth)

			r.Get("/dashboard", dashboardHandler.Get)
			r.Route("/ativos", func(r chi.Router) {
				AssetRouter(r, assetHandler)
				r.Route("/{assetID}/manutencoes", func(r chi.Router) {
					AssetMaintenanceRouter(r, maintenanceHandler)
				})
				r.Route("/{assetID}/historico", func(r chi.Router) {
					HistoryRouter(r, historyHandler)
				})
			})
			r.Route("/manutencoes", func(r chi.Router) {
				MaintenanceRouter(r, maintenanceHandler)
			})
		})
	})

	return router
}

package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/assettrack/apiserver/config"
	"github.com/assettrack/apiserver/internal/db"
	"github.com/assettrack/apiserver/internal/handlers"
	"github.com/assettrack/apiserver/internal/mq"
	"github.com/assettrack/apiserver/internal/services"
	"github.com/assettrack/apiserver/internal/session"
	"github.com/assettrack/apiserver/internal/storage"
	"github.com/assettrack/apiserver/internal/store"
)

const shutdownTimeout = 10 * time.Second

// Server wraps the HTTP server, its router and the connections it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	queue      *mq.MQ
	redis      *redis.Client
	logger     *slog.Logger
}

// New opens every configured backend and wires the HTTP API. Storage,
// messaging and redis are optional; the database and JWT_SECRET are not.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.Auth.Secret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	now := Clock(loc)

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Server{db: dbConn, logger: logger}
	fail := func(err error) (*Server, error) {
		s.closeBackends()
		return nil, err
	}

	var exports services.ExportStore
	objectStorage, err := storage.NewFromConfig(ctx, cfg.Storage)
	if err != nil {
		return fail(err)
	}
	if objectStorage != nil {
		exports = objectStorage
		logger.Info("history exports enabled", "provider", cfg.Storage.Provider, "bucket", objectStorage.Bucket())
	}

	var publisher services.Publisher
	s.queue, err = mq.NewFromConfig(ctx, cfg.MQ)
	if err != nil {
		return fail(err)
	}
	if s.queue != nil {
		publisher = s.queue
		logger.Info("maintenance events enabled", "provider", cfg.MQ.Provider, "channel", cfg.MQ.EventsChannel)
	}

	var rateLimit *handlers.RateLimit
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fail(fmt.Errorf("failed to connect to redis: %w", err))
		}
		rateLimit = &handlers.RateLimit{
			Limiter: handlers.NewRateLimiter(s.redis, logger),
			Limit:   cfg.Redis.RateLimit,
			Window:  cfg.Redis.RateWindow,
		}
	}

	userRepo := store.NewUserRepository(dbConn)
	assetRepo := store.NewAssetRepository(dbConn)
	maintenanceRepo := store.NewMaintenanceRepository(dbConn)

	events := services.NewEventPublisher(publisher, cfg.MQ.EventsChannel, logger)

	s.router = handlers.NewRouter(handlers.Dependencies{
		Users:       services.NewUserService(userRepo),
		Assets:      services.NewAssetService(assetRepo, exports, logger),
		Maintenance: services.NewMaintenanceService(maintenanceRepo, assetRepo, events, now, logger),
		Dashboard:   services.NewDashboardService(assetRepo, maintenanceRepo, now, logger),
		History:     services.NewHistoryService(assetRepo, maintenanceRepo, exports, now, logger),
		Issuer:      session.NewIssuer(jwtSecret, cfg.Auth.TTL),
		Cookie: handlers.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.Auth.CookieSecure,
		},
		Errors: handlers.ErrorPolicy{
			ConcealForbidden: cfg.ConcealForbidden,
			Logger:           logger,
		},
		RateLimit: rateLimit,
		Logger:    logger,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Clock returns the current time in loc. The classifier's "today" is the
// calendar day of this clock.
func Clock(loc *time.Location) func() time.Time {
	return func() time.Time {
		return time.Now().In(loc)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.httpServer.Addr)
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		s.closeBackends()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown stops accepting requests, waits for in-flight ones and closes
// every backend.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	s.closeBackends()
	return err
}

func (s *Server) closeBackends() {
	if s.queue != nil {
		if err := s.queue.Close(); err != nil {
			s.logger.Warn("failed to close message queue", "error", err)
		}
	}
	if s.redis != nil {
		_ = s.redis.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
}

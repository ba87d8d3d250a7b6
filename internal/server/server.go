package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"ticket-checkout/internal/handlers"
	"ticket-checkout/internal/middleware"
	"ticket-checkout/internal/session"
)

const limiterCleanupInterval = time.Minute

// Server is the HTTP front of an App
type Server struct {
	app     *App
	http    *http.Server
	limiter *middleware.RateLimiter
	redis   *redis.Client
}

// New builds the router and HTTP server. The redis backend gets its own client.
func New(app *App) (*Server, error) {
	cfg := app.Config
	s := &Server{app: app}

	if cfg.Session.Backend == "redis" {
		s.redis = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}

	opener, err := session.NewOpener(cfg.Session, s.redis)
	if err != nil {
		s.closeRedis()
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}

	if cfg.RateLimit.RequestsPerMinute > 0 {
		s.limiter = middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	}

	router := handlers.NewRouter(handlers.RouterDeps{
		Checkout:    app.Checkout,
		Invoices:    app.Invoices,
		Events:      app.Catalogs,
		Sessions:    opener,
		RateLimiter: s.limiter,
		CORS:        cfg.CORS,
		PublicURL:   cfg.Checkout.PublicURL,
		Logger:      app.Logger,
	})

	s.http = &http.Server{
		Addr:         net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Run serves until ctx is cancelled, then drains connections for up to the
// configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	logger := s.app.Logger
	defer s.closeRedis()

	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to reach redis: %w", err)
		}
	}

	stop := make(chan struct{})
	defer close(stop)
	if s.limiter != nil {
		go s.limiter.Run(limiterCleanupInterval, stop)
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.app.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("server exited")
	return nil
}

func (s *Server) closeRedis() {
	if s.redis != nil {
		s.redis.Close()
		s.redis = nil
	}
}

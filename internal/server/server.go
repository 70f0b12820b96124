// Package server is the composition root: it opens the store, builds the
// services and handlers, and registers the routes.
//
// DEPENDENCY FLOW:
//
//	config.Config ──► sqlstore.Store ──► AccountService / AuthService / CatalogService
//	                                          │
//	                                          ▼
//	                         AccountHandler / ContentHandler / AuthHandler
//
// Each layer only receives what it needs: services get repository
// interfaces, handlers get narrow service interfaces.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/sakif/podcast-api/internal/auth"
	"github.com/sakif/podcast-api/internal/config"
	"github.com/sakif/podcast-api/internal/handler"
	"github.com/sakif/podcast-api/internal/methodview"
	"github.com/sakif/podcast-api/internal/middleware"
	"github.com/sakif/podcast-api/internal/repository/sqlstore"
	"github.com/sakif/podcast-api/internal/respond"
	"github.com/sakif/podcast-api/internal/service"
)

// Server owns the router and the database pool. The pool is closed when
// Start returns.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *zap.Logger
	store  *sqlstore.Store
}

// New opens and migrates the store, then wires every route.
func New(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := sqlstore.Open(ctx, sqlstore.Config{
		Dialect:      sqlstore.Dialect(cfg.Database.Driver),
		DSN:          cfg.Database.DSN,
		MaxOpenConns: cfg.Database.MaxOpenConns,
	}, logger.Named("sqlstore"))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// setupRoutes installs middleware and routes.
//
//	GET  /account/   current identity        (RequireAuth)
//	POST /account/   register
//	GET  /content/   list content            (RequireAuth)
//	POST /auth       exchange credentials    (rate limited per IP)
//	GET  /healthz    store ping
//
// Middleware runs in registration order. Logger sits outside Recoverer so a
// recovered panic is still logged with its 500. Forwarding headers are only
// honoured with TRUST_PROXY; otherwise any client could pick its own address
// and sidestep the login rate limit, which keys on RemoteAddr.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	if s.cfg.Server.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger.Named("http")))
	s.router.Use(chimiddleware.Recoverer)
	if len(s.cfg.CORS.AllowedOrigins) > 0 {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
	s.router.Use(middleware.MaxBodyBytes(s.cfg.Server.MaxBodyBytes))
	s.router.NotFound(handler.NotFound)

	tokens, err := auth.NewTokenService(s.cfg.JWT.Secret, auth.TokenConfig{
		Issuer:     s.cfg.JWT.Issuer,
		Expiration: s.cfg.JWT.Expiration,
		NotBefore:  s.cfg.JWT.NotBefore,
		Leeway:     s.cfg.JWT.Leeway,
	})
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords, err := auth.NewPasswordService(s.cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("creating password service: %w", err)
	}

	accounts := s.store.Accounts()
	accountService := service.NewAccountService(accounts, passwords, s.logger.Named("account"))
	authService := service.NewAuthService(accounts, tokens, passwords, s.logger.Named("auth"))
	catalogService := service.NewCatalogService(s.store.Contents(), s.store.Categories(), s.store, s.logger.Named("catalog"))

	accountHandler := handler.NewAccountHandler(accountService, s.logger)
	contentHandler := handler.NewContentHandler(catalogService, s.logger)
	authHandler := handler.NewAuthHandler(authService, s.logger)
	healthHandler := handler.NewHealthHandler(s.store, s.logger)

	requireAuth := auth.RequireAuth(tokens, authService, auth.GuardConfig{
		HeaderPrefix: s.cfg.JWT.AuthHeaderPrefix,
	}, s.logger.Named("auth"))

	accountView := methodview.New().
		HandleFunc(http.MethodGet, accountHandler.Get, requireAuth).
		HandleFunc(http.MethodPost, accountHandler.Post)
	if err := methodview.Mount(s.router, "/account/", accountView); err != nil {
		return fmt.Errorf("mounting /account/: %w", err)
	}

	contentView := methodview.New().
		HandleFunc(http.MethodGet, contentHandler.List, requireAuth)
	if err := methodview.Mount(s.router, "/content/", contentView); err != nil {
		return fmt.Errorf("mounting /content/: %w", err)
	}

	loginLimit := httprate.Limit(s.cfg.Auth.LoginRateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respond.Error(w, http.StatusTooManyRequests, "rate_limited", "too many login attempts, try again later")
		}),
	)
	s.router.With(loginLimit).Post(s.cfg.JWT.AuthURL, authHandler.Login)

	s.router.Get("/healthz", healthHandler.Check)

	return nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the database pool. Start does this itself on shutdown.
func (s *Server) Close() error { return s.store.Close() }

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			zap.Int("port", s.cfg.Server.Port),
			zap.String("database", string(s.store.Dialect())),
			zap.Bool("trust_proxy", s.cfg.Server.TrustProxy),
			zap.String("auth_url", s.cfg.JWT.AuthURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", zap.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}
	return nil
}

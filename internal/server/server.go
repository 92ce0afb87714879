// Package server wires storage, services, handlers and middleware into the
// codecoach HTTP API.
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/codecoach/internal/auth"
	"github.com/sakif/codecoach/internal/catalog"
	"github.com/sakif/codecoach/internal/config"
	"github.com/sakif/codecoach/internal/executor"
	"github.com/sakif/codecoach/internal/handler"
	"github.com/sakif/codecoach/internal/middleware"
	sqliteRepo "github.com/sakif/codecoach/internal/repository/sqlite"
	"github.com/sakif/codecoach/internal/service"
)

type Server struct {
	router   *chi.Mux
	config   *config.Config
	logger   *slog.Logger
	db       *sqliteRepo.DB
	exec     executor.Executor
	registry *prometheus.Registry
}

// New opens the database, seeds the lesson catalog and builds the router.
// The server owns the database; the caller owns exec.
func New(cfg *config.Config, exec executor.Executor, registry *prometheus.Registry, logger *slog.Logger) (*Server, error) {
	db, err := OpenDB(cfg.Storage.DBPath)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Builtin()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("loading lesson catalog: %w", err)
	}
	if err := cat.Seed(context.Background(), db, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("seeding lesson catalog: %w", err)
	}

	s := &Server{
		router:   chi.NewRouter(),
		config:   cfg,
		logger:   logger,
		db:       db,
		exec:     exec,
		registry: registry,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// OpenDB opens the SQLite database, creating its directory if needed.
func OpenDB(path string) (*sqliteRepo.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}
	db, err := sqliteRepo.New(path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := s.tokenService()
	if err != nil {
		return err
	}

	var github *auth.GitHubProvider
	if s.config.GitHubEnabled() {
		gh := s.config.Auth.GitHub
		github = auth.NewGitHubProvider(gh.ClientID, gh.ClientSecret, gh.CallbackURL)
	}

	lessonService := service.NewLessonService(s.db, s.logger)
	practiceService := service.NewPracticeService(s.exec, s.db, s.db, s.db, s.logger)
	progressService := service.NewProgressService(s.db, s.db, s.logger)
	authService := service.NewAuthService(s.db, tokens, auth.NewPasswordService(), s.logger)

	executeHandler := handler.NewExecuteHandler(practiceService, s.logger)
	lessonHandler := handler.NewLessonHandler(lessonService, s.logger)
	practiceHandler := handler.NewPracticeHandler(practiceService, s.logger)
	progressHandler := handler.NewProgressHandler(progressService, s.logger)
	authHandler := handler.NewAuthHandler(authService, github, s.config.Server.SecureCookies, s.logger)

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		RequestsPerSecond: s.config.Executor.RateLimit,
		Burst:             s.config.Executor.RateBurst,
	})
	requireAuth := auth.RequireAuth(tokens)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		if github != nil {
			r.Get("/github/login", authHandler.HandleGitHubLogin)
			r.Get("/github/callback", authHandler.HandleGitHubCallback)
		}
	})

	s.router.Route("/api", func(r chi.Router) {
		r.With(limit).Post("/execute", executeHandler.HandleExecute)

		r.Get("/lessons", lessonHandler.HandleList)
		r.Get("/lessons/{id}", lessonHandler.HandleGet)
		r.Get("/exercises", lessonHandler.HandleListExercises)
		r.Get("/exercises/{id}", lessonHandler.HandleGetExercise)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)

			r.With(limit).Post("/exercises/{id}/submit", practiceHandler.HandleSubmit)
			r.Get("/exercises/{id}/attempts", practiceHandler.HandleListAttempts)

			r.Get("/progress", progressHandler.HandleList)
			r.Get("/progress/stats", progressHandler.HandleStats)
			r.Get("/progress/{lessonId}", progressHandler.HandleGet)
			r.Post("/progress/{lessonId}/complete", progressHandler.HandleComplete)
			r.Post("/progress/{lessonId}/time", progressHandler.HandleAddTime)
			r.Get("/progress/{lessonId}/state", progressHandler.HandleGetState)
			r.Put("/progress/{lessonId}/state", progressHandler.HandlePutState)
		})
	})

	return nil
}

// tokenService uses the configured secret, or a random one when none is
// set. A random secret logs everyone out on restart.
func (s *Server) tokenService() (*auth.TokenService, error) {
	secret := s.config.Auth.JWTSecret
	if secret == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("generating JWT secret: %w", err)
		}
		secret = hex.EncodeToString(buf)
		s.logger.Warn("auth.jwt_secret not set; using a random secret, sessions will not survive a restart")
	}

	tokens, err := auth.NewTokenService(secret)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	return tokens, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"unavailable"}`))
		return
	}
	w.Write([]byte(`{"status":"ok"}`))
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Storage.DBPath),
			slog.String("executor", s.config.Executor.Backend),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

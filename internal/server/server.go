// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, storage and services into the echo
// application and runs it.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"codeberg.org/oliverandrich/bitsybay/internal/config"
	"codeberg.org/oliverandrich/bitsybay/internal/database"
	"codeberg.org/oliverandrich/bitsybay/internal/handlers"
	"codeberg.org/oliverandrich/bitsybay/internal/metrics"
	appmw "codeberg.org/oliverandrich/bitsybay/internal/middleware"
	"codeberg.org/oliverandrich/bitsybay/internal/repository"
	"codeberg.org/oliverandrich/bitsybay/internal/services/account"
	"codeberg.org/oliverandrich/bitsybay/internal/services/email"
	"codeberg.org/oliverandrich/bitsybay/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/urfave/cli/v3"
)

// App holds the wired components behind the HTTP server.
type App struct {
	Config   *config.Config
	Repo     *repository.Repository
	Accounts *account.Service
	Mail     *email.Service
	Sessions *session.Manager
	Metrics  *metrics.Metrics
	// Limiter backs the login rate limit; nil disables it.
	Limiter appmw.Counter
	// IPExtractor resolves c.RealIP; nil uses the peer address.
	IPExtractor echo.IPExtractor
}

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	SetupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
		"database", cfg.Database.Driver,
	)

	// Database, migrations are applied on open
	db, err := database.OpenDriver(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	app, err := NewApp(cfg, repository.New(db))
	if err != nil {
		return err
	}

	// Redis
	if cfg.Redis.URL != "" {
		client, err := newRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := client.Close(); closeErr != nil {
				slog.Error("failed to close redis client", "error", closeErr)
			}
		}()
		app.Limiter = appmw.NewRedisCounter(client)
	}

	return startWithGracefulShutdown(app.Echo(), cfg)
}

// NewApp builds every service from cfg on top of repo. The login rate
// limiter is left unset.
func NewApp(cfg *config.Config, repo *repository.Repository) (*App, error) {
	m := metrics.New()

	accounts, err := NewAccountService(&cfg.Accounts, repo, m)
	if err != nil {
		return nil, err
	}

	sender, err := email.NewSenderFromConfig(&cfg.SMTP)
	if err != nil {
		return nil, fmt.Errorf("failed to configure mail: %w", err)
	}

	sessions, err := session.NewManager(&cfg.Session, cfg.Server.IsSecure())
	if err != nil {
		return nil, fmt.Errorf("failed to configure sessions: %w", err)
	}

	extractIP, err := appmw.IPExtractor(cfg.Server.TrustedProxies)
	if err != nil {
		return nil, err
	}

	return &App{
		Config:   cfg,
		Repo:     repo,
		Accounts: accounts,
		Mail:     email.NewService(sender, "BitsyBay", cfg.Server.BaseURL),
		Sessions: sessions,
		Metrics:  m,

		IPExtractor: extractIP,
	}, nil
}

// Echo returns the configured echo instance with all routes.
func (a *App) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = a.IPExtractor
	if e.IPExtractor == nil {
		e.IPExtractor = echo.ExtractIPDirect()
	}

	setupMiddleware(e, a.Config, a.Metrics)
	a.setupRoutes(e)
	return e
}

func (a *App) setupRoutes(e *echo.Echo) {
	h := handlers.New(a.Repo, a.Accounts, a.Mail, a.Sessions, nil)
	loadAccount := appmw.LoadAccount(a.Sessions, a.Accounts)
	loginLimit := appmw.RateLimit(a.Limiter, "login", int64(a.Config.Redis.LoginRatePerMin), time.Minute)

	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(a.Metrics.Handler()))

	api := e.Group("/api")
	api.GET("/stats", h.Stats)
	api.POST("/accounts", h.Register)
	api.POST("/auth/login", h.Login, loginLimit)
	api.POST("/auth/logout", h.Logout)
	api.POST("/auth/password-reset", h.PasswordReset)

	me := api.Group("/me", loadAccount, appmw.RequireAuth, csrfMiddleware(a.Config), csrfToHeader())
	me.GET("", h.Me)
	me.PUT("", h.UpdateMe)
	me.GET("/emails", h.ListEmails)
	me.POST("/emails", h.AddEmail)
	// mail links land here; CSRF does not check GET, the single-use code gates it
	me.GET("/emails/approve", h.ApproveEmail)
	me.POST("/emails/approve", h.ApproveEmail)
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		// the limiter lets requests through while redis is down
		slog.Warn("redis not reachable", "addr", opts.Addr, "error", err)
	}
	return client, nil
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(cfg.Server.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}

package main

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

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/gearbox/internal/config"
	"github.com/crucial707/gearbox/internal/db"
	"github.com/crucial707/gearbox/internal/handlers"
	"github.com/crucial707/gearbox/internal/kv"
	"github.com/crucial707/gearbox/internal/middleware"
	"github.com/crucial707/gearbox/internal/models"
	"github.com/crucial707/gearbox/internal/repo"
	"github.com/crucial707/gearbox/internal/scheduler"
	"github.com/crucial707/gearbox/internal/service"
)

func main() {
	cfg := config.Load()
	setupLogger(cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "backend", cfg.StoreBackend, "err", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("store ready", "backend", cfg.StoreBackend, "simulated_latency", cfg.SimulatedLatency)

	inv := service.NewInventory(repo.NewEquipmentRepo(store), repo.NewNotificationRepo(store, nil), nil)

	cr, err := scheduler.Start(cfg.StatusRefreshCron, inv.Equipment)
	if err != nil {
		slog.Error("failed to start scheduler", "err", err)
		os.Exit(1)
	}
	defer cr.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(store, inv, cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "err", err)
		}
	}()

	tls := cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""
	slog.Info("starting server", "port", cfg.Port, "tls", tls)
	if tls {
		err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
	} else {
		err = srv.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func setupLogger(format string) {
	var h slog.Handler
	if format == "json" {
		h = slog.NewJSONHandler(os.Stdout, nil)
	} else {
		h = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(h))
}

// openStore connects the configured backend and wraps it with the simulated latency.
func openStore(ctx context.Context, cfg config.Config) (kv.Store, error) {
	var (
		store kv.Store
		err   error
	)
	switch cfg.StoreBackend {
	case config.BackendMemory:
		store = kv.NewMemoryStore()
	case config.BackendSQLite:
		store, err = kv.NewSQLiteStore(cfg.SQLitePath)
	case config.BackendPostgres:
		p := db.Params{
			Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
			User: cfg.DBUser, Password: cfg.DBPass,
			MaxOpenConns: cfg.DBMaxOpenConns, MaxIdleConns: cfg.DBMaxIdleConns,
		}
		if err := db.Migrate(p); err != nil {
			return nil, err
		}
		database, err := db.Connect(ctx, p)
		if err != nil {
			return nil, err
		}
		store = kv.NewPostgresStore(database)
	case config.BackendRedis:
		client, err := kv.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		store = kv.NewRedisStore(client, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
	if err != nil {
		return nil, err
	}
	return kv.WithLatency(store, cfg.SimulatedLatency, nil), nil
}

func newRouter(store kv.Store, inv *service.Inventory, cfg config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			handlers.JSONError(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	auth := &handlers.AuthHandler{
		Secret:            []byte(cfg.JWTSecret),
		TTL:               time.Duration(cfg.JWTExpireHours) * time.Hour,
		AdminPasscodeHash: cfg.AdminPasscodeHash,
	}
	equipment := &handlers.EquipmentHandler{Inventory: inv}
	notifications := &handlers.NotificationHandler{Repo: inv.Notifications}

	r.With(middleware.LoginRateLimiter().Middleware).Post("/auth/login", auth.Login)

	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware([]byte(cfg.JWTSecret)))

		r.Get("/auth/me", auth.Me)

		r.Get("/equipment", equipment.ListEquipment)
		r.Get("/equipment/export.xlsx", equipment.Export)
		r.Get("/equipment/{id}", equipment.GetEquipment)
		r.Put("/equipment/{id}/status", equipment.SetStatus)
		r.With(middleware.IssueReportRateLimiter().Middleware).Post("/equipment/{id}/issues", equipment.ReportIssue)

		r.Get("/notifications", notifications.ListNotifications)
		r.Get("/notifications/unread-count", notifications.UnreadCount)
		r.Post("/notifications/read-all", notifications.MarkAllRead)
		r.Post("/notifications/{id}/read", notifications.MarkRead)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Post("/equipment", equipment.UpsertEquipment)
			r.Put("/equipment/{id}", equipment.UpsertEquipment)
			r.Delete("/equipment/{id}", equipment.DeleteEquipment)
			r.Post("/equipment/{id}/resolve", equipment.Resolve)
		})
	})

	return r
}

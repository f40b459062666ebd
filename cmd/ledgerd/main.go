// Command ledgerd runs the context ledger HTTP server.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	ledgerhttp "github.com/buildloop/ledger/internal/adapter/http"
	ledgernats "github.com/buildloop/ledger/internal/adapter/nats"
	"github.com/buildloop/ledger/internal/adapter/otel"
	"github.com/buildloop/ledger/internal/adapter/postgres"
	"github.com/buildloop/ledger/internal/adapter/ristretto"
	"github.com/buildloop/ledger/internal/adapter/ws"
	"github.com/buildloop/ledger/internal/config"
	"github.com/buildloop/ledger/internal/logger"
	"github.com/buildloop/ledger/internal/port/messagequeue"
	"github.com/buildloop/ledger/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	slog.SetDefault(logger.New(cfg.Logging))
	slog.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
		"sweep_interval", cfg.Retention.SweepInterval,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Infrastructure ---

	shutdownTracer := otel.InitTracer(cfg.Logging.Service)
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			slog.Warn("tracer shutdown failed", "error", err)
		}
	}()

	metrics, err := otel.NewMetrics()
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	slog.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	slog.Info("migrations applied")

	// NATS is optional; an empty URL runs the ledger without a queue.
	var queue messagequeue.Queue
	if cfg.NATS.URL != "" {
		q, err := ledgernats.Connect(ctx, cfg.NATS.URL)
		if err != nil {
			return fmt.Errorf("nats: %w", err)
		}
		defer func() { _ = q.Close() }()
		queue = q
	} else {
		slog.Info("nats disabled, events will not be published")
	}

	cache, err := ristretto.New(int64(cfg.Cache.ArtifactMaxSizeMB) << 20)
	if err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	defer cache.Close()

	// --- Services ---

	hub := ws.NewHub()
	store := postgres.NewStore(pool)

	retentionSvc := service.NewRetentionService(store, queue, hub, metrics, cfg.Retention.DefaultDays)
	retentionSvc.StartSweeper(ctx, cfg.Retention.SweepInterval)

	handlers := &ledgerhttp.Handlers{
		Projects:  service.NewProjectService(store),
		Agents:    service.NewAgentService(store),
		Tasks:     service.NewTaskService(store, hub),
		Logs:      service.NewLogService(store, hub),
		Retention: retentionSvc,
		Memory:    service.NewMemoryService(store),
		Artifacts: service.NewArtifactService(store, cache, metrics, cfg.Cache.ArtifactTTL),
		Audits:    service.NewAuditService(store, queue, hub, metrics),
		Exports:   service.NewExportService(store, queue, hub, metrics),
	}

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(ledgerhttp.CORS(cfg.Server.CORSOrigin))
	r.Use(ledgerhttp.Logger)
	r.Use(otel.HTTPMiddleware(cfg.Logging.Service))
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/health", healthHandler(cfg, hub))
	r.Get("/ws", hub.HandleWS)
	ledgerhttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down server")
		hub.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// healthHandler returns an http.HandlerFunc that reports service health.
func healthHandler(cfg *config.Config, hub *ws.Hub) http.HandlerFunc {
	type healthStatus struct {
		Status        string `json:"status"`
		NATS          string `json:"nats"`
		WSConnections int    `json:"ws_connections"`
	}

	return func(w http.ResponseWriter, _ *http.Request) {
		natsStatus := "disabled"
		if cfg.NATS.URL != "" {
			natsStatus = "configured"
		}
		status := healthStatus{
			Status:        "ok",
			NATS:          natsStatus,
			WSConnections: hub.ConnectionCount(),
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(status)
	}
}

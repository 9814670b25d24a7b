package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/slopguard/internal/adapters/http/api"
	"github.com/okian/slopguard/internal/adapters/repository"
	app "github.com/okian/slopguard/internal/app"
	"github.com/okian/slopguard/internal/config"
	"github.com/okian/slopguard/pkg/logger"
	"github.com/okian/slopguard/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout       = 10 * time.Second
	writeTimeout      = 10 * time.Second
	idleTimeout       = 60 * time.Second
	readHeaderTimeout = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// Logger is configured from cfg, so it is not available yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithLevel(cfg.LogLevel)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Named("main")

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal(ctx, "failed to open ledger store", logger.String("dataDir", cfg.DataDir), logger.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, "failed to close ledger store", logger.Error(err))
		}
	}()

	shutdownTimeout := time.Duration(cfg.ShutdownTimeoutMS) * time.Millisecond
	svc := app.New(
		app.WithLogger(logger.Named("service")),
		app.WithRepository(repository.NewLedgerRepository(store, cfg.StorageKey)),
		app.WithConservativeMode(cfg.ConservativeMode),
		app.WithQueueSize(cfg.PersistQueueSize),
		app.WithSaveTimeout(time.Duration(cfg.PersistTimeoutMS)*time.Millisecond),
		app.WithDrainTimeout(shutdownTimeout),
	)
	if err := svc.Start(ctx); err != nil {
		log.Fatal(ctx, "failed to start service", logger.Error(err))
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	handler := api.NewServer(svc, svc,
		api.WithCORSOrigins(cfg.AllowedOrigins()),
		api.WithWriteRateLimit(cfg.WriteRateLimit, time.Duration(cfg.WriteRateWindowMS)*time.Millisecond),
	).Routes()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server",
			logger.String("addr", cfg.Addr),
			logger.Bool("persistent", cfg.DataDir != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "HTTP server failed", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
}

// openStore opens badger under cfg.DataDir, or an in-memory store when no
// directory is configured.
func openStore(cfg *config.Config) (repository.ByteStore, error) {
	if cfg.DataDir == "" {
		return repository.NewMemoryStore(), nil
	}
	return repository.OpenBadger(cfg.DataDir, repository.WithSyncWrites(true))
}

// startSystemMetricsUpdater refreshes process gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	if !metrics.Enabled() {
		return
	}
	ticker := time.NewTicker(metrics.RefreshInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cybernauts/backend/internal/api"
	"cybernauts/backend/internal/cache"
	"cybernauts/backend/internal/events"
	"cybernauts/backend/internal/graph"
	"cybernauts/backend/internal/metrics"
	"cybernauts/backend/internal/service"
	"cybernauts/backend/internal/store"
	"cybernauts/backend/pkg/config"
	"cybernauts/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting HTTP API server...",
		zap.String("env", cfg.Env),
		zap.String("store", cfg.StoreBackend),
		zap.String("events", cfg.EventsBackend),
	)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize application", zap.Error(err))
	}

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port), zap.String("origin", a.origin))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Stop subscriptions before closing the connections they ride on
	cancel()
	a.close(shutdownCtx)

	log.Info("Server exited")
}

// app holds the wired components of one API worker
type app struct {
	origin string
	store  store.Store
	cache  cache.Cache
	bus    events.Bus
	router *gin.Engine
}

// newApp connects every backend selected by cfg and builds the router.
// Subscriptions started here live until ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*app, error) {
	origin := workerID()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New(nil)
	}

	st, err := store.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	c, err := cache.New(ctx, cfg, log, m)
	if err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("open cache: %w", err)
	}

	bus, err := events.New(cfg, origin, log)
	if err != nil {
		_ = c.Close()
		_ = st.Close(ctx)
		return nil, fmt.Errorf("open events bus: %w", err)
	}

	if _, disabled := bus.(events.Noop); !disabled {
		inv := events.NewInvalidator(c, origin, log, m)
		if err := inv.Start(ctx, bus); err != nil {
			log.Warn("Remote cache invalidation disabled", zap.Error(err))
		}
	}

	positions := graph.NewPositionProvider(cfg.Layout, time.Now().UnixNano())
	svc := service.New(service.Deps{
		Store:     st,
		Cache:     c,
		Publisher: bus,
		Positions: positions,
		Logger:    log,
		Metrics:   m,
		Origin:    origin,
		CacheTTL:  cfg.CacheTTL,
	})

	router := api.NewRouter(api.Options{
		Users:          svc,
		Logger:         log,
		Metrics:        m,
		FrontendOrigin: cfg.FrontendOrigin,
	})

	return &app{
		origin: origin,
		store:  st,
		cache:  c,
		bus:    bus,
		router: router,
	}, nil
}

// close releases connections in reverse order of creation
func (a *app) close(ctx context.Context) {
	log := logger.Get()
	if err := a.bus.Close(); err != nil {
		log.Warn("Failed to close events bus", zap.Error(err))
	}
	if err := a.cache.Close(); err != nil {
		log.Warn("Failed to close cache", zap.Error(err))
	}
	if err := a.store.Close(ctx); err != nil {
		log.Warn("Failed to close store", zap.Error(err))
	}
}

// workerID names this process on the events bus
func workerID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker"
	}
	return host + "-" + uuid.NewString()[:8]
}

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gw2tools/tpwatch/internal/api"
	"github.com/gw2tools/tpwatch/internal/buffer"
	"github.com/gw2tools/tpwatch/internal/config"
	"github.com/gw2tools/tpwatch/internal/database"
	"github.com/gw2tools/tpwatch/internal/push"
	"github.com/gw2tools/tpwatch/internal/tracker"
	"github.com/gw2tools/tpwatch/internal/tradingpost"
	"github.com/gw2tools/tpwatch/internal/version"
	"github.com/gw2tools/tpwatch/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/watcher.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting watcher",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"api_url", cfg.API.BaseURL,
		"poll_interval", cfg.Aggregator.Interval,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to database when any persistent component is enabled
	var pool *pgxpool.Pool
	if cfg.Writer.Enabled || cfg.Tracker.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Postgres.Host,
			"port", cfg.Database.Postgres.Port,
			"database", cfg.Database.Postgres.Name,
		)

		pool, err = database.Connect(ctx, cfg.Database.Postgres)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		logger.Info("database connected")
	}

	// Create API client
	apiClient := api.NewClient(
		cfg.API.BaseURL,
		cfg.API.Token,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithRetries(cfg.API.MaxRetries, time.Second),
	)

	// Create aggregator
	aggregator := tradingpost.New(tradingpost.Config{
		Interval: cfg.Aggregator.Interval,
	}, apiClient, logger)

	// Order history writer
	var historyWriter *writer.HistoryWriter
	if cfg.Writer.Enabled {
		input := buffer.New[writer.OrderMsg](cfg.Writer.BufferSize)
		historyWriter = writer.NewHistoryWriter(writer.Config{
			BatchSize:     cfg.Writer.BatchSize,
			FlushInterval: cfg.Writer.FlushInterval,
		}, input, pool, logger)

		if err := historyWriter.Start(ctx); err != nil {
			logger.Error("failed to start history writer", "error", err)
			os.Exit(1)
		}
		defer stopComponent("history writer", historyWriter.Stop, logger)

		aggregator.OnUpdated(func() {
			historyWriter.EnqueueResult(aggregator.CurrentResult())
		})
	}

	// WebSocket push hub for overlay clients
	var hub *push.Hub
	var pushServer *http.Server
	if cfg.Push.Enabled {
		hub = push.NewHub(logger)
		go hub.Run(ctx)

		mux := http.NewServeMux()
		mux.Handle(cfg.Push.Path, hub)
		pushServer = &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Push.Port),
			Handler: mux,
		}
		go func() {
			logger.Info("starting push server", "port", cfg.Push.Port, "path", cfg.Push.Path)
			if err := pushServer.ListenAndServe(); err != http.ErrServerClosed {
				logger.Error("push server error", "error", err)
			}
		}()

		aggregator.OnUpdated(func() {
			hub.BroadcastUpdate(aggregator.CurrentResult())
		})
	}

	// Price target tracker
	if cfg.Tracker.Enabled {
		store := tracker.NewStore(pool)
		trackerCfg := tracker.DefaultConfig()
		if cfg.Tracker.Interval > 0 {
			trackerCfg.Interval = cfg.Tracker.Interval
		}
		priceTracker := tracker.New(trackerCfg, apiClient, store, func(a tracker.Alert) {
			logger.Info("price target reached",
				"item_id", a.Entry.ItemID,
				"kind", a.Entry.Kind.String(),
				"target", a.Entry.TargetPrice,
				"best_buy", a.Price.BestBuyUnitPrice,
				"best_sell", a.Price.BestSellUnitPrice,
			)
		}, logger)

		if err := priceTracker.Start(ctx); err != nil {
			logger.Error("failed to start tracker", "error", err)
			os.Exit(1)
		}
		defer stopComponent("price tracker", priceTracker.Stop, logger)
	}

	// Health server
	healthServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Health.Port),
		Handler: createHealthHandler(aggregator, pool, hub, logger),
	}
	go func() {
		logger.Info("starting health server", "port", cfg.Health.Port)
		if err := healthServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("health server error", "error", err)
		}
	}()

	// Start the aggregator last: it verifies token scopes before polling.
	if err := aggregator.Start(ctx); err != nil {
		logger.Error("failed to start aggregator", "error", err)
		os.Exit(1)
	}
	defer stopComponent("aggregator", aggregator.Stop, logger)

	logger.Info("watcher running",
		"instance_id", cfg.Instance.ID,
		"health_url", fmt.Sprintf("http://localhost:%d/health", cfg.Health.Port),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	healthServer.Shutdown(shutdownCtx)
	if pushServer != nil {
		pushServer.Shutdown(shutdownCtx)
	}

	logger.Info("watcher stopped")
}

// stopComponent stops a component with a bounded timeout.
func stopComponent(name string, stop func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("component stop failed", "component", name, "error", err)
	}
}

// createHealthHandler creates the HTTP handler for health checks.
func createHealthHandler(aggregator *tradingpost.State, pool *pgxpool.Pool, hub *push.Hub, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := struct {
			Status     string                 `json:"status"`
			Components map[string]interface{} `json:"components"`
		}{
			Status:     "healthy",
			Components: make(map[string]interface{}),
		}

		// Check database
		if pool != nil {
			if err := pool.Ping(ctx); err != nil {
				health.Status = "unhealthy"
				health.Components["postgres"] = map[string]string{
					"status": "disconnected",
					"error":  err.Error(),
				}
			} else {
				health.Components["postgres"] = "connected"
			}
		}

		// Check aggregator
		agg := map[string]interface{}{
			"status": aggregator.Status().String(),
		}
		if last := aggregator.LastSuccess(); !last.IsZero() {
			agg["last_success"] = last.UTC().Format(time.RFC3339)
		}
		if err := aggregator.LastError(); err != nil {
			agg["last_error"] = err.Error()
			health.Status = "degraded"
		}
		health.Components["aggregator"] = agg

		if hub != nil {
			health.Components["push"] = map[string]interface{}{
				"clients": hub.ClientCount(),
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if health.Status == "unhealthy" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(health)
	})

	mux.HandleFunc("/debug/orders", func(w http.ResponseWriter, r *http.Request) {
		res := aggregator.CurrentResult()

		orders := res.Orders
		limit := 100
		if len(orders) > limit {
			orders = orders[:limit]
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"fetched_at": res.FetchedAt,
			"count":      len(res.Orders),
			"showing":    len(orders),
			"orders":     orders,
		})
	})

	return mux
}

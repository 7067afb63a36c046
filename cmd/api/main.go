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

	"github.com/nats-io/nats.go/jetstream"

	"github.com/your-org/attend/internal/api"
	"github.com/your-org/attend/internal/api/handlers"
	"github.com/your-org/attend/internal/api/ws"
	"github.com/your-org/attend/internal/config"
	"github.com/your-org/attend/internal/models"
	"github.com/your-org/attend/internal/observability"
	"github.com/your-org/attend/internal/queue"
	"github.com/your-org/attend/internal/recognition"
	"github.com/your-org/attend/internal/storage"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	observability.SetupLogger(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("starting attendance API service", "port", cfg.Server.Port)

	// Connect to Postgres
	db, err := storage.NewPostgresStore(cfg.Database, cfg.Recognition.EmbeddingDim)
	if err != nil {
		slog.Error("connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(context.Background()); err != nil {
		slog.Error("ensure schema", "error", err)
		os.Exit(1)
	}

	// Connect to MinIO
	photos, err := storage.NewMinIOStore(cfg.MinIO)
	if err != nil {
		slog.Error("connect to minio", "error", err)
		os.Exit(1)
	}
	if err := photos.EnsureBucket(context.Background()); err != nil {
		slog.Warn("ensure minio bucket", "error", err)
	}

	// Connect to NATS
	producer, err := queue.NewProducer(cfg.NATS.URL)
	if err != nil {
		slog.Error("connect to nats", "error", err)
		os.Exit(1)
	}
	defer producer.Close()

	if err := producer.EnsureStream(context.Background()); err != nil {
		slog.Warn("ensure nats stream", "error", err)
	}

	// WebSocket hub fed by the attendance notice consumer
	hub := ws.NewHub()
	go hub.Run()

	consumer, err := queue.NewConsumer(cfg.NATS.URL)
	if err != nil {
		slog.Error("create notice consumer", "error", err)
		os.Exit(1)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = consumer.ConsumeNotices(ctx, "api-notices", func(ctx context.Context, msg jetstream.Msg) error {
		var notice models.AttendanceNotice
		if err := json.Unmarshal(msg.Data(), &notice); err != nil {
			return err
		}
		hub.BroadcastNotice(&notice)
		return nil
	})
	if err != nil {
		slog.Warn("start notice consumer", "error", err)
	}

	// Window policy
	windows := recognition.WindowPolicy{
		Mode:     cfg.Recognition.WindowMode,
		Interval: cfg.Recognition.WindowInterval.Std(),
	}
	if cfg.Recognition.WindowTimezone != "" {
		loc, err := time.LoadLocation(cfg.Recognition.WindowTimezone)
		if err != nil {
			slog.Error("load window timezone", "tz", cfg.Recognition.WindowTimezone, "error", err)
			os.Exit(1)
		}
		windows.Location = loc
	}

	// Matcher strategy
	var matcher recognition.Matcher
	switch cfg.Recognition.Matcher {
	case "hnsw":
		m, err := recognition.NewHNSWMatcher(context.Background(), db, cfg.Recognition.EmbeddingDim)
		if err != nil {
			slog.Error("build hnsw index", "error", err)
			os.Exit(1)
		}
		matcher = m
	case "pgvector":
		matcher = recognition.NewStoreMatcher(db, cfg.Recognition.EmbeddingDim)
	default:
		matcher = recognition.NewBruteMatcher(db, cfg.Recognition.EmbeddingDim)
	}
	slog.Info("matcher ready", "strategy", cfg.Recognition.Matcher,
		"dim", cfg.Recognition.EmbeddingDim, "threshold", cfg.Recognition.Threshold)

	coord := recognition.NewCoordinator(db, db, matcher, recognition.CoordinatorConfig{
		Dim:       cfg.Recognition.EmbeddingDim,
		Threshold: cfg.Recognition.Threshold,
		Timeout:   cfg.Recognition.RequestTimeout.Std(),
		Windows:   windows,
	})

	// Setup router
	router := api.NewRouter(api.RouterConfig{
		APIKey:      cfg.Server.APIKey,
		Coordinator: coord,
		Roster:      db,
		Photos:      photos,
		Producer:    producer,
		Hub:         hub,
		Checks: map[string]handlers.Pinger{
			"postgres": db,
			"minio":    photos,
			"nats":     producer,
		},
	})

	// Start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("API server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down API server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("API server stopped")
}

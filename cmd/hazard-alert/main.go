package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/go-ocean-hazards/internal/alerting"
	"github.com/mr1hm/go-ocean-hazards/internal/api"
	"github.com/mr1hm/go-ocean-hazards/internal/config"
	"github.com/mr1hm/go-ocean-hazards/internal/events"
	"github.com/mr1hm/go-ocean-hazards/internal/feed"
	"github.com/mr1hm/go-ocean-hazards/internal/geocode"
	internalgrpc "github.com/mr1hm/go-ocean-hazards/internal/grpc"
	"github.com/mr1hm/go-ocean-hazards/internal/ingestion"
	"github.com/mr1hm/go-ocean-hazards/internal/live"
	"github.com/mr1hm/go-ocean-hazards/internal/logging"
	"github.com/mr1hm/go-ocean-hazards/internal/models"
	"github.com/mr1hm/go-ocean-hazards/internal/observability"
	"github.com/mr1hm/go-ocean-hazards/internal/repository"
	"github.com/mr1hm/go-ocean-hazards/internal/scheduler"
	"github.com/mr1hm/go-ocean-hazards/internal/stream"
	"github.com/mr1hm/go-ocean-hazards/internal/synthetic"
)

const (
	feedSeedReports = 30
	jobTimeout      = 2 * time.Minute
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port)

	if dir := filepath.Dir(cfg.DB.Path); cfg.DB.Path != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			logging.Fatalf("Failed to create database directory: %v", err)
		}
	}
	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := observability.NewMetrics()
	broadcaster := stream.NewBroadcaster()

	// Kafka and Telegram are optional fan-out targets
	var publisher events.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, cfg.Kafka.WriteTimeout)
		slog.Info("kafka publishing enabled", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}
	var senders []alerting.Sender
	if cfg.Telegram.Enabled() {
		tg, err := alerting.NewTelegramSender(cfg.Telegram.BotToken, cfg.Telegram.ChatID, "", nil)
		if err != nil {
			slog.Error("telegram alerts disabled", "error", err)
		} else {
			senders = append(senders, tg)
		}
	}

	alerter := alerting.New(alerting.Options{
		Broadcaster:    broadcaster,
		Publisher:      publisher,
		PublishTimeout: cfg.Kafka.WriteTimeout,
		Notifications:  db,
		Senders:        senders,
		Metrics:        metrics,
	})

	var geocoder geocode.Geocoder
	if cfg.Geocode.Enabled {
		client := geocode.NewClient(cfg.Geocode.BaseURL, cfg.Geocode.UserAgent, cfg.Geocode.RPS, cfg.Geocode.Timeout, metrics)
		geocoder = geocode.NewCachedGeocoder(client, cfg.Geocode.CacheSize, metrics)
	}

	// Start ingestion manager
	mgr := ingestion.NewManager(cfg, db, geocoder, alerter, metrics)
	mgr.Start(ctx)

	generator := synthetic.NewGenerator(cfg.Synthetic.Seed, nil)
	liveFeed := feed.New(feed.Config{
		Interval:       cfg.Feed.Interval,
		MutationChance: cfg.Feed.MutationChance,
		AppendChance:   cfg.Feed.AppendChance,
		MaxReports:     cfg.Feed.MaxReports,
		Seed:           cfg.Feed.Seed,
	}, generator, nil, metrics)
	liveFeed.Load(initialFeed(ctx, db, generator))

	hub := live.NewHub(liveFeed, broadcaster, metrics)
	go hub.Run(ctx)

	// Start gRPC server
	grpcServer := internalgrpc.NewServer(db, broadcaster)
	go func() {
		grpcAddr := fmt.Sprintf(":%d", cfg.GRPC.Port)
		if err := grpcServer.Start(grpcAddr); err != nil {
			logging.Fatalf("gRPC server error: %v", err)
		}
	}()

	jobs := scheduler.New(jobTimeout)
	syntheticJob := scheduler.SyntheticPostsJob(generator, db, cfg.Synthetic.BatchSize, cfg.Synthetic.RadiusKm, metrics)
	hotspotJob := scheduler.HotspotScanJob(db, alerter)
	if err := jobs.Add("synthetic-posts", cfg.Schedule.Synthetic, syntheticJob); err != nil {
		logging.Fatalf("Failed to schedule synthetic posts: %v", err)
	}
	if err := jobs.Add("hotspot-scan", cfg.Schedule.HotspotScan, hotspotJob); err != nil {
		logging.Fatalf("Failed to schedule hotspot scan: %v", err)
	}
	jobs.Start()
	go jobs.RunNow("hotspot-scan", hotspotJob)

	// Gin router
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-API-Key"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false, // Set to false when using wildcard origins
	}))
	router.Use(api.RateLimitMiddleware(cfg.Server.RateLimitRPS))

	handler := api.NewHandler(api.Options{
		Reports:       db,
		Posts:         db,
		Notifications: db,
		Ingest:        mgr,
		Dispatcher:    alerter,
		Feed:          liveFeed,
		Live:          hub,
		Generator:     generator,
		Metrics:       metrics,
		AdminKeyHash:  cfg.Admin.APIKeyHash,
		Ready:         db,
	})
	handler.RegisterRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	jobs.Stop()
	mgr.Stop()
	liveFeed.Close()
	broadcaster.Close() // Close all streams gracefully
	grpcServer.Stop()
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			slog.Error("kafka close error", "error", err)
		}
	}

	slog.Info("shutdown complete")
}

// initialFeed seeds the live feed from stored open reports, falling back to
// generated ones on an empty database.
func initialFeed(ctx context.Context, reports repository.ReportRepository, gen *synthetic.Generator) []models.HazardReport {
	open, err := reports.List(ctx, repository.Filter{OpenOnly: true, Limit: feed.DefaultMaxReports})
	if err != nil {
		slog.Error("error loading reports for feed", "error", err)
	}
	if len(open) > 0 {
		return open
	}

	seeded := make([]models.HazardReport, 0, feedSeedReports)
	for range feedSeedReports {
		r := gen.Report(gen.RandomSite())
		r.Source = "feed"
		seeded = append(seeded, r)
	}
	return seeded
}

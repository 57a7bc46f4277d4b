package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"volume-sentry/internal/detector"
	"volume-sentry/internal/dexscreener"
	"volume-sentry/internal/handlers"
	"volume-sentry/internal/history"
	"volume-sentry/internal/monitor"
	"volume-sentry/internal/watchlist"
	"volume-sentry/shared/config"
	"volume-sentry/shared/env"
	"volume-sentry/shared/logger"
	"volume-sentry/shared/notifications"
)

const defaultWatchlistPath = "config.json"

func main() {
	if err := env.LoadEnv(); err != nil {
		log.Fatalf("FATAL: Failed to load environment variables: %v", err)
	}
	log.Println("INFO: Environment variables loaded via shared/env.")

	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		log.Fatalf("FATAL: Failed to load config.yaml: %v", err)
	}

	appLogger, err := logger.NewLogger(logger.Config{
		Level:       cfg.Logging.Level,
		Environment: "production",
	})
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize logger: %v", err)
	}
	appLogger.Info("Application logger initialized successfully.")

	notifier := notifications.New(env.TelegramBotToken, env.TelegramChatID, appLogger)
	recorder := history.NewRecorder(env.DashboardURL, appLogger)

	watchlistPath := env.WatchlistPath
	if watchlistPath == "" {
		watchlistPath = defaultWatchlistPath
		appLogger.Info("WATCHLIST_PATH not set, using default", "path", watchlistPath)
	}
	tokens := watchlist.NewLoader(watchlistPath, appLogger)

	market := dexscreener.NewClient(cfg.Provider.BaseURL, appLogger)

	policy := detector.Policy{
		Mode:      detector.ParseMode(cfg.Detector.Policy),
		Ratio:     cfg.Detector.Ratio,
		Threshold: cfg.Detector.Threshold,
		Cooldown:  cfg.Detector.Cooldown(),
	}
	det := detector.New(policy, detector.ParseRounding(cfg.Detector.Rounding), appLogger)
	appLogger.Info("Spike detector configured",
		"policy", policy.Mode, "ratio", policy.Ratio,
		"threshold", policy.Threshold, "cooldown", policy.Cooldown)

	mon := monitor.New(tokens, market, det, notifier, recorder,
		cfg.Monitor.Interval(), cfg.Monitor.WarmUp, appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go mon.Run(ctx)

	appLogger.Info("Setting up web server...")
	gin.SetMode(gin.ReleaseMode)
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{"*"}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}
	router.Use(cors.New(corsConfig))

	handlers.RegisterRoutes(router, mon, appLogger)

	go func() {
		serverAddr := ":" + env.Port
		appLogger.Info("Starting web server", "address", serverAddr)
		if err := router.Run(serverAddr); err != nil {
			appLogger.Fatal("Could not start web server.", "error", err)
		}
	}()

	appLogger.Info("Application startup complete. Monitoring for volume spikes...")
	<-ctx.Done()
	appLogger.Info("Shutdown signal received, exiting.")
}

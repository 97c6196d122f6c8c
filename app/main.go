package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/tagvine/postwatch/app/api"
	"github.com/tagvine/postwatch/app/cfg"
	"github.com/tagvine/postwatch/app/database"
	"github.com/tagvine/postwatch/app/matching"
	"github.com/tagvine/postwatch/app/notify"
	"github.com/tagvine/postwatch/app/social"
	"github.com/tagvine/postwatch/app/tasks"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting PostWatch", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	creds, err := social.LoadCredentials(appCfg.CredentialsFile)
	if err != nil {
		slog.Error("Failed to load credentials", "path", appCfg.CredentialsFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Credentials loaded", "count", len(creds))

	pool := social.NewPool(creds, social.PoolConfig{
		CallsPerMinute:   appCfg.CallsPerMinute,
		MinCallSpacing:   time.Duration(appCfg.MinCallSpacing * float64(time.Second)),
		CredentialBudget: appCfg.CredentialBudget,
		CredentialWindow: time.Duration(appCfg.CredentialWindow) * time.Second,
		AcquireMaxWait:   time.Duration(appCfg.AcquireMaxWait) * time.Second,
	})

	client := social.NewHTTPClient(appCfg.GatewayURL, appCfg.UserAgent,
		time.Duration(appCfg.RequestTimeout)*time.Second)

	accountRepo := database.NewAccountRepository(db)
	campaignRepo := database.NewCampaignRepository(db)
	contentRepo := database.NewContentRepository(db)
	metricRepo := database.NewMetricRepository(db)
	scanLogRepo := database.NewScanLogRepository(db)

	matcher := matching.NewMatcher()

	notifiers := notify.MultiNotifier{notify.NewLogNotifier()}
	if appCfg.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(appCfg.WebhookURL, appCfg.UserAgent))
		slog.Info("Webhook notifications enabled", "url", appCfg.WebhookURL)
	}

	scheduler := tasks.NewScheduler(accountRepo, campaignRepo, contentRepo, metricRepo,
		scanLogRepo, pool, client, matcher, notifiers)

	slog.Info("Starting scheduler",
		"api_workers", appCfg.APIWorkerCount,
		"local_workers", appCfg.LocalWorkerCount,
		"tick", appCfg.SchedulerTick)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(accountRepo, campaignRepo, contentRepo, metricRepo,
		scanLogRepo, pool, scheduler)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		slog.Info("Shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	slog.Info("Shutdown complete")
}

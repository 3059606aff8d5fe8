package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"match_bot/internal/bot"
	"match_bot/internal/config"
	"match_bot/internal/engine"
	"match_bot/internal/fetcher"
	"match_bot/internal/metrics"
	"match_bot/internal/provider"
	"match_bot/internal/provider/sources"
	"match_bot/internal/scheduler"
	"match_bot/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	m := metrics.New()

	get := fetcher.New(fetcher.NewHTTPClient(cfg.FetchTimeout), cfg.RequestsPerSecond)
	src, err := sources.New(cfg.DataSource, get, cfg.Region)
	if err != nil {
		log.Error("create data source", "source", cfg.DataSource, "error", err)
		os.Exit(1)
	}
	source := provider.NewGuard(src, provider.GuardConfig{Timeout: cfg.FetchTimeout}, m, log)

	api, err := bot.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	eng := engine.New(store, source, bot.NewNotifier(api, log), m, log, cfg.StartupConcurrency)
	b := bot.New(api, eng, store, cfg, log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Info("starting bot", "source", source.Name(), "region", cfg.Region)

	if err := eng.StartupReconciliation(ctx); err != nil {
		log.Error("startup reconciliation", "error", err)
	}

	sup := scheduler.NewSupervisor(log, scheduler.TreeConfig{})
	jobs := []*scheduler.Job{
		scheduler.NewJob("profile-refresh", cfg.ProfileInterval, eng.RefreshProfiles, store, m, log),
		scheduler.NewJob("match-notifier", cfg.MatchNotifyInterval, eng.NotifyMatches, store, m, log),
		scheduler.NewJob("live-discovery", cfg.LiveDiscoveryInterval, eng.DiscoverLiveMatches, store, m, log),
		scheduler.NewJob("live-notifier", cfg.LiveNotifyInterval, eng.NotifyLiveMatches, store, m, log),
	}
	for _, j := range jobs {
		sup.AddWorker(j)
	}
	sup.AddFrontend(b)
	if cfg.MetricsAddr != "" {
		sup.AddFrontend(metrics.NewServer(cfg.MetricsAddr, m, log))
	}

	if err := sup.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("supervisor stopped", "error", err)
	}

	log.Info("bot stopped")
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"match_bot/internal/provider/sources"
)

// Config holds the application configuration.
type Config struct {
	TelegramBotToken string
	DatabasePath     string
	LogLevel         string
	AllowedUsers     []int64

	DataSource         string
	Region             string
	FetchTimeout       time.Duration
	RequestsPerSecond  float64
	StartupConcurrency int

	ProfileInterval       time.Duration
	MatchNotifyInterval   time.Duration
	LiveDiscoveryInterval time.Duration
	LiveNotifyInterval    time.Duration

	// MetricsAddr is empty when the Prometheus endpoint is disabled.
	MetricsAddr string
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; it never overrides
// variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	token := os.Getenv("TELEGRAM_BOT_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	var allowedUsers []int64
	if raw := os.Getenv("ALLOWED_USERS"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			uid, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid user ID %q in ALLOWED_USERS: %w", s, err)
			}
			allowedUsers = append(allowedUsers, uid)
		}
	}

	cfg := &Config{
		TelegramBotToken: token,
		DatabasePath:     envOr("DATABASE_PATH", "./data/bot.db"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		AllowedUsers:     allowedUsers,
		DataSource:       envOr("DATA_SOURCE", "leagueofgraphs"),
		Region:           envOr("REGION", "na"),
		MetricsAddr:      os.Getenv("METRICS_ADDR"),
	}

	if !slices.Contains(sources.Names, cfg.DataSource) {
		return nil, fmt.Errorf("invalid DATA_SOURCE %q, use one of: %s", cfg.DataSource, strings.Join(sources.Names, ", "))
	}

	var err error
	if cfg.FetchTimeout, err = duration("FETCH_TIMEOUT", 15*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProfileInterval, err = duration("PROFILE_INTERVAL", 180*time.Second); err != nil {
		return nil, err
	}
	if cfg.MatchNotifyInterval, err = duration("MATCH_NOTIFY_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.LiveDiscoveryInterval, err = duration("LIVE_DISCOVERY_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.LiveNotifyInterval, err = duration("LIVE_NOTIFY_INTERVAL", 60*time.Second); err != nil {
		return nil, err
	}

	if raw := os.Getenv("REQUESTS_PER_SECOND"); raw != "" {
		rps, err := strconv.ParseFloat(raw, 64)
		if err != nil || rps < 0 {
			return nil, fmt.Errorf("invalid REQUESTS_PER_SECOND %q", raw)
		}
		cfg.RequestsPerSecond = rps
	} else {
		cfg.RequestsPerSecond = 2
	}

	if raw := os.Getenv("STARTUP_CONCURRENCY"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid STARTUP_CONCURRENCY %q", raw)
		}
		cfg.StartupConcurrency = n
	} else {
		cfg.StartupConcurrency = 4
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// duration parses a positive duration from key.
func duration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, d)
	}
	return d, nil
}

// IsUserAllowed checks whether a user ID is in the allow list.
// Returns true if the allow list is empty (all users permitted).
func (c *Config) IsUserAllowed(userID int64) bool {
	if len(c.AllowedUsers) == 0 {
		return true
	}
	return slices.Contains(c.AllowedUsers, userID)
}

package config

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func defaults(token string) *Config {
	return &Config{
		TelegramBotToken:      token,
		DatabasePath:          "./data/bot.db",
		LogLevel:              "info",
		DataSource:            "leagueofgraphs",
		Region:                "na",
		FetchTimeout:          15 * time.Second,
		RequestsPerSecond:     2,
		StartupConcurrency:    4,
		ProfileInterval:       180 * time.Second,
		MatchNotifyInterval:   60 * time.Second,
		LiveDiscoveryInterval: 60 * time.Second,
		LiveNotifyInterval:    60 * time.Second,
	}
}

var envKeys = []string{
	"TELEGRAM_BOT_TOKEN", "DATABASE_PATH", "LOG_LEVEL", "ALLOWED_USERS",
	"DATA_SOURCE", "REGION", "FETCH_TIMEOUT", "REQUESTS_PER_SECOND", "STARTUP_CONCURRENCY",
	"PROFILE_INTERVAL", "MATCH_NOTIFY_INTERVAL", "LIVE_DISCOVERY_INTERVAL", "LIVE_NOTIFY_INTERVAL",
	"METRICS_ADDR",
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		want    func() *Config
		wantErr bool
	}{
		{
			name:    "missing token",
			env:     map[string]string{},
			wantErr: true,
		},
		{
			name: "token only, defaults applied",
			env:  map[string]string{"TELEGRAM_BOT_TOKEN": "test-token"},
			want: func() *Config { return defaults("test-token") },
		},
		{
			name: "all values set",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN":      "tok",
				"DATABASE_PATH":           "/tmp/bot.db",
				"LOG_LEVEL":               "debug",
				"ALLOWED_USERS":           "111,222,333",
				"DATA_SOURCE":             "opgg",
				"REGION":                  "euw",
				"FETCH_TIMEOUT":           "5s",
				"REQUESTS_PER_SECOND":     "0.5",
				"STARTUP_CONCURRENCY":     "8",
				"PROFILE_INTERVAL":        "5m",
				"MATCH_NOTIFY_INTERVAL":   "30s",
				"LIVE_DISCOVERY_INTERVAL": "2m",
				"LIVE_NOTIFY_INTERVAL":    "45s",
				"METRICS_ADDR":            ":9090",
			},
			want: func() *Config {
				return &Config{
					TelegramBotToken:      "tok",
					DatabasePath:          "/tmp/bot.db",
					LogLevel:              "debug",
					AllowedUsers:          []int64{111, 222, 333},
					DataSource:            "opgg",
					Region:                "euw",
					FetchTimeout:          5 * time.Second,
					RequestsPerSecond:     0.5,
					StartupConcurrency:    8,
					ProfileInterval:       5 * time.Minute,
					MatchNotifyInterval:   30 * time.Second,
					LiveDiscoveryInterval: 2 * time.Minute,
					LiveNotifyInterval:    45 * time.Second,
					MetricsAddr:           ":9090",
				}
			},
		},
		{
			name: "allowed users with spaces",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      " 10 , 20 , ",
			},
			want: func() *Config {
				c := defaults("tok")
				c.AllowedUsers = []int64{10, 20}
				return c
			},
		},
		{
			name: "invalid user id",
			env: map[string]string{
				"TELEGRAM_BOT_TOKEN": "tok",
				"ALLOWED_USERS":      "123,abc",
			},
			wantErr: true,
		},
		{
			name:    "unknown data source",
			env:     map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "DATA_SOURCE": "riot"},
			wantErr: true,
		},
		{
			name:    "invalid duration",
			env:     map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "PROFILE_INTERVAL": "soon"},
			wantErr: true,
		},
		{
			name:    "non-positive interval",
			env:     map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "LIVE_NOTIFY_INTERVAL": "0s"},
			wantErr: true,
		},
		{
			name:    "negative rate",
			env:     map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "REQUESTS_PER_SECOND": "-1"},
			wantErr: true,
		},
		{
			name:    "zero concurrency",
			env:     map[string]string{"TELEGRAM_BOT_TOKEN": "tok", "STARTUP_CONCURRENCY": "0"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Clear relevant env vars
			for _, key := range envKeys {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load()
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want(), got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestIsUserAllowed(t *testing.T) {
	tests := []struct {
		name         string
		allowedUsers []int64
		userID       int64
		want         bool
	}{
		{
			name:         "empty list allows everyone",
			allowedUsers: nil,
			userID:       42,
			want:         true,
		},
		{
			name:         "user in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       20,
			want:         true,
		},
		{
			name:         "user not in list",
			allowedUsers: []int64{10, 20, 30},
			userID:       99,
			want:         false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{AllowedUsers: tt.allowedUsers}
			got := cfg.IsUserAllowed(tt.userID)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("IsUserAllowed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

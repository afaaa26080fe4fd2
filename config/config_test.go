package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TWITCH_CHANNEL", "TWITCH_BOT_USERNAME", "TWITCH_OAUTH_TOKEN",
		"COMMAND_PREFIX", "PHIZONE_BASE_URL", "PHIZONE_HTTP_TIMEOUT",
		"DB_DSN", "HTTP_ADDR",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CommandPrefix != DefaultPrefix {
		t.Errorf("CommandPrefix = %q, want %q", cfg.CommandPrefix, DefaultPrefix)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("HTTPTimeout = %v, want 10s", cfg.HTTPTimeout)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", cfg.HTTPAddr)
	}
	if cfg.DBDsn == "" {
		t.Error("DBDsn should have a default")
	}
	if cfg.PhiZoneBaseURL != "" {
		t.Errorf("PhiZoneBaseURL = %q, want empty (client default applies)", cfg.PhiZoneBaseURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("COMMAND_PREFIX", "!phi")
	t.Setenv("PHIZONE_BASE_URL", "http://localhost:9999")
	t.Setenv("PHIZONE_HTTP_TIMEOUT", "2s")
	t.Setenv("HTTP_ADDR", ":9090")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.CommandPrefix != "!phi" {
		t.Errorf("CommandPrefix = %q, want !phi", cfg.CommandPrefix)
	}
	if cfg.PhiZoneBaseURL != "http://localhost:9999" {
		t.Errorf("PhiZoneBaseURL = %q", cfg.PhiZoneBaseURL)
	}
	if cfg.HTTPTimeout != 2*time.Second {
		t.Errorf("HTTPTimeout = %v, want 2s", cfg.HTTPTimeout)
	}
	if cfg.HTTPAddr != ":9090" {
		t.Errorf("HTTPAddr = %q, want :9090", cfg.HTTPAddr)
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	clearEnv(t)
	t.Setenv("PHIZONE_HTTP_TIMEOUT", "not-a-duration")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for invalid PHIZONE_HTTP_TIMEOUT")
	}
}

func TestValidateChatReady(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name:    "all present",
			cfg:     Config{TwitchChannel: "chan", TwitchBotUsername: "bot", TwitchOAuthToken: "oauth:x"},
			wantErr: false,
		},
		{
			name:    "missing channel",
			cfg:     Config{TwitchBotUsername: "bot", TwitchOAuthToken: "oauth:x"},
			wantErr: true,
		},
		{
			name:    "missing token",
			cfg:     Config{TwitchChannel: "chan", TwitchBotUsername: "bot"},
			wantErr: true,
		},
		{
			name:    "all missing",
			cfg:     Config{},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.ValidateChatReady()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateChatReady() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

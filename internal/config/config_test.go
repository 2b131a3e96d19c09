package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DBPath != "chatlog.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.Cache.StatsTTL != 1200*time.Second {
		t.Errorf("StatsTTL = %v", cfg.Cache.StatsTTL)
	}
	if cfg.Cache.SearchTTL != 600*time.Second {
		t.Errorf("SearchTTL = %v", cfg.Cache.SearchTTL)
	}
	if cfg.RegexScanCap != 5000 || cfg.SummaryHistory != 200 {
		t.Errorf("caps = %d/%d", cfg.RegexScanCap, cfg.SummaryHistory)
	}
	if cfg.Telegram.Token != "" || cfg.Redis.Addr != "" || cfg.LLM.BaseURL != "" {
		t.Error("integrations must default to disabled")
	}
	if cfg.GinMode != "release" || cfg.LogLevel != "info" {
		t.Errorf("mode/level = %q/%q", cfg.GinMode, cfg.LogLevel)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "WARNING")
	t.Setenv("GIN_MODE", "weird")
	t.Setenv("CACHE_STATS_TTL", "5m")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("TELEGRAM_ALLOWED_UPDATES", "message, callback_query ,")
	t.Setenv("LLM_BASE_URL", "http://localhost:8000/v1")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("LogLevel = %q; want normalized warn", cfg.LogLevel)
	}
	if cfg.GinMode != "release" {
		t.Errorf("GinMode = %q; want fallback release", cfg.GinMode)
	}
	if cfg.Cache.StatsTTL != 5*time.Minute {
		t.Errorf("StatsTTL = %v", cfg.Cache.StatsTTL)
	}
	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if got := cfg.Telegram.AllowedUpdates; len(got) != 2 || got[0] != "message" || got[1] != "callback_query" {
		t.Errorf("AllowedUpdates = %v", got)
	}
	if cfg.LLM.Model == "" {
		t.Error("LLM model default missing")
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := map[string]string{
		"LOG_LEVEL":             "verbose",
		"READ_TIMEOUT":          "-1s",
		"REGEX_SCAN_CAP":        "0",
		"SUMMARY_HISTORY":       "0",
		"RATE_BURST":            "0",
		"CACHE_SEARCH_TTL":      "-1s",
		"TELEGRAM_POLL_TIMEOUT": "-5s",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, val)
			if _, err := Load(); err == nil {
				t.Fatalf("%s=%s must fail validation", key, val)
			}
		})
	}
}

func TestLoad_LLMRequiresModel(t *testing.T) {
	t.Setenv("LLM_BASE_URL", "http://localhost:8000/v1")
	t.Setenv("LLM_MODEL", "   ")
	if _, err := Load(); err == nil {
		t.Fatal("blank model with a base URL must fail")
	}
}

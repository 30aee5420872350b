package config

import (
	"os"
	"testing"
	"time"
)

func setenv(t *testing.T, key, val string) {
	t.Helper()
	old, had := os.LookupEnv(key)
	os.Setenv(key, val)
	t.Cleanup(func() {
		if had {
			os.Setenv(key, old)
		} else {
			os.Unsetenv(key)
		}
	})
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8000" {
		t.Errorf("expected default port 8000, got %s", cfg.Port)
	}
	if cfg.CacheTTLSeconds != 30 {
		t.Errorf("expected default cache TTL 30s, got %d", cfg.CacheTTLSeconds)
	}
	if !cfg.IsDev() {
		t.Error("expected development env by default")
	}
}

func TestLoad_MissingDatabaseURLIsNotFatal(t *testing.T) {
	setenv(t, "DATABASE_URL", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("missing DATABASE_URL should not fail load: %v", err)
	}
	if cfg.DatabaseURL != "" {
		t.Errorf("expected empty DATABASE_URL, got %q", cfg.DatabaseURL)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	setenv(t, "PORT", "9100")
	setenv(t, "ENV", "production")
	setenv(t, "CONDITIONS_CACHE_TTL_SECONDS", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9100" {
		t.Errorf("expected port 9100, got %s", cfg.Port)
	}
	if cfg.IsDev() {
		t.Error("expected non-development env")
	}
	if cfg.CacheTTL() != 5*time.Second {
		t.Errorf("expected 5s cache TTL, got %s", cfg.CacheTTL())
	}
}

func TestLoad_InvalidCacheTTLFallsBack(t *testing.T) {
	setenv(t, "CONDITIONS_CACHE_TTL_SECONDS", "-1")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CacheTTLSeconds != 30 {
		t.Errorf("expected fallback to 30, got %d", cfg.CacheTTLSeconds)
	}
}

func TestLoad_CORSOriginsSplit(t *testing.T) {
	setenv(t, "CORS_ORIGINS", "http://a.example,http://b.example")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.CORSOrigins) != 2 {
		t.Fatalf("expected 2 origins, got %v", cfg.CORSOrigins)
	}
}

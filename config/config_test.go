package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("MONGOURI", "mongodb://localhost:27017")
	t.Setenv("JWT_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)
	for _, k := range []string{"PORT", "DB", "TOKEN_TTL", "CACHE_TTL", "RATE_LIMIT_CAPACITY", "CORS_ORIGINS", "REDIS_ADD", "MAX_UPLOAD_BYTES", "TRUST_PROXY"} {
		t.Setenv(k, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.DBName != "realestate" {
		t.Fatalf("port/db defaults: %q %q", cfg.Port, cfg.DBName)
	}
	if cfg.TokenTTL != 30*24*time.Hour {
		t.Fatalf("token ttl default: %v", cfg.TokenTTL)
	}
	if cfg.CacheTTL != 10*time.Minute || cfg.RateLimitCapacity != 20 {
		t.Fatalf("cache/rate defaults: %v %d", cfg.CacheTTL, cfg.RateLimitCapacity)
	}
	if cfg.MaxUploadBytes != 5<<20 {
		t.Fatalf("upload limit default: %d", cfg.MaxUploadBytes)
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("cors default: %v", cfg.CORSOrigins)
	}
	if cfg.RedisAddr != "" {
		t.Fatalf("redis should be off by default")
	}
	if cfg.TrustProxy {
		t.Fatalf("forwarded headers should not be trusted by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "9000")
	t.Setenv("TOKEN_TTL", "1h")
	t.Setenv("RATE_LIMIT_CAPACITY", "5")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("CACHE_TTL", "garbage")
	t.Setenv("TRUST_PROXY", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9000" || cfg.TokenTTL != time.Hour || cfg.RateLimitCapacity != 5 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("cors list: %v", cfg.CORSOrigins)
	}
	if cfg.CacheTTL != 10*time.Minute {
		t.Fatalf("invalid duration should fall back, got %v", cfg.CacheTTL)
	}
	if !cfg.TrustProxy {
		t.Fatalf("TRUST_PROXY=true not applied")
	}
}

func TestLoadRequiresSecrets(t *testing.T) {
	t.Setenv("MONGOURI", "")
	t.Setenv("JWT_KEY", "secret")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without MONGOURI")
	}

	t.Setenv("MONGOURI", "mongodb://localhost:27017")
	t.Setenv("JWT_KEY", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected error without JWT_KEY")
	}
}

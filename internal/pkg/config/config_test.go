package config

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/sethvargo/go-envconfig"
)

func required() map[string]string {
	return map[string]string{
		"JWT_PRIVATE_KEY": "secret",
		"ENCRYPTION_KEY":  "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f",
		"ENCRYPTION_IV":   "0f0e0d0c0b0a09080706050403020100",
	}
}

func TestLoadWith_Defaults(t *testing.T) {
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(required()))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}

	if cfg.Port != "8080" || cfg.StoreDriver != StoreMongo {
		t.Fatalf("unexpected defaults: port=%s store=%s", cfg.Port, cfg.StoreDriver)
	}
	if cfg.JWT.AccessTTL != 15*time.Minute || cfg.JWT.RefreshTTL != 7*24*time.Hour {
		t.Fatalf("unexpected token lifetimes: %v %v", cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	}
	if cfg.RateLimit.ShortLimit != 3 || cfg.RateLimit.ShortTTL != time.Second {
		t.Fatalf("unexpected short window: %+v", cfg.RateLimit)
	}
	if cfg.RateLimit.LongLimit != 100 || cfg.RateLimit.LongTTL != time.Minute {
		t.Fatalf("unexpected long window: %+v", cfg.RateLimit)
	}
	if p := cfg.Pagination; p.MinPerPage != 2 || p.DefaultPerPage != 20 || p.MaxPerPage != 50 {
		t.Fatalf("unexpected pagination bounds: %+v", p)
	}
	if cfg.APIKey.Prefix != "dev_" || cfg.APIKey.Length != 32 {
		t.Fatalf("unexpected api key settings: %+v", cfg.APIKey)
	}
	if cfg.Encryption.Algorithm != "aes-256-cbc" {
		t.Fatalf("unexpected algorithm %q", cfg.Encryption.Algorithm)
	}
}

func TestLoadWith_Overrides(t *testing.T) {
	env := required()
	env["STORE_DRIVER"] = "memory"
	env["JWT_SIGN_EXPIRES_IN"] = "1h"
	env["RATE_LIMIT_LONG_LIMIT"] = "500"
	env["REDIS_ENABLED"] = "false"

	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.StoreDriver != StoreMemory || cfg.JWT.AccessTTL != time.Hour || cfg.RateLimit.LongLimit != 500 || cfg.Redis.Enabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadWith_MissingSecrets(t *testing.T) {
	_, err := LoadWith(context.Background(), envconfig.MapLookuper(map[string]string{}))
	if err == nil {
		t.Fatalf("expected error")
	}
	for _, want := range []string{"JWT_PRIVATE_KEY", "ENCRYPTION_KEY"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %q in %v", want, err)
		}
	}
}

func TestValidate_Bounds(t *testing.T) {
	env := required()
	env["PAGINATION_MIN_PER_PAGE"] = "30"
	env["STORE_DRIVER"] = "postgres"

	_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "pagination") || !strings.Contains(err.Error(), "STORE_DRIVER") {
		t.Fatalf("expected both problems reported, got %v", err)
	}
}

func TestLoadWith_MemoryStoreRejectedInProduction(t *testing.T) {
	env := required()
	env["ENV"] = "production"
	env["STORE_DRIVER"] = StoreMemory

	_, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err == nil || !strings.Contains(err.Error(), "not allowed in production") {
		t.Fatalf("expected production store error, got %v", err)
	}

	env["ENV"] = "development"
	cfg, err := LoadWith(context.Background(), envconfig.MapLookuper(env))
	if err != nil {
		t.Fatalf("LoadWith returned error: %v", err)
	}
	if cfg.IsProduction() {
		t.Fatalf("development reported as production")
	}
}

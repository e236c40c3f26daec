package config

import (
	"os"
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_USER", "theatre")
	t.Setenv("DB_NAME", "theatre")
}

func TestLoadDefaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DB.Port != "3306" || !cfg.DB.AutoMigrate {
		t.Fatalf("unexpected db defaults: %+v", cfg.DB)
	}
	if cfg.Cache.TTL != 30*time.Second {
		t.Fatalf("expected cache ttl 30s, got %s", cfg.Cache.TTL)
	}
	if cfg.Broker.Normalized() != BrokerNone {
		t.Fatalf("expected broker none, got %q", cfg.Broker.Normalized())
	}
	if cfg.Admin.Enabled() {
		t.Fatalf("admin bootstrap should be disabled without credentials")
	}
}

func TestLoadMissingRequired(t *testing.T) {
	for _, k := range []string{"JWT_SECRET", "DB_USER", "DB_NAME"} {
		t.Setenv(k, "") // restores the previous value on cleanup
		os.Unsetenv(k)
	}

	if _, err := Load(""); err == nil {
		t.Fatalf("expected error for missing required variables")
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequired(t)
	t.Setenv("BROKER", "Kafka")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("RATE_LIMIT_CAPACITY", "0")
	t.Setenv("RATE_LIMIT_REFILL_INTERVAL", "2s")
	t.Setenv("RATE_LIMIT_TTL", "1s")
	t.Setenv("CACHE_METHODS", "get, head")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Broker.Normalized() != BrokerKafka {
		t.Fatalf("expected kafka broker, got %q", cfg.Broker.Normalized())
	}
	if len(cfg.Broker.Brokers) != 2 || cfg.Broker.Brokers[1] != "k2:9092" {
		t.Fatalf("unexpected brokers: %v", cfg.Broker.Brokers)
	}
	if cfg.RateLimit.Capacity != 1 {
		t.Fatalf("capacity should be clamped to 1, got %d", cfg.RateLimit.Capacity)
	}
	if cfg.RateLimit.TTL != 10*time.Second {
		t.Fatalf("ttl should be raised to 5 refill intervals, got %s", cfg.RateLimit.TTL)
	}
	methods := cfg.Cache.MethodSet()
	if !methods["GET"] || !methods["HEAD"] || len(methods) != 2 {
		t.Fatalf("unexpected method set: %v", methods)
	}
}

func TestRedisAddress(t *testing.T) {
	if got := (RedisConfig{Host: "redis", Port: "6380"}).Address(); got != "redis:6380" {
		t.Fatalf("unexpected address %q", got)
	}
	if got := (RedisConfig{Host: "redis", Port: "6380", Addr: "cache:6379"}).Address(); got != "cache:6379" {
		t.Fatalf("addr should take precedence, got %q", got)
	}
}

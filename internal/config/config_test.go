package config

import (
	"flag"
	"os"
	"strings"
	"testing"
	"time"
)

// resetFlagSet создаёт новый FlagSet перед каждым вызовом NewConfig,
// чтобы избежать повторной регистрации одних и тех же флагов между тестами.
func resetFlagSet(t *testing.T) {
	t.Helper()
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	// подавляем вывод парсера флагов в тестах
	flag.CommandLine.SetOutput(os.Stderr)
}

var allKeys = []string{
	"NETWORK", "STORE_BACKEND", "WALRUS_PUBLISHER_URL", "WALRUS_AGGREGATOR_URL", "WALRUS_CLI",
	"STORE_EPOCHS", "STORE_DELETABLE", "DATABASE_URI", "SIGNER_KEY", "MAX_RETRIES", "RETRY_DELAY_MS",
	"AUTH_SECRET", "BLOB_MAX_MB", "BASE_URL", "ENABLE_HTTPS", "CLIENT_DB_PATH", "TOKEN_FILE",
}

// clearEnv обнуляет все переменные конфигурации на время теста
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range allKeys {
		t.Setenv(k, "")
		_ = os.Unsetenv(k)
	}
}

func TestNewConfig_DefaultsWhenEnvEmpty(t *testing.T) {
	clearEnv(t)
	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.Network != "testnet" {
		t.Fatalf("Network default expected 'testnet', got %q", cfg.Network)
	}
	if cfg.StoreBackend != BackendWalrus {
		t.Fatalf("StoreBackend default expected walrus, got %q", cfg.StoreBackend)
	}
	if cfg.PublisherURL != "https://publisher.walrus-testnet.walrus.space" {
		t.Fatalf("unexpected publisher default %q", cfg.PublisherURL)
	}
	if cfg.StoreEpochs != 3 || !cfg.StoreDeletable {
		t.Fatalf("write defaults expected epochs=3 deletable=true, got %d/%v", cfg.StoreEpochs, cfg.StoreDeletable)
	}
	if cfg.MaxRetries != 1 || cfg.RetryDelayMS != 1000 {
		t.Fatalf("retry defaults expected 1/1000, got %d/%d", cfg.MaxRetries, cfg.RetryDelayMS)
	}
	if cfg.AuthSecret != "" {
		t.Fatalf("auth must be disabled by default, got %q", cfg.AuthSecret)
	}
	if cfg.BaseURL != "localhost:39260" || cfg.ServerURL != "http://localhost:39260" {
		t.Fatalf("BaseURL/ServerURL defaults unexpected: %q %q", cfg.BaseURL, cfg.ServerURL)
	}
	if cfg.ClientDBPath == "" || cfg.TokenFile == "" {
		t.Fatalf("client defaults must be non-empty: ClientDBPath=%q, TokenFile=%q", cfg.ClientDBPath, cfg.TokenFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config must be valid: %v", err)
	}
}

func TestNewConfig_FromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("BASE_URL", "example.com:443")
	t.Setenv("ENABLE_HTTPS", "true")
	t.Setenv("STORE_BACKEND", "db")
	t.Setenv("DATABASE_URI", "file:test.db")
	t.Setenv("MAX_RETRIES", "3")
	t.Setenv("RETRY_DELAY_MS", "250")
	t.Setenv("STORE_DELETABLE", "false")
	t.Setenv("NETWORK", "mainnet")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.ServerURL != "https://example.com:443" {
		t.Fatalf("ServerURL expected 'https://example.com:443', got %q", cfg.ServerURL)
	}
	if cfg.StoreBackend != BackendDB || cfg.DatabaseDSN != "file:test.db" {
		t.Fatalf("db backend settings not applied: %q %q", cfg.StoreBackend, cfg.DatabaseDSN)
	}
	if cfg.AggregatorURL != "https://aggregator.walrus-mainnet.walrus.space" {
		t.Fatalf("aggregator must follow network, got %q", cfg.AggregatorURL)
	}
	p := cfg.RetryPolicy()
	if p.MaxAttempts != 3 || p.BaseDelay != 250*time.Millisecond {
		t.Fatalf("unexpected retry policy %+v", p)
	}
	if w := cfg.WriteOptions(); w.Deletable || w.Epochs != 3 {
		t.Fatalf("unexpected write options %+v", w)
	}
}

func TestNewConfig_InvalidBaseURLFallback(t *testing.T) {
	clearEnv(t)
	// Невалидный BASE_URL (со схемой) должен откатиться на localhost:39260
	t.Setenv("BASE_URL", "http://bad:8080")

	resetFlagSet(t)
	cfg := NewConfig()

	if cfg.BaseURL != "localhost:39260" {
		t.Fatalf("invalid BASE_URL must fallback to 'localhost:39260', got %q", cfg.BaseURL)
	}
	if !strings.HasPrefix(cfg.ServerURL, "http://localhost:39260") {
		t.Fatalf("ServerURL must reflect fallback base, got %q", cfg.ServerURL)
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := &Config{StoreBackend: "s3"}
	cfg.applyDefaults()
	if err := cfg.Validate(); err == nil {
		t.Fatalf("unknown backend must be rejected")
	}
}

package config_test

import (
	"os"
	"testing"
	"time"

	"github.com/iho/fundledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORAGE_DRIVER", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.StorageDriver != config.StoragePostgres {
		t.Fatalf("expected postgres storage by default, got %q", cfg.StorageDriver)
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseLockTimeout != 5*time.Second {
		t.Fatalf("expected 5s lock timeout, got %s", cfg.DatabaseLockTimeout)
	}

	if cfg.OutboxRetention != 7*24*time.Hour || cfg.AutoMigrate {
		t.Fatalf("unexpected outbox defaults: retention=%s auto_migrate=%v", cfg.OutboxRetention, cfg.AutoMigrate)
	}

	pct, err := cfg.IncomePercent()
	if err != nil || pct.String() != "70" {
		t.Fatalf("expected default income share 70, got %s (%v)", pct, err)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/ledger.db")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("MEMBERSHIP_INCOME_PCT", "65.5")
	t.Setenv("OUTBOX_INTERVAL", "250ms")
	t.Setenv("CHART_OF_ACCOUNTS_FILE", "chart.yaml")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.StorageDriver != config.StorageSQLite || cfg.SQLitePath != "/tmp/ledger.db" {
		t.Fatalf("expected sqlite storage override, got %s %s", cfg.StorageDriver, cfg.SQLitePath)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.OutboxInterval != 250*time.Millisecond {
		t.Fatalf("expected outbox interval override, got %s", cfg.OutboxInterval)
	}

	if cfg.ChartOfAccountsFile != "chart.yaml" {
		t.Fatalf("expected chart file override, got %s", cfg.ChartOfAccountsFile)
	}

	pct, _ := cfg.IncomePercent()
	if pct.String() != "65.5" {
		t.Fatalf("expected income share 65.5, got %s", pct)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "duration", key: "HTTP_READ_TIMEOUT", value: "not-a-duration"},
		{name: "storage driver", key: "STORAGE_DRIVER", value: "mongodb"},
		{name: "income share not a number", key: "MEMBERSHIP_INCOME_PCT", value: "seventy"},
		{name: "income share above 100", key: "MEMBERSHIP_INCOME_PCT", value: "120"},
		{name: "outbox batch size", key: "OUTBOX_BATCH_SIZE", value: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := os.Getenv(tt.key)
			t.Setenv(tt.key, tt.value)
			t.Cleanup(func() {
				t.Setenv(tt.key, original)
			})

			if _, err := config.Load(); err == nil {
				t.Fatalf("expected error for %s=%s", tt.key, tt.value)
			}
		})
	}
}

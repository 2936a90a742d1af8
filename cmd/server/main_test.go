package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_InvalidConfiguration(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongodb")

	err := run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load configuration")
}

func TestRun_StartupFailureReturnsError(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(dir, "ledger.db"))
	t.Setenv("REDIS_URL", "")
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("CHART_OF_ACCOUNTS_FILE", filepath.Join(dir, "missing.yaml"))

	assert.Error(t, run(context.Background()))
}

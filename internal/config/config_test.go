package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "migrations", cfg.Postgres.MigrationsDir)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("POSTGRES_MIGRATIONS_DIR", "db/migrations")
	t.Setenv("LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db/migrations", cfg.Postgres.MigrationsDir)
	assert.Equal(t, "console", cfg.Logger.Format)
}

package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"harmonia/api/internal/config"
)

func TestNewPoolConfig(t *testing.T) {
	cfg, err := newPoolConfig(config.PostgresConfig{
		DSN:              "postgres://u:p@127.0.0.1:5432/harmonia?sslmode=disable",
		MaxOpen:          12,
		MaxIdle:          3,
		ConnMaxLifetime:  10 * time.Minute,
		StatementTimeout: 5 * time.Second,
		ApplicationName:  "harmonia-api",
	})
	require.NoError(t, err)

	assert.Equal(t, int32(12), cfg.MaxConns)
	assert.Equal(t, int32(3), cfg.MinConns)
	assert.Equal(t, 10*time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, "5000", cfg.ConnConfig.RuntimeParams["statement_timeout"])
	assert.Equal(t, "harmonia-api", cfg.ConnConfig.RuntimeParams["application_name"])
}

func TestNewPoolConfigWithoutTimeout(t *testing.T) {
	cfg, err := newPoolConfig(config.PostgresConfig{DSN: "postgres://u:p@127.0.0.1:5432/harmonia"})
	require.NoError(t, err)
	assert.NotContains(t, cfg.ConnConfig.RuntimeParams, "statement_timeout")
}

func TestNewPoolConfigBadDSN(t *testing.T) {
	_, err := newPoolConfig(config.PostgresConfig{DSN: "postgres://%zz"})
	assert.Error(t, err)
}

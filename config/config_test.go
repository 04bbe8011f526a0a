package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tokendraw")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("DATABASE_MAX_CONNS", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, int32(10), cfg.DatabaseMaxConns)
	assert.Equal(t, "development", cfg.Environment)
}

func TestLoad_DatabaseMaxConnsOverride(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/tokendraw")
	t.Setenv("DATABASE_MAX_CONNS", "25")

	cfg, err := load()
	require.NoError(t, err)
	assert.Equal(t, int32(25), cfg.DatabaseMaxConns)

	// Garbage and non-positive values keep the default
	t.Setenv("DATABASE_MAX_CONNS", "banana")
	cfg, err = load()
	require.NoError(t, err)
	assert.Equal(t, int32(10), cfg.DatabaseMaxConns)

	t.Setenv("DATABASE_MAX_CONNS", "0")
	cfg, err = load()
	require.NoError(t, err)
	assert.Equal(t, int32(10), cfg.DatabaseMaxConns)
}

func TestLoad_RequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("ENVIRONMENT", "")

	_, err := load()
	assert.Error(t, err)

	t.Setenv("ENVIRONMENT", "test")
	_, err = load()
	assert.NoError(t, err)
}

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	t.Setenv("PINBOARD_JWT_SECRET", "s3cret")
	t.Setenv("PINBOARD_DATABASE_DRIVER", "sqlite")
	t.Setenv("PINBOARD_SERVER_PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.EqualValues(t, 5<<20, cfg.Server.MaxUploadBytes)
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("PINBOARD_JWT_SECRET", "")
	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{
		Database: DatabaseConfig{Driver: "oracle"},
		JWT:      JWTConfig{Secret: "x"},
		Server:   ServerConfig{MaxUploadBytes: 1},
	}
	assert.Error(t, cfg.Validate())

	cfg.Database.Driver = "mysql"
	assert.NoError(t, cfg.Validate())

	cfg.Server.MaxUploadBytes = 0
	assert.Error(t, cfg.Validate())
}

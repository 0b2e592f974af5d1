package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func devConfig() *Config {
	return &Config{
		Port:         "8480",
		JWTSecret:    "dev-secret",
		LoginMessage: "Sign this message to log in to Exon",
		DBPassword:   "password",
		Env:          "development",
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid development config", func(t *testing.T) {
		t.Parallel()
		require.NoError(t, devConfig().Validate())
	})

	t.Run("missing port", func(t *testing.T) {
		t.Parallel()
		cfg := devConfig()
		cfg.Port = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing login message", func(t *testing.T) {
		t.Parallel()
		cfg := devConfig()
		cfg.LoginMessage = ""
		assert.Error(t, cfg.Validate())
	})

	t.Run("production rejects default jwt secret", func(t *testing.T) {
		t.Parallel()
		cfg := devConfig()
		cfg.Env = "production"
		cfg.JWTSecret = "your-secret-key-change-in-production"
		assert.Error(t, cfg.Validate())
	})

	t.Run("production rejects short jwt secret", func(t *testing.T) {
		t.Parallel()
		cfg := devConfig()
		cfg.Env = "production"
		cfg.JWTSecret = "short"
		assert.Error(t, cfg.Validate())
	})

	t.Run("production rejects weak db password", func(t *testing.T) {
		t.Parallel()
		cfg := devConfig()
		cfg.Env = "production"
		cfg.JWTSecret = "a-long-enough-production-secret-value-123"
		cfg.DBPassword = "password"
		assert.Error(t, cfg.Validate())
	})
}

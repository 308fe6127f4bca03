package config

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMasterKey = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"SELLEROPS_APP_NAME":              os.Getenv("SELLEROPS_APP_NAME"),
		"SELLEROPS_APP_ENV":               os.Getenv("SELLEROPS_APP_ENV"),
		"SELLEROPS_APP_PORT":              os.Getenv("SELLEROPS_APP_PORT"),
		"SELLEROPS_DATABASE_HOST":         os.Getenv("SELLEROPS_DATABASE_HOST"),
		"SELLEROPS_DATABASE_PASSWORD":     os.Getenv("SELLEROPS_DATABASE_PASSWORD"),
		"SELLEROPS_DATABASE_SSLMODE":      os.Getenv("SELLEROPS_DATABASE_SSLMODE"),
		"SELLEROPS_VAULT_MASTER_KEY":      os.Getenv("SELLEROPS_VAULT_MASTER_KEY"),
		"SELLEROPS_POLICY_MAX_RETRIES":    os.Getenv("SELLEROPS_POLICY_MAX_RETRIES"),
		"SELLEROPS_POLICY_PUSH_ENABLED":   os.Getenv("SELLEROPS_POLICY_PUSH_ENABLED"),
		"SELLEROPS_POLICY_MOCK_ENABLED":   os.Getenv("SELLEROPS_POLICY_MOCK_ENABLED"),
		"SELLEROPS_SYNC_LOOKBACK_MINUTES": os.Getenv("SELLEROPS_SYNC_LOOKBACK_MINUTES"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	clearEnv := func() {
		for k := range originalEnv {
			os.Unsetenv(k)
		}
	}

	t.Run("loads default values when env vars not set", func(t *testing.T) {
		clearEnv()

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "sellerops-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, "sellerops", cfg.Database.DBName)
		assert.Equal(t, 1, cfg.Policy.MaxRetries)
		assert.Equal(t, 400, cfg.Policy.RetryBaseDelayMs)
		assert.True(t, cfg.Policy.PushEnabled)
		assert.False(t, cfg.Policy.MockEnabled)
		assert.Equal(t, "cj", cfg.Policy.DefaultCourier)
		assert.Equal(t, 1440, cfg.Sync.LookbackMinutes)
		assert.Equal(t, 20, cfg.Sync.PageCap)
		assert.False(t, cfg.Scheduler.Enabled)
		assert.Equal(t, 3, cfg.Scheduler.Workers)
		assert.Equal(t, 15, cfg.Scheduler.OrderIntervalMinutes)
		assert.Equal(t, 30, cfg.Scheduler.InquiryIntervalMinutes)
	})

	t.Run("loads values from environment variables with SELLEROPS prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("SELLEROPS_APP_NAME", "test-app")
		os.Setenv("SELLEROPS_DATABASE_HOST", "testdb.local")
		os.Setenv("SELLEROPS_POLICY_MAX_RETRIES", "3")
		os.Setenv("SELLEROPS_VAULT_MASTER_KEY", testMasterKey)

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 3, cfg.Policy.MaxRetries)
		assert.Equal(t, testMasterKey, cfg.Vault.MasterKey)
	})

	t.Run("push can be disabled explicitly", func(t *testing.T) {
		clearEnv()
		os.Setenv("SELLEROPS_POLICY_PUSH_ENABLED", "false")

		cfg, err := Load()
		require.NoError(t, err)

		assert.False(t, cfg.Policy.PushEnabled)
	})

	t.Run("oversized lookback window is capped", func(t *testing.T) {
		clearEnv()
		os.Setenv("SELLEROPS_SYNC_LOOKBACK_MINUTES", "999999")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, maxLookbackMinutes, cfg.Sync.LookbackMinutes)
	})

	t.Run("rejects a master key of the wrong length", func(t *testing.T) {
		clearEnv()
		os.Setenv("SELLEROPS_VAULT_MASTER_KEY", "abcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault.master_key")
	})

	t.Run("rejects a non-hex master key", func(t *testing.T) {
		clearEnv()
		os.Setenv("SELLEROPS_VAULT_MASTER_KEY", strings.Repeat("z", 64))

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "valid hex")
	})

	t.Run("production requires a master key and secured database", func(t *testing.T) {
		clearEnv()
		os.Setenv("SELLEROPS_APP_ENV", "production")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "vault.master_key is required")

		os.Setenv("SELLEROPS_VAULT_MASTER_KEY", testMasterKey)
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password")

		os.Setenv("SELLEROPS_DATABASE_PASSWORD", "secret")
		_, err = Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode")

		os.Setenv("SELLEROPS_DATABASE_SSLMODE", "require")
		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})

	t.Run("production rejects mock gateways", func(t *testing.T) {
		clearEnv()
		os.Setenv("SELLEROPS_APP_ENV", "production")
		os.Setenv("SELLEROPS_VAULT_MASTER_KEY", testMasterKey)
		os.Setenv("SELLEROPS_DATABASE_PASSWORD", "secret")
		os.Setenv("SELLEROPS_DATABASE_SSLMODE", "require")
		os.Setenv("SELLEROPS_POLICY_MOCK_ENABLED", "true")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mock_enabled")
	})
}

func TestDatabaseConfigDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host:     "db.internal",
		Port:     5432,
		User:     "sellerops",
		Password: "p@ss/word",
		DBName:   "sellerops",
		SSLMode:  "require",
	}

	dsn := cfg.DSN()

	assert.Contains(t, dsn, "postgres://")
	assert.Contains(t, dsn, "db.internal:5432")
	assert.Contains(t, dsn, "sslmode=require")
	// Special characters must be escaped, not passed raw.
	assert.NotContains(t, dsn, "p@ss/word")
}

package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars and restore after tests
	originalEnv := map[string]string{
		"CRM_APP_NAME":                os.Getenv("CRM_APP_NAME"),
		"CRM_APP_ENV":                 os.Getenv("CRM_APP_ENV"),
		"CRM_APP_PORT":                os.Getenv("CRM_APP_PORT"),
		"CRM_DATABASE_HOST":           os.Getenv("CRM_DATABASE_HOST"),
		"CRM_DATABASE_PORT":           os.Getenv("CRM_DATABASE_PORT"),
		"CRM_DATABASE_USER":           os.Getenv("CRM_DATABASE_USER"),
		"CRM_DATABASE_PASSWORD":       os.Getenv("CRM_DATABASE_PASSWORD"),
		"CRM_DATABASE_DBNAME":         os.Getenv("CRM_DATABASE_DBNAME"),
		"CRM_DATABASE_SSLMODE":        os.Getenv("CRM_DATABASE_SSLMODE"),
		"CRM_DATABASE_MAX_OPEN_CONNS": os.Getenv("CRM_DATABASE_MAX_OPEN_CONNS"),
		"CRM_DATABASE_MAX_IDLE_CONNS": os.Getenv("CRM_DATABASE_MAX_IDLE_CONNS"),
		"CRM_BITRIX_WEBHOOK_URL":      os.Getenv("CRM_BITRIX_WEBHOOK_URL"),
		"CRM_BITRIX_PAGE_SIZE":        os.Getenv("CRM_BITRIX_PAGE_SIZE"),
		"CRM_BITRIX_CHUNK_SIZE":       os.Getenv("CRM_BITRIX_CHUNK_SIZE"),
		"CRM_STORAGE_PROVIDER":        os.Getenv("CRM_STORAGE_PROVIDER"),
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

		assert.Equal(t, "crmportal-backend", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "crmportal", cfg.Database.DBName)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 50, cfg.Bitrix.PageSize)
		assert.Equal(t, 50, cfg.Bitrix.ChunkSize)
		assert.Equal(t, 500*time.Millisecond, cfg.Bitrix.CallDelay)
		assert.Equal(t, "memory", cfg.Storage.Provider)
		assert.Equal(t, 10*time.Minute, cfg.Redis.CompanyCacheTTL)
	})

	t.Run("loads values from environment variables with CRM prefix", func(t *testing.T) {
		clearEnv()
		os.Setenv("CRM_APP_NAME", "test-app")
		os.Setenv("CRM_APP_PORT", "9000")
		os.Setenv("CRM_DATABASE_HOST", "testdb.local")
		os.Setenv("CRM_DATABASE_PORT", "5433")
		os.Setenv("CRM_BITRIX_WEBHOOK_URL", "https://portal.example.com/rest/1/token")
		os.Setenv("CRM_BITRIX_PAGE_SIZE", "25")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "test-app", cfg.App.Name)
		assert.Equal(t, "9000", cfg.App.Port)
		assert.Equal(t, "testdb.local", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, "https://portal.example.com/rest/1/token", cfg.Bitrix.WebhookURL)
		assert.Equal(t, 25, cfg.Bitrix.PageSize)
	})

	t.Run("validates MaxIdleConns cannot exceed MaxOpenConns", func(t *testing.T) {
		clearEnv()
		os.Setenv("CRM_DATABASE_MAX_OPEN_CONNS", "10")
		os.Setenv("CRM_DATABASE_MAX_IDLE_CONNS", "20")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max_idle_conns")
		assert.Contains(t, err.Error(), "cannot exceed")
	})

	t.Run("rejects invalid webhook URL", func(t *testing.T) {
		clearEnv()
		os.Setenv("CRM_BITRIX_WEBHOOK_URL", "not a url")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bitrix.webhook_url")
	})

	t.Run("rejects unknown storage provider", func(t *testing.T) {
		clearEnv()
		os.Setenv("CRM_STORAGE_PROVIDER", "ftp")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.provider")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	originalEnv := map[string]string{
		"CRM_APP_ENV":            os.Getenv("CRM_APP_ENV"),
		"CRM_BITRIX_WEBHOOK_URL": os.Getenv("CRM_BITRIX_WEBHOOK_URL"),
		"CRM_DATABASE_PASSWORD":  os.Getenv("CRM_DATABASE_PASSWORD"),
		"CRM_DATABASE_SSLMODE":   os.Getenv("CRM_DATABASE_SSLMODE"),
		"CRM_STORAGE_PROVIDER":   os.Getenv("CRM_STORAGE_PROVIDER"),
		"CRM_STORAGE_BUCKET":     os.Getenv("CRM_STORAGE_BUCKET"),
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

	setValidProductionBase := func() {
		os.Setenv("CRM_APP_ENV", "production")
		os.Setenv("CRM_BITRIX_WEBHOOK_URL", "https://portal.example.com/rest/1/token")
		os.Setenv("CRM_DATABASE_PASSWORD", "secure-password")
		os.Setenv("CRM_DATABASE_SSLMODE", "require")
		os.Setenv("CRM_STORAGE_PROVIDER", "s3")
		os.Setenv("CRM_STORAGE_BUCKET", "crm-exports")
	}

	t.Run("requires webhook URL in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("CRM_BITRIX_WEBHOOK_URL")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "bitrix.webhook_url is required in production")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Unsetenv("CRM_DATABASE_PASSWORD")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CRM_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects memory storage in production", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()
		os.Setenv("CRM_STORAGE_PROVIDER", "memory")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "storage.provider cannot be 'memory' in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		clearEnv()
		setValidProductionBase()

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost")
		assert.Contains(t, dsn, "5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "pass%40word%23123")
	})
}

func TestRedisConfig_Addr(t *testing.T) {
	cfg := RedisConfig{Host: "cache.local", Port: 6380}
	assert.Equal(t, "cache.local:6380", cfg.Addr())
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"progressboard/internal/config"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var keys = []string{
	"SERVER_PORT", "STORE_DRIVER", "REMOTE_URL", "REMOTE_TIMEOUT", "STRICT_RESTORE",
	"ID_STRATEGY", "JWT_SECRET", "JWT_TTL", "LOG_LEVEL", "LOG_FORMAT", "BOARD_CONFIG",
	"REDIS_KEY_PREFIX", "TABLES_CONNECTION_STRING", "EVENTS_CONNECTION_STRING", "EVENTS_QUEUE",
}

// clearEnv снимает переменные окружения на время теста
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		if old, ok := os.LookupEnv(k); ok {
			require.NoError(t, os.Unsetenv(k))
			t.Cleanup(func() { os.Setenv(k, old) })
		}
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "https://kanban-board-api.vercel.app/", cfg.RemoteURL)
	assert.True(t, cfg.HydrationEnabled())
	assert.Zero(t, cfg.RemoteTimeout)
	assert.False(t, cfg.StrictRestore)
	assert.Equal(t, "sequence", cfg.IDStrategy)
	assert.Empty(t, cfg.JWTSecret)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "board:", cfg.RedisKeyPrefix)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "redis")
	t.Setenv("REMOTE_TIMEOUT", "3s")
	t.Setenv("STRICT_RESTORE", "true")
	t.Setenv("ID_STRATEGY", "uuid")
	t.Setenv("REMOTE_URL", "")

	cfg := config.Load()

	assert.Equal(t, config.DriverRedis, cfg.StoreDriver)
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout)
	assert.True(t, cfg.StrictRestore)
	assert.Equal(t, "uuid", cfg.IDStrategy)
	assert.False(t, cfg.HydrationEnabled())
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "mongo")
	t.Setenv("REMOTE_TIMEOUT", "soon")
	t.Setenv("STRICT_RESTORE", "maybe")
	t.Setenv("JWT_TTL", "-1h")
	t.Setenv("LOG_FORMAT", "xml")

	cfg := config.Load()

	assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
	assert.Zero(t, cfg.RemoteTimeout)
	assert.False(t, cfg.StrictRestore)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_TOMLFileSitsBelowEnvironment(t *testing.T) {
	// Arrange
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "board.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
SERVER_PORT = 9090
STORE_DRIVER = "postgres"
STRICT_RESTORE = true
REDIS_KEY_PREFIX = "team-a:"
`), 0o600))
	t.Setenv("BOARD_CONFIG", path)
	t.Setenv("REDIS_KEY_PREFIX", "team-b:")

	// Act
	cfg := config.Load()

	// Assert
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, config.DriverPostgres, cfg.StoreDriver)
	assert.True(t, cfg.StrictRestore)
	assert.Equal(t, "team-b:", cfg.RedisKeyPrefix)
}

func TestLoad_UnreadableTOMLIsIgnored(t *testing.T) {
	clearEnv(t)
	t.Setenv("BOARD_CONFIG", filepath.Join(t.TempDir(), "missing.toml"))

	cfg := config.Load()

	assert.Equal(t, "8080", cfg.ServerPort)
}

func TestLoad_EventsConnectionDefaultsToTables(t *testing.T) {
	clearEnv(t)
	t.Setenv("TABLES_CONNECTION_STRING", "UseDevelopmentStorage=true")

	cfg := config.Load()
	assert.Equal(t, "UseDevelopmentStorage=true", cfg.EventsConnectionString)
	assert.Empty(t, cfg.EventsQueue)

	t.Setenv("EVENTS_CONNECTION_STRING", "AccountName=events")
	assert.Equal(t, "AccountName=events", config.Load().EventsConnectionString)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "board"}

	assert.Equal(t, "host=db port=5432 user=u password=p dbname=board sslmode=disable", cfg.PostgresDSN())
}

func TestSetupLogging(t *testing.T) {
	logger := log.New()

	(&config.Config{LogLevel: "debug", LogFormat: "json"}).SetupLogging(logger)
	assert.Equal(t, log.DebugLevel, logger.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, logger.Formatter)

	(&config.Config{LogLevel: "loud", LogFormat: "text"}).SetupLogging(logger)
	assert.Equal(t, log.InfoLevel, logger.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, logger.Formatter)
}

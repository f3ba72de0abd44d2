package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// unsetForTest clears key for the duration of the test and restores it afterwards.
func unsetForTest(t *testing.T, key string) {
	t.Setenv(key, "")
	require.NoError(t, os.Unsetenv(key))
}

func TestLoadFromJSONWithDefaults(t *testing.T) {
	for _, key := range []string{"APP_PORT", "JWT_SECRET", "DB_DRIVER", "NATS_URL", "LOG_LEVEL", "TOKEN_TTL_HOURS"} {
		unsetForTest(t, key)
	}
	jsonPath := writeFile(t, "config.json", `{
		"app": {"JWTSecret": "from-json", "AllowedOrigins": ["http://localhost:5173"]},
		"database": {"Driver": "sqlite", "DBName": "blogs"},
		"nats": {"URL": "nats://127.0.0.1:4222"},
		"log": {"Level": "debug", "Compress": true}
	}`)

	cfg, err := LoadFrom(jsonPath, "")
	require.NoError(t, err)
	assert.Equal(t, "from-json", cfg.JWTSecret)
	assert.Equal(t, []string{"http://localhost:5173"}, cfg.AllowedOrigins)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATSURL)
	assert.Equal(t, "posts", cfg.NATSSubjectPrefix)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.LogCompress)

	assert.Equal(t, "3003", cfg.AppPort)
	assert.Equal(t, 72, cfg.TokenTTLHours)
	assert.Equal(t, 10, cfg.WriteTimeoutSec)
	assert.Equal(t, 6379, cfg.RedisPort)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	for _, key := range []string{"LOG_LEVEL", "DB_DRIVER"} {
		unsetForTest(t, key)
	}
	jsonPath := writeFile(t, "config.json", `{"app": {"JWTSecret": "from-json", "AppPort": "8080"}}`)
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("TOKEN_TTL_HOURS", "2")
	t.Setenv("CORS_ALLOWED_ORIGINS", "http://a.example,http://b.example")

	cfg, err := LoadFrom(jsonPath, "")
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.JWTSecret)
	assert.Equal(t, "9090", cfg.AppPort)
	assert.Equal(t, 2, cfg.TokenTTLHours)
	assert.Equal(t, []string{"http://a.example", "http://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "mysql", cfg.DBDriver)
}

func TestLoadFromDotenv(t *testing.T) {
	unsetForTest(t, "JWT_SECRET")
	unsetForTest(t, "GIN_MODE")
	t.Setenv("APP_PORT", "7000")
	dotenv := writeFile(t, ".env", "JWT_SECRET=from-dotenv\nAPP_PORT=6000\nGIN_MODE=debug\n")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"), dotenv)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.JWTSecret)
	assert.Equal(t, "debug", cfg.GinMode)
	// the process environment wins over the file
	assert.Equal(t, "7000", cfg.AppPort)
}

func TestLoadFromErrors(t *testing.T) {
	unsetForTest(t, "JWT_SECRET")

	_, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"), filepath.Join(t.TempDir(), "missing.env"))
	assert.ErrorContains(t, err, "JWT_SECRET")

	bad := writeFile(t, "config.json", `{"app": `)
	_, err = LoadFrom(bad, "")
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "x")
	t.Setenv("TOKEN_TTL_HOURS", "seventy-two")
	_, err = LoadFrom("", "")
	assert.ErrorContains(t, err, "parse env")
}

func TestOpenDatabaseSQLite(t *testing.T) {
	type probe struct {
		ID   uint
		Name string
	}
	db, err := OpenDatabase(AppConfig{
		DBDriver:    "sqlite",
		DatabaseURI: "file:" + uuid.NewString() + "?mode=memory&cache=shared",
		LogLevel:    "silent",
	}, &probe{})
	require.NoError(t, err)
	defer func() { assert.NoError(t, CloseDatabase(db)) }()

	require.NoError(t, db.Create(&probe{Name: "x"}).Error)
	var n int64
	require.NoError(t, db.Model(&probe{}).Count(&n).Error)
	assert.EqualValues(t, 1, n)
}

func TestOpenDatabaseUnknownDriver(t *testing.T) {
	_, err := OpenDatabase(AppConfig{DBDriver: "oracle"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, logger.Info, toGormLogLevel("debug"))
	assert.Equal(t, logger.Warn, toGormLogLevel(""))
	assert.Equal(t, logger.Silent, toGormLogLevel("silent"))
}

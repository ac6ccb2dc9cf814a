package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_File(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
http:
  address: ":9090"
database:
  driver: postgres
  host: db
  port: 5433
  user: air
  password: secret
  name: flights
  ssl_mode: require
kafka:
  brokers: ["k1:9092", "k2:9092"]
  notifications_topic: notify
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Address)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, "host=db port=5433 user=air password=secret dbname=flights sslmode=require", cfg.Database.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "bookings", cfg.Kafka.BookingTopic)
	assert.Equal(t, "notify", cfg.Kafka.NotificationsTopic)
	assert.Equal(t, 30, cfg.Cache.FlightsTTLSeconds)
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "flights.db", cfg.Database.SQLitePath)
	assert.Equal(t, ":8080", cfg.HTTP.Address)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_DRIVER", "memory")
	t.Setenv("KAFKA_BROKERS", "a:1,b:2")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := LoadConfig(writeConfig(t, "database:\n  driver: postgres\n"))
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Database.Driver)
	assert.Equal(t, []string{"a:1", "b:2"}, cfg.Kafka.Brokers)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("SQLITE_PATH=from-env.db\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("SQLITE_PATH") })

	cfg, err := LoadConfig(filepath.Join(dir, "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database.SQLitePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := LoadConfig(writeConfig(t, "database: ["))
	assert.ErrorContains(t, err, "failed to parse config")

	_, err = LoadConfig(writeConfig(t, "database:\n  driver: oracle\n"))
	assert.ErrorContains(t, err, `unknown database driver "oracle"`)
}

func TestDatabaseConfig_DSNPrefersURL(t *testing.T) {
	d := DatabaseConfig{URL: "postgres://u:p@h/db", Host: "ignored"}
	assert.Equal(t, "postgres://u:p@h/db", d.DSN())
}

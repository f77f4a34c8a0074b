package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_FileWithDefaults(t *testing.T) {
	t.Setenv("HELPDESK_SECRET", "s3cret")

	path := writeConfig(t, `
helpdesk:
  subdomain: acme
  user: bot@acme.io/token
  password: ${HELPDESK_SECRET}
telegram:
  token: "123:abc"
  channel_id: "@acme_news"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "s3cret", cfg.Helpdesk.Password)
	assert.Equal(t, "https://acme.zendesk.com/api/v2/", cfg.Helpdesk.APIBaseURL())
	assert.Equal(t, "ru", cfg.Helpdesk.Locale)
	assert.Equal(t, 30*time.Second, cfg.Helpdesk.Timeout)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "digest.sqlite", cfg.Storage.Path)
	assert.Equal(t, 7, cfg.Sync.LookbackDays)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Timeout)
	assert.False(t, cfg.RabbitMQ.Enabled)
	assert.Equal(t, "helpdesk_digest", cfg.RabbitMQ.Exchange)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("TELEGRAM_CHANNEL_ID", "-100500")
	t.Setenv("STORAGE_PATH", "/var/lib/digest/state.sqlite")
	t.Setenv("LOG_LEVEL", "debug")

	path := writeConfig(t, `
helpdesk:
  base_url: http://localhost:8080/api/v2
  user: u
  password: p
  timeout: 5s
telegram:
  token: t
  channel_id: "@from_file"
sync:
  lookback_days: 3
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "-100500", cfg.Telegram.ChannelID)
	assert.Equal(t, "/var/lib/digest/state.sqlite", cfg.Storage.Path)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "http://localhost:8080/api/v2/", cfg.Helpdesk.APIBaseURL())
	assert.Equal(t, 5*time.Second, cfg.Helpdesk.Timeout)
	assert.Equal(t, 3, cfg.Sync.LookbackDays)
}

func TestLoad_MissingFileUsesEnv(t *testing.T) {
	t.Setenv("HELPDESK_SUBDOMAIN", "acme")
	t.Setenv("HELPDESK_USER", "u")
	t.Setenv("HELPDESK_PASSWORD", "p")
	t.Setenv("TELEGRAM_TOKEN", "t")
	t.Setenv("TELEGRAM_CHANNEL_ID", "@c")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "acme", cfg.Helpdesk.Subdomain)
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
helpdesk:
  subdomain: acme
storage:
  driver: redis
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "helpdesk.user and helpdesk.password are required")
	assert.Contains(t, err.Error(), "telegram.token is required")
	assert.Contains(t, err.Error(), `storage.driver "redis" is not supported`)
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "helpdesk: [")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestDatabaseConfig_DSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", DBName: "digest", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=digest sslmode=disable", d.DSN())
}

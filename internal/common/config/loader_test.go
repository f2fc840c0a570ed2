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

const minimalConfig = `
database:
  postgres:
    host: localhost
    database: stories
    user: stories
  redis:
    address: localhost:6379
workers:
  search-similar-stories:
    enabled: true
  notify-moderation:
    enabled: false
    timeout: 5000
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, 50, cfg.Search.MaxResults)
	assert.Equal(t, "stories", cfg.Search.IndexName)
	assert.Equal(t, 5*time.Minute, cfg.Search.CacheTTLDuration())
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Camunda.Enabled())
	assert.False(t, cfg.Database.Elasticsearch.Enabled())

	search := GetWorkerConfig(cfg, "search-similar-stories")
	assert.True(t, search.Enabled)
	assert.Equal(t, 5, search.MaxJobsActive)
	assert.Equal(t, 30000, search.Timeout)

	notify := GetWorkerConfig(cfg, "notify-moderation")
	assert.False(t, notify.Enabled)
	assert.Equal(t, 5000, notify.Timeout)

	assert.True(t, IsWorkerEnabled(cfg, "index-story"), "unlisted workers default to enabled")
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("STORIES_DB_PASSWORD", "s3cret")
	t.Setenv("STORIES_ES_URL", "http://es:9200")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: localhost
    database: stories
    user: stories
    password: ${STORIES_DB_PASSWORD}
  redis:
    address: localhost:6379
  elasticsearch:
    url: ${STORIES_ES_URL}
`))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Database.Postgres.Password)
	assert.Equal(t, []string{"http://es:9200"}, cfg.Database.Elasticsearch.GetAddresses())
}

func TestLoadFromFile_EnvOverridesNestedKeys(t *testing.T) {
	t.Setenv("DATABASE_POSTGRES_HOST", "db.internal")
	t.Setenv("ZEEBE_ADDRESS", "zeebe:26500")

	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "zeebe:26500", cfg.Camunda.BrokerAddress)
	assert.True(t, cfg.Camunda.Enabled())
}

func TestValidateConfig(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Database.Postgres.Host = "localhost"
		cfg.Database.Postgres.Database = "stories"
		cfg.Database.Postgres.User = "stories"
		cfg.Database.Redis.Address = "localhost:6379"
		applyDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing host", func(c *Config) { c.Database.Postgres.Host = "" }, "database.postgres.host"},
		{"missing redis", func(c *Config) { c.Database.Redis.Address = "" }, "database.redis.address"},
		{"max results too high", func(c *Config) { c.Search.MaxResults = 1000 }, "search.max_results"},
		{"sns without topic", func(c *Config) { c.Notifications.SNS.Enabled = true }, "review_topic_arn"},
		{"email without sender", func(c *Config) { c.Notifications.Email.Enabled = true }, "from_email"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := validateConfig(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

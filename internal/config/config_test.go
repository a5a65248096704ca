package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stridefit/backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigContent = `
[development]
host = "localhost"
port = 9000
log_level = "trace"
postgres_host = "localhost"
postgres_port = "5432"
postgres_db_name = "stridefit_dev"
events_rate_limit_allowed_per_min = 60

[development.agent]
server_base_url = "http://localhost:9000"
data_dir = "/tmp/stridefit-agent"
queue_store = "file"

[production]
host = "0.0.0.0"
port = 9000
log_level = "info"
postgres_host = "db.internal"
postgres_port = "5432"
postgres_db_name = "stridefit"
sentry_enabled = true
`

func TestLoad(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfigContent), 0o600))

	cfg, err := config.Load("development", configPath)
	require.NoError(t, err)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "stridefit_dev", cfg.PostgresDBName)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 60, cfg.EventsRateLimitAllowedPerMin)
	assert.Equal(t, "file", cfg.Agent.QueueStore)
	assert.Equal(t, "http://localhost:9000", cfg.Agent.ServerBaseURL)

	prodCfg, err := config.Load("prod", configPath)
	require.NoError(t, err)
	assert.True(t, prodCfg.SentryEnabled)

	_, err = config.Load("staging", configPath)
	assert.Error(t, err)
}

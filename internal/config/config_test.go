package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FromFile(t *testing.T) {
	content := `
server:
  port: 9000
  read_timeout: 10s
postgres:
  enabled: true
  url: postgres://db:5432/leadpipe
ingestion:
  max_batch_rows: 50
scoring:
  verified_email: 0.6
  lead_threshold: 0.4
webhooks:
  default_workspace: ws-main
  tokens:
    superpixel: secret-1
routing:
  rules_path: /etc/leadpipe/routing.yaml
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Server.ReadTimeout)
	assert.True(t, cfg.Postgres.Enabled)
	assert.Equal(t, "postgres://db:5432/leadpipe", cfg.Postgres.URL)
	assert.Equal(t, 50, cfg.Ingestion.MaxBatchRows)
	assert.Equal(t, "ws-main", cfg.Webhooks.DefaultWorkspace)
	assert.Equal(t, "secret-1", cfg.Webhooks.Tokens["superpixel"])
	assert.Equal(t, "/etc/leadpipe/routing.yaml", cfg.Routing.RulesPath)

	// overridden scoring values with untouched defaults alongside
	assert.Equal(t, 0.6, cfg.Scoring.VerifiedEmail)
	assert.Equal(t, 0.4, cfg.Scoring.LeadThreshold)
	assert.Equal(t, 0.2, cfg.Scoring.ValidEmailSyntax)

	// defaults fill everything the file omits
	assert.Equal(t, int64(1048576), cfg.Ingestion.MaxEventSize)
	assert.Equal(t, 600, cfg.Ingestion.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.Ingestion.RateLimitWindow)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [broken"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

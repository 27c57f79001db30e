package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 1000, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 5*time.Minute, cfg.RateLimit.TimeWindow)
	assert.Equal(t, "./data", cfg.Backup.Destination)
	assert.Equal(t, 8, cfg.Backup.Workers)
	assert.Equal(t, 1000, cfg.Backup.BatchSize)
	assert.Equal(t, 10, cfg.Backup.MaxPages)
	assert.Equal(t, 5, cfg.Backup.MaxRetries)
	assert.Equal(t, time.Second, cfg.Backup.InitialBackoff)
	assert.Equal(t, "cursor.txt", cfg.Backup.CheckpointFile)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
cloudflare:
  api_token: file-token
  account_id: file-acct
  namespace_id: file-ns
backup:
  workers: 4
  destination: /tmp/kv-export
rate_limit:
  max_requests: 500
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "file-token", cfg.Cloudflare.APIToken)
	assert.Equal(t, "file-acct", cfg.Cloudflare.AccountID)
	assert.Equal(t, 4, cfg.Backup.Workers)
	assert.Equal(t, "/tmp/kv-export", cfg.Backup.Destination)
	assert.Equal(t, 500, cfg.RateLimit.MaxRequests)

	// Untouched fields keep their defaults
	assert.Equal(t, 1000, cfg.Backup.BatchSize)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err, "an explicitly named file must exist")
}

func TestLoadFromFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0600))

	cfg := DefaultConfig()
	assert.Error(t, cfg.LoadFromFile(path))
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("KVBACKUP_API_TOKEN", "env-token")
	t.Setenv("KVBACKUP_ACCOUNT_ID", "env-acct")
	t.Setenv("KVBACKUP_NAMESPACE_ID", "env-ns")
	t.Setenv("KVBACKUP_DESTINATION", "/tmp/env-dest")
	t.Setenv("KVBACKUP_WORKERS", "16")
	t.Setenv("KVBACKUP_MAX_REQUESTS", "750")
	t.Setenv("KVBACKUP_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "env-token", cfg.Cloudflare.APIToken)
	assert.Equal(t, "env-acct", cfg.Cloudflare.AccountID)
	assert.Equal(t, "env-ns", cfg.Cloudflare.NamespaceID)
	assert.Equal(t, "/tmp/env-dest", cfg.Backup.Destination)
	assert.Equal(t, 16, cfg.Backup.Workers)
	assert.Equal(t, 750, cfg.RateLimit.MaxRequests)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvIgnoresInvalidNumbers(t *testing.T) {
	t.Setenv("KVBACKUP_WORKERS", "lots")
	t.Setenv("KVBACKUP_MAX_REQUESTS", "-5")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, 8, cfg.Backup.Workers)
	assert.Equal(t, 1000, cfg.RateLimit.MaxRequests)
}

func TestApplyFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.ApplyFlags(map[string]interface{}{
		"api-token":    "flag-token",
		"namespace-id": "flag-ns",
		"dest":         "/tmp/flag-dest",
		"workers":      3,
		"batch-size":   250,
		"max-pages":    2,
		"rate-limit":   100,
		"checkpoint":   "state/cursor.txt",
		"debug":        true,
	})

	assert.Equal(t, "flag-token", cfg.Cloudflare.APIToken)
	assert.Equal(t, "flag-ns", cfg.Cloudflare.NamespaceID)
	assert.Equal(t, "/tmp/flag-dest", cfg.Backup.Destination)
	assert.Equal(t, 3, cfg.Backup.Workers)
	assert.Equal(t, 250, cfg.Backup.BatchSize)
	assert.Equal(t, 2, cfg.Backup.MaxPages)
	assert.Equal(t, 100, cfg.RateLimit.MaxRequests)
	assert.Equal(t, "state/cursor.txt", cfg.Backup.CheckpointFile)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestApplyFlagsIgnoresZeroValues(t *testing.T) {
	cfg := DefaultConfig()

	cfg.ApplyFlags(map[string]interface{}{
		"api-token": "",
		"workers":   0,
		"debug":     false,
	})

	assert.Equal(t, "", cfg.Cloudflare.APIToken)
	assert.Equal(t, 8, cfg.Backup.Workers)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cloudflare.APIToken = "t"
	cfg.Cloudflare.AccountID = "a"
	cfg.Cloudflare.NamespaceID = "n"

	assert.NoError(t, cfg.Validate())
}

func TestValidateMissingCredentials(t *testing.T) {
	cfg := DefaultConfig()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API token is required")
	assert.Contains(t, err.Error(), "account ID is required")
	assert.Contains(t, err.Error(), "namespace ID is required")
}

func TestValidateBadPipelineSettings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cloudflare.APIToken = "t"
	cfg.Cloudflare.AccountID = "a"
	cfg.Cloudflare.NamespaceID = "n"
	cfg.Backup.Workers = 0
	cfg.Backup.MaxPages = -1
	cfg.RateLimit.TimeWindow = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "worker count must be positive")
	assert.Contains(t, err.Error(), "max pages must be positive")
	assert.Contains(t, err.Error(), "time window must be positive")
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Cloudflare.NamespaceID = "ns1"
	require.NoError(t, cfg.Save(path))

	reloaded := DefaultConfig()
	require.NoError(t, reloaded.LoadFromFile(path))
	assert.Equal(t, "ns1", reloaded.Cloudflare.NamespaceID)
	assert.Equal(t, cfg.Backup, reloaded.Backup)
}

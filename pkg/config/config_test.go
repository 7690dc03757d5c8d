package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewSessionConfig()
	assert.Equal(t, 8192, cfg.Scan.BatchSize)
	assert.Equal(t, 1000, cfg.Inference.MaxRecords)
	assert.Equal(t, "local", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quasar.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
scan:
  batch_size: 512
inference:
  max_records: 20
storage:
  backend: local
  root: /data
logging:
  level: debug
  encoding: console
`), 0o644))

	cfg := NewSessionConfig()
	require.NoError(t, Load(path, cfg))

	assert.Equal(t, 512, cfg.Scan.BatchSize)
	assert.Equal(t, 20, cfg.Inference.MaxRecords)
	assert.Equal(t, "/data", cfg.Storage.Root)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Encoding)
}

func TestLoadMissingFile(t *testing.T) {
	cfg := NewSessionConfig()
	require.Error(t, Load(filepath.Join(t.TempDir(), "absent.yaml"), cfg))
}

func TestLoadInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quasar.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  batch_size: -5\n"), 0o644))

	cfg := NewSessionConfig()
	err := Load(path, cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
}

func TestValidate(t *testing.T) {
	cfg := NewSessionConfig()
	cfg.Storage.Backend = "ftp"
	require.Error(t, cfg.Validate())

	cfg = NewSessionConfig()
	cfg.Storage.Backend = "s3"
	require.Error(t, cfg.Validate(), "s3 backend requires a bucket")

	cfg.Storage.Bucket = "my-bucket"
	require.NoError(t, cfg.Validate())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quasar.yaml")

	cfg := NewSessionConfig()
	cfg.Scan.BatchSize = 64
	cfg.Storage.Root = "/tables"
	require.NoError(t, Save(path, cfg))

	loaded := NewSessionConfig()
	require.NoError(t, Load(path, loaded))
	assert.Equal(t, 64, loaded.Scan.BatchSize)
	assert.Equal(t, "/tables", loaded.Storage.Root)
}

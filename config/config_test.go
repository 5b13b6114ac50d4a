package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-courier/config"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "courier.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "KR", cfg.PhoneRegion)
	assert.Equal(t, 2000, cfg.Template.MaxLength)
	assert.Equal(t, hclog.Info, cfg.GetLogLevel())
	assert.Len(t, cfg.RenderOptions(), 1)
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
storage:
  driver: sqlite
  dsn: file:test.db
template:
  max_length: 500
  allowed_columns: ["이름", "주소"]
`)
	t.Setenv("COURIER_STORAGE_DSN", "file:override.db")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, hclog.Debug, cfg.GetLogLevel())
	assert.Equal(t, config.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "file:override.db", cfg.Storage.DSN)
	assert.Equal(t, 500, cfg.Template.MaxLength)
	assert.Equal(t, []string{"이름", "주소"}, cfg.Template.AllowedColumns)
	assert.Len(t, cfg.RenderOptions(), 2)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown driver", content: "storage:\n  driver: mongo\n"},
		{name: "redis without address", content: "storage:\n  driver: redis\n  redis_addr: \"\"\n"},
		{name: "max length too small", content: "template:\n  max_length: 2\n"},
		{name: "bad column", content: "template:\n  allowed_columns: [\"a{b\"]\n"},
		{name: "bad log level", content: "log_level: loud\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeConfig(t, tt.content))
			assert.ErrorIs(t, err, config.ErrInvalidConfig)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

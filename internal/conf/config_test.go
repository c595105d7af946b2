package conf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesFileOverrides(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte(`
main:
  name: testvault
database:
  path: /tmp/override.db
web:
  address: ":9999"
`)
	require.NoError(t, os.WriteFile(configPath, content, 0o600))

	settings, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, "testvault", settings.Main.Name)
	assert.Equal(t, "/tmp/override.db", settings.Database.Path)
	assert.Equal(t, ":9999", settings.Web.Address)

	// Unset keys keep their defaults.
	assert.Equal(t, "sysdefault", settings.Capture.Device)
	assert.Equal(t, 10, settings.Capture.AcquireTimeout)
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("main: [unclosed"), 0o600))

	_, err := Load(configPath)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedFileFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("main: [unclosed"), 0o600))
	t.Chdir(dir)

	_, err := Load("")
	assert.Error(t, err, "a malformed config found via the search path must not be silently ignored")
}

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()
	assert.Equal(t, "voicevault", s.Main.Name)
	assert.Equal(t, "voicevault.db", s.Database.Path)
	assert.Equal(t, ":8090", s.Web.Address)
	assert.Equal(t, "info", s.Main.Log.Level)
}

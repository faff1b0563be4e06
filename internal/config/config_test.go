package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/pingforge/internal/mask"
)

func TestLoadWritesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", ".pingforge.yaml")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.True(t, cfg.Created)
	assert.FileExists(t, path)
	assert.Equal(t, "https://pingforge.onrender.com", cfg.APIURL)
	assert.Equal(t, "wss://pingforge.onrender.com", cfg.WSURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, "warn", cfg.LogLevel)

	again, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.False(t, again.Created)
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pf.yaml")
	data := "api_url: http://localhost:8000/\ntimeout: 5s\nlog_level: DEBUG\ndata_dir: " + filepath.Join(dir, "data") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	t.Setenv("PINGFORGE_API_TOKEN", "secret")

	cfg, err := Load(viper.New(), path)
	require.NoError(t, err)
	assert.False(t, cfg.Created)
	assert.Equal(t, "http://localhost:8000", cfg.APIURL)
	assert.Equal(t, "ws://localhost:8000", cfg.WSURL)
	assert.Equal(t, "secret", cfg.APIToken)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()

	badTimeout := filepath.Join(dir, "timeout.yaml")
	require.NoError(t, os.WriteFile(badTimeout, []byte("timeout: 0s\n"), 0o644))
	_, err := Load(viper.New(), badTimeout)
	assert.ErrorContains(t, err, "timeout")

	badURL := filepath.Join(dir, "url.yaml")
	require.NoError(t, os.WriteFile(badURL, []byte("api_url: ftp://example.com\n"), 0o644))
	_, err = Load(viper.New(), badURL)
	assert.Error(t, err)

	broken := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(broken, []byte("api_url: [unterminated\n"), 0o644))
	_, err = Load(viper.New(), broken)
	assert.Error(t, err)
}

func TestSettingsFile(t *testing.T) {
	t.Parallel()

	f := NewSettingsFile(filepath.Join(t.TempDir(), "data"))

	s, err := f.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultSettings(), s)

	require.NoError(t, f.SelectEnvironment("env-1"))
	require.NoError(t, f.SaveMasking(mask.Settings{Enabled: true, Policy: mask.PolicyHash}))

	s, err = f.Load()
	require.NoError(t, err)
	assert.Equal(t, "env-1", s.SelectedEnvironment)
	assert.Equal(t, mask.Settings{Enabled: true, Policy: mask.PolicyHash}, s.Masking)

	cleared, err := f.ClearSelectionIf("env-2")
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = f.ClearSelectionIf("env-1")
	require.NoError(t, err)
	assert.True(t, cleared)

	id, err := f.SelectedEnvironment()
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestSettingsFileBacksMasker(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	m, err := mask.NewMasker(NewSettingsFile(dir))
	require.NoError(t, err)
	require.NoError(t, m.SetEnabled(true))
	require.NoError(t, m.SetPolicy(mask.PolicyLastOctet))

	reloaded, err := mask.NewMasker(NewSettingsFile(dir))
	require.NoError(t, err)
	assert.Equal(t, "192.168.1.***", reloaded.Apply("192.168.1.5"))
}

func TestSettingsFileParseError(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, SettingsFileName), []byte("masking = [nope"), 0o644))
	_, err := NewSettingsFile(dir).Load()
	assert.ErrorContains(t, err, "parse settings")
}

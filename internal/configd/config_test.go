package configd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the developer's own config files out of the test.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv(EnvConfig, "")
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plotd.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Listener.Address)
	assert.Equal(t, 8080, cfg.Listener.Port)
	assert.Equal(t, 10*time.Second, cfg.Listener.ReceiveTimeout)
	assert.Equal(t, 4096, cfg.Listener.Limits.MaxEntries)
	assert.Equal(t, 16*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, []string{"Plot1"}, cfg.Targets)
	assert.Equal(t, "info", cfg.Logger.Level)
	assert.True(t, cfg.Logger.ToStdout)
}

func TestLoadFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
listener:
  address: 0.0.0.0
  port: 9090
  receive_timeout: 2s
  accept_rate: 50
  accept_burst: 5
  limits:
    max_vector_len: 1000
poll_interval: 33ms
targets: [Plot1, Plot2]
log:
  level: debug
  to_file: true
  file: /tmp/plotd.log
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Listener.Address)
	assert.Equal(t, 9090, cfg.Listener.Port)
	assert.Equal(t, 2*time.Second, cfg.Listener.ReceiveTimeout)
	assert.Equal(t, 50.0, cfg.Listener.AcceptRate)
	assert.Equal(t, 5, cfg.Listener.AcceptBurst)
	assert.Equal(t, 1000, cfg.Listener.Limits.MaxVectorLen)
	assert.Equal(t, 1<<20, cfg.Listener.Limits.MaxStringLen)
	assert.Equal(t, 33*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, []string{"Plot1", "Plot2"}, cfg.Targets)
	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, cfg.Logger.ToFile)
	assert.Equal(t, "/tmp/plotd.log", cfg.Logger.FilePath)
}

func TestLoadResolvesEnvPath(t *testing.T) {
	isolate(t)
	t.Setenv(EnvConfig, writeConfig(t, "targets: [Scope]\n"))

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, []string{"Scope"}, cfg.Targets)
}

func TestEnvOverridesFile(t *testing.T) {
	isolate(t)
	path := writeConfig(t, "listener:\n  port: 9090\n")
	t.Setenv("PLOTD_LISTENER_PORT", "7000")
	t.Setenv("PLOTD_POLL_INTERVAL", "5ms")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Listener.Port)
	assert.Equal(t, 5*time.Millisecond, cfg.PollInterval)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	isolate(t)
	cases := map[string]string{
		"port":          "listener:\n  port: 70000\n",
		"timeout":       "listener:\n  receive_timeout: 0s\n",
		"poll interval": "poll_interval: -1s\n",
		"empty target":  "targets: [Plot1, \"\"]\n",
		"rate":          "listener:\n  accept_rate: -3\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

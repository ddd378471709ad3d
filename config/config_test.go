package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
schedulers:
  - name: main
    interval: 50ms
  - name: reports
    slots: 16
demo:
  enabled: true
  callback_url: http://127.0.0.1:9000/callbacks/orders
  delay: 1s
`)
	c, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.Log.Level)
	assert.True(t, c.Log.Console)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	require.Len(t, c.Schedulers, 2)
	assert.Equal(t, Scheduler{Name: "main", Interval: 50 * time.Millisecond, Slots: 1024,
		MisfireThreshold: 5 * time.Second}, c.Schedulers[0])
	assert.Equal(t, 16, c.Schedulers[1].Slots)
	assert.Equal(t, 3, c.Demo.Attempts)
	assert.Equal(t, time.Second, c.Demo.Delay)
	assert.Equal(t, 10*time.Second, c.Demo.Timeout)
	assert.Equal(t, 2, c.Demo.Retries)
	assert.Equal(t, 200*time.Millisecond, c.Demo.RetryInterval)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no scheduler", "log:\n  level: info\n"},
		{"bad level", "log:\n  level: loud\nschedulers:\n  - name: main\n"},
		{"bad name", "schedulers:\n  - name: \"-main\"\n"},
		{"duplicate", "schedulers:\n  - name: main\n  - name: main\n"},
		{"demo without url", "schedulers:\n  - name: main\ndemo:\n  enabled: true\n"},
		{"bad url", "schedulers:\n  - name: main\ndemo:\n  callback_url: \"::\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, dir, name string, data map[string]any) string {
	t.Helper()
	if dir == "" {
		dir = t.TempDir()
	}
	if name == "" {
		name = "cfg.json"
	}
	path := filepath.Join(dir, name)
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson_SourcesAndPrecedence(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	dir := t.TempDir()
	pathFlag := writeTempJSON(t, dir, "flag.json", map[string]any{
		"server_endpoint_addr": "ws://www.example:9000/sync",
		"database_dsn":         "other.db",
		"remote_timeout":       "15s",
		"loading_timeout":      "2s",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "ws://www.example:9000/sync", cfg.ServerEndpointAddr)
		assert.Equal(t, "other.db", cfg.DatabaseDSN)
		assert.Equal(t, 15*time.Second, cfg.RemoteTimeout)
		assert.Equal(t, 2*time.Second, cfg.LoadingTimeout)
	})

	t.Run("no CONFIG and no flags → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{
			ServerEndpointAddr: "ws://defaults:1234/sync",
			DatabaseDSN:        "defaults.db",
			RemoteTimeout:      42 * time.Second,
			LoadingTimeout:     7 * time.Second,
		}
		parseJson(cfg)

		assert.Equal(t, "ws://defaults:1234/sync", cfg.ServerEndpointAddr)
		assert.Equal(t, "defaults.db", cfg.DatabaseDSN)
		assert.Equal(t, 42*time.Second, cfg.RemoteTimeout)
		assert.Equal(t, 7*time.Second, cfg.LoadingTimeout)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}

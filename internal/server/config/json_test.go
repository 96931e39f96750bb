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
		"endpoint_addr_http":           "www.example:9000",
		"database_dsn":                 "postgres://db",
		"redis_addr":                   "redis:6379",
		"redis_db":                     2,
		"session_secret":               "my_session_secret",
		"csrf_secret":                  "my_csrf_secret",
		"session_ttl":                  "90s",
		"environment":                  "production",
		"secure_cookies":               true,
		"csrf_development_mode":        false,
		"csrf_protected_content_types": []string{"application/json", "application/xml"},
		"log_level":                    "debug",
		"logon_attempts_per_minute":    5,
		"trust_proxy":                  true,
	})

	t.Run("loads from json", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "www.example:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "postgres://db", cfg.DatabaseDSN)
		assert.Equal(t, "redis:6379", cfg.RedisAddr)
		assert.Equal(t, 2, cfg.RedisDB)
		assert.Equal(t, "my_session_secret", cfg.SessionSecret)
		assert.Equal(t, "my_csrf_secret", cfg.CSRFSecret)
		assert.Equal(t, 90*time.Second, cfg.SessionTTL)
		assert.Equal(t, EnvProduction, cfg.Environment)
		assert.True(t, cfg.SecureCookies)
		assert.False(t, cfg.CSRFDevelopmentMode)
		assert.Equal(t, []string{"application/json", "application/xml"}, cfg.CSRFProtectedContentTypes)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, 5, cfg.LogonAttemptsPerMinute)
		assert.True(t, cfg.TrustProxy)
	})

	t.Run("partial file keeps other values", func(t *testing.T) {
		partial := writeTempJSON(t, dir, "partial.json", map[string]any{"redis_addr": "other:6379"})
		os.Args = []string{"testbin", "-c", partial}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "other:6379", cfg.RedisAddr)
		assert.Equal(t, ":3000", cfg.EndpointAddrHTTP)
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	})

	t.Run("no config flag → no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SessionSecret: "key"}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, "key", cfg.SessionSecret)
	})

	t.Run("invalid JSON → panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})

	t.Run("missing file → panics", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", filepath.Join(dir, "absent.json")}
		require.Panics(t, func() { parseJson(&Config{}) })
	})
}

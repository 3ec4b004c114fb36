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
		"endpoint_addr_http":        "127.0.0.1:9000",
		"database_dsn":              "postgres://u:p@h:5432/db",
		"secret_key":                "jsonSecret",
		"session_validity_duration": "2h",
		"environment":               "production",
		"s3_root_user":              "jsonuser",
		"s3_root_password":          "jsonpassword",
		"s3_bucket":                 "jsonbucket",
		"s3_region":                 "eu-west-1",
		"s3_base_endpoint":          "http://s3.example:9000/",
	})

	t.Run("loads from flags", func(t *testing.T) {
		os.Args = []string{"testbin", "-config", pathFlag}

		cfg := &Config{}
		parseJson(cfg)

		assert.Equal(t, "127.0.0.1:9000", cfg.EndpointAddrHTTP)
		assert.Equal(t, "postgres://u:p@h:5432/db", cfg.DatabaseDSN)
		assert.Equal(t, "jsonSecret", cfg.SecretKey)
		assert.Equal(t, 2*time.Hour, cfg.SessionValidityDuration)
		assert.Equal(t, "production", cfg.Environment)
		assert.Equal(t, "jsonuser", cfg.S3RootUser)
		assert.Equal(t, "jsonbucket", cfg.S3Bucket)
	})

	t.Run("no config flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{EndpointAddrHTTP: "defaults:1234", SessionValidityDuration: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "defaults:1234", cfg.EndpointAddrHTTP)
		assert.Equal(t, 42*time.Second, cfg.SessionValidityDuration)
	})

	t.Run("invalid JSON panics", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(bad, []byte(`{ this is not valid json`), 0o600))

		os.Args = []string{"testbin", "-config", bad}

		cfg := &Config{}
		require.Panics(t, func() { parseJson(cfg) })
	})
}

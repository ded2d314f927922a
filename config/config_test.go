package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
http:
  port: 9090
  timeout: 5s
model:
  path: models/tree.yaml
  identifier_pattern: "^ID_"
cache:
  size: 0
log:
  level: debug
  format: json
  file: /tmp/studentpass.log
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Http.Port)
	assert.Equal(t, 5*time.Second, cfg.Http.Timeout)
	assert.Equal(t, []string{"*"}, cfg.Http.AllowedOrigins)
	assert.Equal(t, "models/tree.yaml", cfg.Model.Path)
	assert.Equal(t, "^ID_", cfg.Model.IdentifierPattern)
	assert.Zero(t, cfg.Cache.Size)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 50, cfg.Log.MaxSizeMB)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("STUDENTPASS_MODEL_PATH", "/srv/models/registry.db")
	t.Setenv("STUDENTPASS_HTTP_PORT", "7000")
	t.Setenv("STUDENTPASS_LOG_LEVEL", "warn")
	t.Setenv("STUDENTPASS_ONNX_RUNTIME_LIB", "/usr/lib/libonnxruntime.so")

	cfg, err := Load(writeConfig(t, "http:\n  port: 9090\n"))
	require.NoError(t, err)
	assert.Equal(t, "/srv/models/registry.db", cfg.Model.Path)
	assert.Equal(t, 7000, cfg.Http.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "/usr/lib/libonnxruntime.so", cfg.Model.ONNXRuntimeLib)
}

func TestLoadIgnoresMalformedPortEnv(t *testing.T) {
	t.Setenv("STUDENTPASS_HTTP_PORT", "eighty")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Http.Port)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"port":       "http:\n  port: 70000\n",
		"timeout":    "http:\n  timeout: -1s\n",
		"model path": "model:\n  path: \"\"\n",
		"pattern":    "model:\n  identifier_pattern: \"(\"\n",
		"cache":      "cache:\n  size: -1\n",
		"log format": "log:\n  format: xml\n",
		"yaml":       "http: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

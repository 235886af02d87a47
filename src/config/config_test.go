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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	config := GetDefaultConfig()

	assert.Equal(t, "info", config.LogLevel)
	assert.True(t, config.Documents.ReadFromDisk)
	assert.Equal(t, DefaultHTTPAddr, config.Server.HTTPAddr)
	assert.Empty(t, config.Outlines)
	assert.NoError(t, validateConfig(config))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvHTTPAddr, "")
	path := writeConfig(t, `
log_level: debug
documents:
  read_from_disk: false
server:
  http_addr: "127.0.0.1:9000"
outlines:
  csharp:
    command: roslyn-outline
    args: ["--json"]
    timeout: 15s
  vb:
    command: roslyn-outline
    args: ["--json", "--vb"]
    timeout: 2m
`)

	config, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", config.LogLevel)
	assert.False(t, config.Documents.ReadFromDisk)
	assert.Equal(t, "127.0.0.1:9000", config.Server.HTTPAddr)
	require.Contains(t, config.Outlines, "csharp")
	assert.Equal(t, "roslyn-outline", config.Outlines["csharp"].Command)
	assert.Equal(t, []string{"--json"}, config.Outlines["csharp"].Args)
	assert.Equal(t, 15*time.Second, config.Outlines["csharp"].Timeout)
	assert.Equal(t, 2*time.Minute, config.Outlines["vb"].Timeout)
	assert.Equal(t, []string{"csharp", "vb"}, config.Languages())

	reg := config.BuildOutlineRegistry()
	assert.True(t, reg.Supports("csharp"))
	assert.False(t, reg.Supports("go"))
	assert.False(t, config.DocumentOptions().ReadFromDisk)
}

func TestLoadConfigPartialKeepsDefaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvHTTPAddr, "")
	config, err := LoadConfig(writeConfig(t, "log_level: warn\n"))
	require.NoError(t, err)
	assert.Equal(t, "warn", config.LogLevel)
	assert.True(t, config.Documents.ReadFromDisk)
	assert.Equal(t, DefaultHTTPAddr, config.Server.HTTPAddr)
	assert.NotNil(t, config.Outlines)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{"missing command", "outlines:\n  csharp:\n    timeout: 1s\n", "command is required for language csharp"},
		{"missing timeout", "outlines:\n  csharp:\n    command: x\n", "timeout must be positive for language csharp"},
		{"injected args", "outlines:\n  csharp:\n    command: x\n    args: [\"a;rm\"]\n    timeout: 1s\n", "shell injection detected"},
		{"bad env", "outlines:\n  csharp:\n    command: x\n    env: [NOEQUALS]\n    timeout: 1s\n", "expected KEY=VALUE"},
		{"bad log level", "log_level: loud\n", "unknown log level"},
		{"bad duration", "outlines:\n  csharp:\n    command: x\n    timeout: soon\n", "failed to parse config file"},
		{"bad yaml", "outlines: [\n", "failed to parse config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvLogLevel, "")
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv(EnvLogLevel, "error")
	t.Setenv(EnvHTTPAddr, ":9999")

	config, err := LoadConfig(writeConfig(t, "log_level: debug\n"))
	require.NoError(t, err)
	assert.Equal(t, "error", config.LogLevel)
	assert.Equal(t, ":9999", config.Server.HTTPAddr)
}

func TestLoadOrDefault(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvHTTPAddr, "")

	config, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, GetDefaultConfig(), config)
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvHTTPAddr, "")
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	config := GetDefaultConfig()
	config.Outlines["go"] = &OutlineConfig{Command: "go-outline", Args: []string{"-json"}, Timeout: 3 * time.Second}
	require.NoError(t, SaveConfig(config, path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, config, loaded)

	require.NoError(t, GenerateDefaultConfig(path))
	loaded, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Empty(t, loaded.Outlines)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("LSP_FOLDING_TEST_VALUE=from-file\nLSP_FOLDING_TEST_SET=from-file\n"), 0644))

	t.Setenv("LSP_FOLDING_TEST_SET", "from-env")
	t.Setenv("LSP_FOLDING_TEST_VALUE", "")
	require.NoError(t, os.Unsetenv("LSP_FOLDING_TEST_VALUE"))

	require.NoError(t, LoadEnvFiles(filepath.Join(dir, "missing.env"), envFile))
	assert.Equal(t, "from-file", os.Getenv("LSP_FOLDING_TEST_VALUE"))
	assert.Equal(t, "from-env", os.Getenv("LSP_FOLDING_TEST_SET"))
}

func TestGetDefaultConfigPath(t *testing.T) {
	assert.Equal(t, "config.yaml", filepath.Base(GetDefaultConfigPath()))
	assert.Equal(t, ".lsp-folding", filepath.Base(filepath.Dir(GetDefaultConfigPath())))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TALENTRELAY_LOG_LEVEL", "TALENTRELAY_LOG_FORMAT", "HOST", "PORT", "STATIC_DIR",
		"ALLOWED_ORIGINS", "MAX_IN_FLIGHT", "SHUTDOWN_TIMEOUT", "ASSISTANT_PROVIDER",
		"OPENAI_API_KEY", "ASSISTANT_ID", "OPENAI_BASE_URL", "RUN_TIMEOUT", "POLL_INTERVAL", "MOCK_REPLY",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, ":3000", cfg.Server.Addr())
	assert.Equal(t, "./build", cfg.Server.StaticDir)
	assert.Equal(t, 2*time.Minute, cfg.Assistant.RunTimeout)
	assert.Equal(t, "openai", cfg.Assistant.Provider)
}

func TestLoadConfigFileThenEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "talentrelay.yaml")
	content := `
logLevel: debug
server:
  port: 8080
  allowedOrigins: ["https://careers.example.com"]
assistant:
  assistantId: asst_file
  runTimeout: 45s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	t.Setenv("PORT", "9090")
	t.Setenv("OPENAI_API_KEY", "sk-env")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example.com,https://b.example.com")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.Server.Port, "env overrides file")
	assert.Equal(t, "asst_file", cfg.Assistant.AssistantID, "file survives when env is unset")
	assert.Equal(t, "sk-env", cfg.Assistant.APIKey)
	assert.Equal(t, 45*time.Second, cfg.Assistant.RunTimeout)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "./build", cfg.Server.StaticDir, "defaults survive")
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigErrors(t *testing.T) {
	clearEnv(t)
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "read config file")

	t.Setenv("PORT", "not-a-number")
	_, err = LoadConfig("")
	assert.ErrorContains(t, err, "parse environment")
}

func TestValidate(t *testing.T) {
	cfg := Default()
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	assert.Contains(t, err.Error(), "ASSISTANT_ID")

	cfg.Assistant.Provider = "mock"
	assert.NoError(t, cfg.Validate())

	cfg.Assistant.Provider = "carrier-pigeon"
	assert.ErrorContains(t, cfg.Validate(), "unknown assistant provider")
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_FirstRunWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, again)
}

func TestLoad_NormalizesPartialConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9000"
log_level: LOUD
ics:
  - url: https://cal.example.edu/a.ics
chat:
  backend: OpenAI
results:
  limit: 3
  delay_ms: -5
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.Listen)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "ics-1", cfg.ICS[0].ID)
	assert.Equal(t, BackendOpenAI, cfg.Chat.Backend)
	assert.Equal(t, "OPENAI_API_KEY", cfg.Chat.APIKeyEnv)
	assert.Equal(t, 3, cfg.Results.Limit)
	assert.Equal(t, time.Duration(0), cfg.Results.Delay())
	assert.Equal(t, 30*time.Minute, cfg.Sessions.TTL())
	assert.NotEmpty(t, cfg.Widget.Suggestions)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)

	assert.Error(t, Save(path, nil))
}

func TestNormalize_UnknownBackend(t *testing.T) {
	cfg := &Config{Chat: ChatConfig{Backend: "llama"}}
	cfg.Normalize()
	assert.Equal(t, BackendNone, cfg.Chat.Backend)
}

func TestLocation(t *testing.T) {
	cfg := DefaultConfig()
	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Asia/Ho_Chi_Minh", loc.String())

	cfg.Timezone = "Mars/Olympus"
	_, err = cfg.Location()
	assert.Error(t, err)
}

func TestResolveDataPath(t *testing.T) {
	cfg := &Config{DataPath: "events.json"}
	assert.Equal(t, filepath.Join("/etc/campusbot", "events.json"), cfg.ResolveDataPath("/etc/campusbot/config.yaml"))

	cfg.DataPath = "/srv/events.json"
	assert.Equal(t, "/srv/events.json", cfg.ResolveDataPath("/etc/campusbot/config.yaml"))

	cfg.DataPath = ""
	assert.Equal(t, "", cfg.ResolveDataPath("config.yaml"))
}

func TestChatAPIKey(t *testing.T) {
	t.Setenv("CAMPUSBOT_TEST_KEY", "  sk-test  ")
	assert.Equal(t, "sk-test", ChatConfig{APIKeyEnv: "CAMPUSBOT_TEST_KEY"}.APIKey())
	assert.Equal(t, "", ChatConfig{}.APIKey())
}

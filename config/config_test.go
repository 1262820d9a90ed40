package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfigYAML(t *testing.T) {
	t.Setenv("DEEPMAP_TEST_KEY", "secret")
	path := writeConfig(t, "config.yaml", `
server_addr: ":9000"
llm:
  provider: openrouter
  model: deepseek/deepseek-r1:free
  api_key_env: DEEPMAP_TEST_KEY
  timeout: 30s
tree:
  default_branches: 2
store:
  driver: badger
  badger_dir: /tmp/deepmap
log:
  level: debug
  format: json
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.ServerAddr)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 2, cfg.Tree.DefaultBranches)
	assert.Equal(t, 10, cfg.Tree.MaxBranches)
	assert.Equal(t, "badger", cfg.Store.Driver)

	level, err := cfg.Log.SlogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"llm": {"provider": "openai", "model": "gpt-4o-mini", "api_key": "k"}}`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, ":8080", cfg.ServerAddr)
}

func TestLoadConfigErrors(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	cases := map[string]string{
		"bad yaml":        "llm: [",
		"provider":        "llm: {provider: cohere, model: x}",
		"model":           "llm: {provider: openai}",
		"redis addr":      "store: {driver: redis}",
		"badger dir":      "store: {driver: badger}",
		"driver":          "store: {driver: mysql}",
		"branches":        "tree: {default_branches: 5, max_branches: 2}",
		"negative bounds": "tree: {default_branches: -1}",
		"log level":       "log: {level: chatty}",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, "c.yaml", body))
			assert.Error(t, err)
		})
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Equal(t, 3, cfg.Tree.DefaultBranches)
}

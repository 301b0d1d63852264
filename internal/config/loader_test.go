package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoader(env map[string]string) *Loader {
	loader := NewLoader(nil)
	loader.getenv = func(key string) string { return env[key] }
	return loader
}

func TestNewLoader(t *testing.T) {
	loader := NewLoader(nil)
	assert.NotNil(t, loader)
	assert.NotNil(t, loader.logger)
}

func TestLoader_LoadFromString_EmptySource(t *testing.T) {
	result, err := newTestLoader(nil).LoadFromString("")

	require.NoError(t, err)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "info", result.Config.LogLevel)
	assert.Equal(t, time.Second, result.Config.Suggest.Debounce)
	assert.Equal(t, InjectorAuto, result.Config.Hook.Injector)
	assert.False(t, result.Config.HasSuggestions())
}

func TestLoader_LoadFromString_FullConfig(t *testing.T) {
	source := `
logLevel: debug
databasePath: /tmp/shortcuts.db
shutdownTimeout: 5s
suggest:
  debounce: 750ms
  backends:
    - provider: openai
      model: gpt-3.5-turbo-instruct
      baseURL: http://localhost:8080/v1
      maxNewTokens: 16
      temperature: 0.4
      topP: 0.8
    - provider: gemini
      model: gemini-2.0-flash
      apiKey: from-file
hook:
  devices: [/dev/input/event3]
  injector: wtype
  pasteThreshold: 80
`
	result, err := newTestLoader(map[string]string{
		EnvOpenAIAPIKey: "sk-env",
		EnvGeminiAPIKey: "ignored",
	}).LoadFromString(source)

	require.NoError(t, err)
	assert.Empty(t, result.Errors)

	cfg := result.Config
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/shortcuts.db", cfg.DatabasePath)
	assert.Equal(t, 5*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 750*time.Millisecond, cfg.Suggest.Debounce)
	require.Len(t, cfg.Suggest.Backends, 2)
	assert.Equal(t, "sk-env", cfg.Suggest.Backends[0].APIKey)
	assert.Equal(t, 16, cfg.Suggest.Backends[0].MaxNewTokens)
	assert.InDelta(t, 0.4, cfg.Suggest.Backends[0].Temperature, 0.0001)
	assert.Equal(t, "from-file", cfg.Suggest.Backends[1].APIKey)
	assert.Equal(t, []string{"/dev/input/event3"}, cfg.Hook.Devices)
	assert.Equal(t, InjectorWtype, cfg.Hook.Injector)
	assert.Equal(t, 80, cfg.Hook.PasteThreshold)
}

func TestLoader_LoadFromString_ParseErrorKeepsDefaults(t *testing.T) {
	result, err := newTestLoader(nil).LoadFromString("logLevel: [unterminated")

	require.NoError(t, err)
	require.NotEmpty(t, result.Errors)
	assert.Equal(t, "info", result.Config.LogLevel)
}

func TestLoader_LoadFromString_RepairsInvalidValues(t *testing.T) {
	source := `
logLevel: chatty
suggest:
  debounce: -1s
  backends:
    - provider: llama
hook:
  injector: ydotool
`
	result, err := newTestLoader(nil).LoadFromString(source)

	require.NoError(t, err)
	assert.Len(t, result.Errors, 4)
	assert.Equal(t, "info", result.Config.LogLevel)
	assert.Equal(t, time.Second, result.Config.Suggest.Debounce)
	assert.Equal(t, InjectorAuto, result.Config.Hook.Injector)
	assert.Empty(t, result.Config.Suggest.Backends)
}

func TestLoader_EnvLogLevelOverride(t *testing.T) {
	result, err := newTestLoader(map[string]string{EnvLogLevel: "warn"}).LoadFromString("logLevel: debug")

	require.NoError(t, err)
	assert.Equal(t, "warn", result.Config.LogLevel)
}

func TestLoader_LoadFromFile(t *testing.T) {
	t.Run("missing file returns defaults", func(t *testing.T) {
		result, err := newTestLoader(nil).LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))

		require.NoError(t, err)
		assert.Empty(t, result.Errors)
		assert.Equal(t, DefaultConfig().LogLevel, result.Config.LogLevel)
	})

	t.Run("reads file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("logLevel: error\n"), 0644))

		result, err := newTestLoader(nil).LoadFromFile(path)

		require.NoError(t, err)
		assert.Equal(t, "error", result.Config.LogLevel)
	})
}

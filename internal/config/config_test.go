package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/finflow/internal/common"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("HOME", "/home/tester")

	cfg, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, "/home/tester/.local/share/finflow/finflow.db", cfg.DatabasePath)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 30*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 15*time.Minute, cfg.LLM.CacheTTL)
	assert.Equal(t, 10, cfg.LLM.RateLimit)
	assert.Equal(t, 6, cfg.Forecast.HistoryMonths)
	assert.Equal(t, 3, cfg.Forecast.DefaultMonths)
	assert.False(t, cfg.HasLLM())
}

func TestLoad_APIKeyPrecedence(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")

	v := viper.New()
	v.Set("llm.provider", "OpenAI")

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "from-env", cfg.LLM.APIKey)

	v.Set("llm.openai_api_key", "from-config")
	cfg, err = Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-config", cfg.LLM.APIKey)
	assert.True(t, cfg.HasLLM())
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  path: /tmp/finflow-test.db
llm:
  provider: anthropic
  anthropic_api_key: sk-test
  timeout: 5s
forecast:
  history_months: 12
keywords:
  stop_words: [foo, bar]
  min_length: 4
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	v := viper.New()
	v.SetConfigFile(path)
	require.NoError(t, v.ReadInConfig())

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/finflow-test.db", cfg.DatabasePath)
	assert.Equal(t, "anthropic", cfg.LLM.Provider)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 5*time.Second, cfg.LLM.Timeout)
	assert.Equal(t, 12, cfg.Forecast.HistoryMonths)
	assert.Equal(t, []string{"foo", "bar"}, cfg.Keywords.StopWords)
	assert.Equal(t, 4, cfg.Keywords.MinKeywordLength)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value any
		err   error
	}{
		{name: "unknown provider", key: "llm.provider", value: "mystery", err: common.ErrInvalidConfig},
		{name: "zero history", key: "forecast.history_months", value: 0, err: common.ErrInvalidConfig},
		{name: "negative timeout", key: "forecast.narrative_timeout", value: -time.Second, err: common.ErrInvalidConfig},
		{name: "negative min length", key: "keywords.min_length", value: -1, err: common.ErrInvalidConfig},
		{name: "empty database path", key: "database.path", value: "", err: common.ErrMissingConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			v.Set(tt.key, tt.value)

			_, err := Load(v)
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestExpandPath(t *testing.T) {
	t.Setenv("HOME", "/home/tester")
	t.Setenv("FINFLOW_DATA", "/data")

	tests := []struct {
		input    string
		expected string
	}{
		{"", ""},
		{"~", "/home/tester"},
		{"~/db/finflow.db", "/home/tester/db/finflow.db"},
		{"$FINFLOW_DATA/finflow.db", "/data/finflow.db"},
		{"/abs/path.db", "/abs/path.db"},
		{"~other/path", "~other/path"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExpandPath(tt.input))
		})
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("FINFLOW_DOTENV_CHECK=loaded\n"), 0o600))
	t.Setenv("FINFLOW_DOTENV_CHECK", "")
	require.NoError(t, os.Unsetenv("FINFLOW_DOTENV_CHECK"))

	LoadDotEnv(path)
	assert.Equal(t, "loaded", os.Getenv("FINFLOW_DOTENV_CHECK"))
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Veraticus/finflow/internal/common"
	"github.com/Veraticus/finflow/internal/llm"
)

// Config is the resolved application configuration.
type Config struct {
	DatabasePath string
	Logging      LoggingConfig
	LLM          llm.Config
	Forecast     ForecastConfig
	Keywords     KeywordsConfig
}

// LoggingConfig controls the global slog handler.
type LoggingConfig struct {
	Level  string
	Format string
}

// ForecastConfig tunes the forecast command.
type ForecastConfig struct {
	NarrativeTimeout time.Duration
	HistoryMonths    int
	DefaultMonths    int
}

// KeywordsConfig tunes keyword tokenization. Empty values use engine defaults.
type KeywordsConfig struct {
	StopWords        []string
	MinKeywordLength int
}

// apiKeyEnv maps a provider to the conventional vendor environment variable.
var apiKeyEnv = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"google":    "GEMINI_API_KEY",
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", defaultDatabasePath)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.timeout", 30*time.Second)
	v.SetDefault("llm.cache_ttl", 15*time.Minute)
	v.SetDefault("llm.rate_limit", 10)
	v.SetDefault("forecast.history_months", 6)
	v.SetDefault("forecast.months", 3)
	v.SetDefault("forecast.narrative_timeout", 30*time.Second)
}

// LoadDotEnv loads a .env file from the working directory when one exists.
func LoadDotEnv(files ...string) {
	_ = godotenv.Load(files...)
}

// Load resolves the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)

	cfg := &Config{
		DatabasePath: ExpandPath(v.GetString("database.path")),
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		LLM: llm.Config{
			Provider:    strings.ToLower(v.GetString("llm.provider")),
			Model:       v.GetString("llm.model"),
			BaseURL:     v.GetString("llm.base_url"),
			Timeout:     v.GetDuration("llm.timeout"),
			CacheTTL:    v.GetDuration("llm.cache_ttl"),
			RateLimit:   v.GetInt("llm.rate_limit"),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		Forecast: ForecastConfig{
			NarrativeTimeout: v.GetDuration("forecast.narrative_timeout"),
			HistoryMonths:    v.GetInt("forecast.history_months"),
			DefaultMonths:    v.GetInt("forecast.months"),
		},
		Keywords: KeywordsConfig{
			StopWords:        v.GetStringSlice("keywords.stop_words"),
			MinKeywordLength: v.GetInt("keywords.min_length"),
		},
	}
	cfg.LLM.APIKey = apiKey(v, cfg.LLM.Provider)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// apiKey checks viper first, then the vendor environment variable.
func apiKey(v *viper.Viper, provider string) string {
	if key := v.GetString("llm." + provider + "_api_key"); key != "" {
		return key
	}
	if env, ok := apiKeyEnv[provider]; ok {
		return os.Getenv(env)
	}
	return ""
}

// Validate checks the resolved values.
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("%w: database.path", common.ErrMissingConfig)
	}
	if _, ok := apiKeyEnv[c.LLM.Provider]; !ok {
		return fmt.Errorf("%w: unsupported llm.provider %q", common.ErrInvalidConfig, c.LLM.Provider)
	}
	if c.Forecast.HistoryMonths <= 0 {
		return fmt.Errorf("%w: forecast.history_months must be positive", common.ErrInvalidConfig)
	}
	if c.Forecast.NarrativeTimeout <= 0 {
		return fmt.Errorf("%w: forecast.narrative_timeout must be positive", common.ErrInvalidConfig)
	}
	if c.Keywords.MinKeywordLength < 0 {
		return fmt.Errorf("%w: keywords.min_length must not be negative", common.ErrInvalidConfig)
	}
	return nil
}

// HasLLM reports whether a narrative provider can be constructed.
func (c *Config) HasLLM() bool {
	return c.LLM.APIKey != ""
}

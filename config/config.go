// Package config loads service configuration from an optional YAML file and
// the environment, with the environment taking precedence.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	AppName     = "weedlens"
	EnvFileName = "config.env"
)

// Provider names for the vision analyzer.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Config holds all service settings. API keys are environment-only and never
// read from the YAML file.
type Config struct {
	Addr               string `yaml:"addr"`
	Provider           string `yaml:"provider"`
	Model              string `yaml:"model"`
	DBPath             string `yaml:"db_path"`
	DefaultImageURL    string `yaml:"default_image_url"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`

	GeminiAPIKey string `yaml:"-"`
	OpenAIAPIKey string `yaml:"-"`
	SentryDSN    string `yaml:"-"`
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory, then from a local .env. Errors are ignored since the
// files may not exist.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load(".env")
}

// Load builds the configuration from defaults, an optional YAML file named by
// WEEDLENS_CONFIG, and environment variables, in increasing precedence.
func Load() (Config, error) {
	cfg := Config{
		Addr:               ":8080",
		Provider:           ProviderGemini,
		DBPath:             "weedlens.db",
		RateLimitPerMinute: 10,
	}

	if path := os.Getenv("WEEDLENS_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if v := os.Getenv("ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Addr = ":" + v
	}
	if v := os.Getenv("WEEDLENS_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := os.Getenv("WEEDLENS_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := os.Getenv("WEEDLENS_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("WEEDLENS_DEFAULT_IMAGE_URL"); v != "" {
		cfg.DefaultImageURL = v
	}
	if v := os.Getenv("WEEDLENS_RATE_LIMIT_PER_MINUTE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("WEEDLENS_RATE_LIMIT_PER_MINUTE must be an integer: %w", err)
		}
		cfg.RateLimitPerMinute = n
	}

	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.SentryDSN = os.Getenv("SENTRY_DSN")

	if cfg.Provider != ProviderGemini && cfg.Provider != ProviderOpenAI {
		return Config{}, fmt.Errorf("unknown provider %q", cfg.Provider)
	}

	return cfg, nil
}

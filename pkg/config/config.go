package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minhyannv/weatherbot-go/pkg/apperr"
)

// Environment variable names read by ApplyEnv.
const (
	EnvOpenAIAPIKey   = "OPENAI_API_KEY"
	EnvOpenAIBaseURL  = "OPENAI_BASE_URL"
	EnvOpenAIModel    = "OPENAI_MODEL"
	EnvWeatherAPIKey  = "OPENWEATHERMAP_API_KEY"
	EnvWeatherBaseURL = "OPENWEATHERMAP_BASE_URL"
)

const (
	DefaultModel          = "gpt-4o-mini"
	DefaultWeatherBaseURL = "http://api.openweathermap.org/data/2.5/weather"
	DefaultSystemPrompt   = "You are a helpful weather assistant. When users ask about weather, extract the location from the user's message and respond with weather information in Celsius."
)

// Config holds all runtime configuration for the assistant.
type Config struct {
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OpenAIBaseURL string `yaml:"openai_base_url"`
	Model         string `yaml:"model"`

	WeatherAPIKey  string `yaml:"openweathermap_api_key"`
	WeatherBaseURL string `yaml:"weather_base_url"`

	SystemPrompt string `yaml:"system_prompt"`

	// HTTPTimeout bounds each outbound request. Zero leaves the HTTP
	// client's default, which never times out.
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	Verbose     bool          `yaml:"verbose"`
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		Model:          DefaultModel,
		WeatherBaseURL: DefaultWeatherBaseURL,
		SystemPrompt:   DefaultSystemPrompt,
	}
}

// LoadFile overlays values from a YAML file onto cfg. Keys absent from the
// file keep their current value.
func LoadFile(cfg Config, path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, apperr.New(apperr.ErrConfiguration, "read config file", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, apperr.New(apperr.ErrConfiguration, "parse config file", fmt.Errorf("%s: %w", path, err))
	}
	return cfg, nil
}

// ApplyEnv overlays non-empty environment values onto cfg.
func ApplyEnv(cfg Config, lookup func(string) string) Config {
	if lookup == nil {
		lookup = os.Getenv
	}
	set := func(dst *string, key string) {
		if v := strings.TrimSpace(lookup(key)); v != "" {
			*dst = v
		}
	}
	set(&cfg.OpenAIAPIKey, EnvOpenAIAPIKey)
	set(&cfg.OpenAIBaseURL, EnvOpenAIBaseURL)
	set(&cfg.Model, EnvOpenAIModel)
	set(&cfg.WeatherAPIKey, EnvWeatherAPIKey)
	set(&cfg.WeatherBaseURL, EnvWeatherBaseURL)
	return cfg
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.OpenAIAPIKey = strings.TrimSpace(cfg.OpenAIAPIKey)
	cfg.OpenAIBaseURL = strings.TrimSpace(cfg.OpenAIBaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.WeatherAPIKey = strings.TrimSpace(cfg.WeatherAPIKey)
	cfg.WeatherBaseURL = strings.TrimSpace(cfg.WeatherBaseURL)
	cfg.SystemPrompt = strings.TrimSpace(cfg.SystemPrompt)

	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.WeatherBaseURL == "" {
		cfg.WeatherBaseURL = DefaultWeatherBaseURL
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	if cfg.HTTPTimeout < 0 {
		cfg.HTTPTimeout = 0
	}
	return cfg
}

// Validate reports every missing credential in one ErrConfiguration.
func Validate(cfg Config) error {
	var missing []error
	if strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		missing = append(missing, fmt.Errorf("%s is not set", EnvOpenAIAPIKey))
	}
	if strings.TrimSpace(cfg.WeatherAPIKey) == "" {
		missing = append(missing, fmt.Errorf("%s is not set", EnvWeatherAPIKey))
	}
	if len(missing) == 0 {
		return nil
	}
	return apperr.New(apperr.ErrConfiguration, "validate config", errors.Join(missing...))
}

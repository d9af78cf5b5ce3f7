package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// Config holds all application configuration.
// Values come from defaults, an optional configs/config.yaml and the
// environment, in increasing order of precedence.
type Config struct {
	// Server
	Port     int
	LogLevel string

	// Language model
	LLMAPIURL         string
	LLMAPIKey         string
	LLMModel          string
	LLMChatModel      string
	LLMTimeout        time.Duration
	LLMMaxRetries     int
	LLMInitialBackoff time.Duration
	LLMMaxConcurrency int

	// Chat
	ChatTimeout     time.Duration
	ChatExcerptSize int

	// Data
	CardsFile string

	// Cache
	CacheBackend    string
	CacheTTL        time.Duration
	CacheMaxEntries int
	RedisAddr       string
	RedisPassword   string
	RedisDB         int

	// HTTP
	CORSAllowedOrigins []string

	// Observability
	OTLPEndpoint string
}

var defaults = map[string]any{
	"port":      8080,
	"log_level": "info",

	"llm_api_url":         "https://api.openai.com/v1",
	"llm_api_key":         "",
	"llm_model":           "gpt-4",
	"llm_chat_model":      "gpt-3.5-turbo",
	"llm_timeout":         "20s",
	"llm_max_retries":     0,
	"llm_initial_backoff": "100ms",
	"llm_max_concurrency": 16,

	"chat_timeout":      "30s",
	"chat_excerpt_size": 10,

	"cards_file": "",

	"cache_backend":     CacheMemory,
	"cache_ttl":         "10m",
	"cache_max_entries": 1000,
	"redis_addr":        "localhost:6379",
	"redis_password":    "",
	"redis_db":          0,

	"cors_allowed_origins": "*",

	"otel_exporter_otlp_endpoint": "",
}

// Load reads configs/config.yaml when present and applies environment
// overrides such as LLM_API_KEY or CACHE_BACKEND.
func Load() (*Config, error) {
	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}
	return build(v)
}

// LoadFile is Load with an explicit YAML file.
func LoadFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config %s: %w", path, err)
	}
	return build(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

func build(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:     v.GetInt("port"),
		LogLevel: strings.ToLower(v.GetString("log_level")),

		LLMAPIURL:         v.GetString("llm_api_url"),
		LLMAPIKey:         v.GetString("llm_api_key"),
		LLMModel:          v.GetString("llm_model"),
		LLMChatModel:      v.GetString("llm_chat_model"),
		LLMTimeout:        v.GetDuration("llm_timeout"),
		LLMMaxRetries:     v.GetInt("llm_max_retries"),
		LLMInitialBackoff: v.GetDuration("llm_initial_backoff"),
		LLMMaxConcurrency: v.GetInt("llm_max_concurrency"),

		ChatTimeout:     v.GetDuration("chat_timeout"),
		ChatExcerptSize: v.GetInt("chat_excerpt_size"),

		CardsFile: v.GetString("cards_file"),

		CacheBackend:    strings.ToLower(v.GetString("cache_backend")),
		CacheTTL:        v.GetDuration("cache_ttl"),
		CacheMaxEntries: v.GetInt("cache_max_entries"),
		RedisAddr:       v.GetString("redis_addr"),
		RedisPassword:   v.GetString("redis_password"),
		RedisDB:         v.GetInt("redis_db"),

		CORSAllowedOrigins: splitList(v.GetString("cors_allowed_origins")),

		OTLPEndpoint: v.GetString("otel_exporter_otlp_endpoint"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}
	if c.LLMAPIURL == "" {
		errs = append(errs, errors.New("LLM_API_URL is required"))
	}
	if c.LLMMaxRetries < 0 {
		errs = append(errs, errors.New("LLM_MAX_RETRIES must not be negative"))
	}
	if c.LLMMaxConcurrency <= 0 {
		errs = append(errs, errors.New("LLM_MAX_CONCURRENCY must be positive"))
	}
	if c.LLMTimeout <= 0 || c.ChatTimeout <= 0 {
		errs = append(errs, errors.New("LLM_TIMEOUT and CHAT_TIMEOUT must be positive"))
	}
	if c.CacheMaxEntries <= 0 {
		errs = append(errs, errors.New("CACHE_MAX_ENTRIES must be positive"))
	}
	if c.ChatExcerptSize <= 0 {
		errs = append(errs, errors.New("CHAT_EXCERPT_SIZE must be positive"))
	}
	switch c.CacheBackend {
	case CacheMemory:
	case CacheRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_ADDR is required when CACHE_BACKEND=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("CACHE_BACKEND must be memory or redis, got %q", c.CacheBackend))
	}
	return errors.Join(errs...)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

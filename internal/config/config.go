// Package config loads process configuration from environment variables,
// following the env-var-with-typed-helpers idiom used throughout this
// codebase's ambient stack.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// DatastoreType selects which Datastore backend the boundary server wires
// up for internal/store.
type DatastoreType string

const (
	DatastoreMemory DatastoreType = "memory"
	DatastoreFile   DatastoreType = "file"
	DatastoreRedis  DatastoreType = "redis"
)

// ProviderConfig holds the base URL, API key, and model selection for one
// LLM provider.
type ProviderConfig struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Config is the fully-resolved process configuration.
type Config struct {
	Port string

	Datastore   DatastoreType
	StorageDir  string
	RedisHost   string
	RedisPort   string
	RedisUser   string
	RedisPass   string

	AuthToken string

	ActiveProvider string // "A" or "B"
	ProviderA      ProviderConfig
	ProviderB      ProviderConfig
	SchemaModel    string

	CORSOrigins []string

	DefaultTimeout    time.Duration
	DefaultRetries    int
	DefaultRetryDelay time.Duration

	MaxSynthesisRetries int

	// DocsFetchEnabled gates the Documentation Fetcher collaborator:
	// when false, Synthesizers get no Docs client and fall back to
	// instruction-only synthesis, for offline runs or deployments that
	// don't want outbound fetches to arbitrary documentation URLs.
	DocsFetchEnabled bool
}

// Load builds a Config from the process environment, applying the
// defaults spec §6 calls out.
func Load() (*Config, error) {
	cfg := &Config{
		Port:       getEnv("PORT", "8080"),
		Datastore:  DatastoreType(getEnv("DATASTORE_TYPE", "memory")),
		StorageDir: getEnv("STORAGE_DIR", "./data"),
		RedisHost:  getEnv("REDIS_HOST", ""),
		RedisPort:  getEnv("REDIS_PORT", "6379"),
		RedisUser:  getEnv("REDIS_USER", ""),
		RedisPass:  getEnv("REDIS_PASSWORD", ""),

		AuthToken: getEnv("AUTH_TOKEN", ""),

		ActiveProvider: getEnv("LLM_PROVIDER", "A"),
		ProviderA: ProviderConfig{
			BaseURL: getEnv("PROVIDER_A_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  getEnv("PROVIDER_A_API_KEY", ""),
			Model:   getEnv("PROVIDER_A_MODEL", "gpt-4o-mini"),
		},
		ProviderB: ProviderConfig{
			BaseURL: getEnv("PROVIDER_B_BASE_URL", "https://openrouter.ai/api/v1"),
			APIKey:  getEnv("PROVIDER_B_API_KEY", ""),
			Model:   getEnv("PROVIDER_B_MODEL", "openai/gpt-4o-mini"),
		},
		SchemaModel: getEnv("SCHEMA_MODEL", ""),

		CORSOrigins: getEnvSlice("CORS_ORIGINS", []string{"*"}),

		DefaultTimeout:    getEnvDuration("DEFAULT_TIMEOUT", 60*time.Second),
		DefaultRetries:    getEnvInt("DEFAULT_RETRIES", 5),
		DefaultRetryDelay: getEnvDuration("DEFAULT_RETRY_DELAY", time.Second),

		MaxSynthesisRetries: getEnvInt("MAX_SYNTHESIS_RETRIES", 5),

		DocsFetchEnabled: getEnvBool("ENABLE_DOC_FETCH", true),
	}

	switch cfg.Datastore {
	case DatastoreMemory, DatastoreFile, DatastoreRedis:
	default:
		return nil, fmt.Errorf("config: unknown DATASTORE_TYPE %q", cfg.Datastore)
	}

	switch cfg.ActiveProvider {
	case "A", "B":
	default:
		return nil, fmt.Errorf("config: unknown LLM_PROVIDER %q (want A or B)", cfg.ActiveProvider)
	}

	return cfg, nil
}

// SchemaGenModel returns the configured model for schema-generation calls,
// falling back to the active provider's default model when unset.
func (c *Config) SchemaGenModel() string {
	if c.SchemaModel != "" {
		return c.SchemaModel
	}
	if c.ActiveProvider == "B" {
		return c.ProviderB.Model
	}
	return c.ProviderA.Model
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func getEnvSlice(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

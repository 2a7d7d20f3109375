package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	StoreDriver string `mapstructure:"STORE_DRIVER"` // "postgres" or "memory"

	PostgresURL      string `mapstructure:"POSTGRES_URL"`
	PostgresHost     string `mapstructure:"POSTGRES_HOST"`
	PostgresPort     string `mapstructure:"POSTGRES_PORT"`
	PostgresUser     string `mapstructure:"POSTGRES_USER"`
	PostgresPassword string `mapstructure:"POSTGRES_PASSWORD"`
	PostgresDB       string `mapstructure:"POSTGRES_DB"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// PublicBaseURL is what the loader script calls back; empty means https://<host>/functions/v1.
	PublicBaseURL       string `mapstructure:"PUBLIC_BASE_URL"`
	SchemaMaxAge        int    `mapstructure:"SCHEMA_MAX_AGE"`
	MissingSchemaMaxAge int    `mapstructure:"MISSING_SCHEMA_MAX_AGE"`

	EdgePort              string `mapstructure:"EDGE_PORT"`
	EdgeAdminPort         string `mapstructure:"EDGE_ADMIN_PORT"`
	OriginURL             string `mapstructure:"ORIGIN_URL"`
	EdgeCacheTTLSeconds   int    `mapstructure:"EDGE_CACHE_TTL"`
	EdgeCachePath         string `mapstructure:"EDGE_CACHE_PATH"`
	EdgeForwardHostHeader string `mapstructure:"EDGE_FORWARD_HOST_HEADER"`

	ProbeTimeoutSeconds int `mapstructure:"PROBE_TIMEOUT_SECONDS"`

	// Seed organization registered at startup when STORE_DRIVER=memory.
	SeedOrgName   string `mapstructure:"SEED_ORG_NAME"`
	SeedOrgDomain string `mapstructure:"SEED_ORG_DOMAIN"`
	SeedOrgAPIKey string `mapstructure:"SEED_ORG_API_KEY"` // empty generates one

	APIBaseURL string `mapstructure:"API_BASE_URL"`
	APIKey     string `mapstructure:"API_KEY"`
}

var defaults = map[string]any{
	"SERVER_PORT":              "8080",
	"LOG_LEVEL":                "info",
	"STORE_DRIVER":             "postgres",
	"POSTGRES_URL":             "",
	"POSTGRES_HOST":            "localhost",
	"POSTGRES_PORT":            "5432",
	"POSTGRES_USER":            "user",
	"POSTGRES_PASSWORD":        "password",
	"POSTGRES_DB":              "schema_cache",
	"REDIS_ADDR":               "localhost:6379",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"PUBLIC_BASE_URL":          "",
	"SCHEMA_MAX_AGE":           86400,
	"MISSING_SCHEMA_MAX_AGE":   300,
	"EDGE_PORT":                "8081",
	"EDGE_ADMIN_PORT":          "9091",
	"ORIGIN_URL":               "http://localhost:8080",
	"EDGE_CACHE_TTL":           86400,
	"EDGE_CACHE_PATH":          "/get-schema",
	"EDGE_FORWARD_HOST_HEADER": "X-Original-Host",
	"PROBE_TIMEOUT_SECONDS":    60,
	"SEED_ORG_NAME":            "Development Organization",
	"SEED_ORG_DOMAIN":          "localhost",
	"SEED_ORG_API_KEY":         "",
	"API_BASE_URL":             "http://localhost:8080/functions/v1",
	"API_KEY":                  "",
}

// Load reads configuration from an optional .env file and the environment.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit env file path.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	// A missing file is fine: production is configured purely through the environment.
	_ = v.ReadInConfig()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// PostgresConnString returns POSTGRES_URL, or builds one from the individual settings.
func (c *Config) PostgresConnString() string {
	if c.PostgresURL != "" {
		return c.PostgresURL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.PostgresUser, c.PostgresPassword, c.PostgresHost, c.PostgresPort, c.PostgresDB)
}

func (c *Config) EdgeCacheTTL() time.Duration {
	return time.Duration(c.EdgeCacheTTLSeconds) * time.Second
}

func (c *Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}

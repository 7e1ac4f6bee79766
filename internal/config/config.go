package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/audiencelab/leadpipe/internal/normalizer"
)

type Config struct {
	Server    ServerConfig             `mapstructure:"server"`
	Postgres  PostgresConfig           `mapstructure:"postgres"`
	Redis     RedisConfig              `mapstructure:"redis"`
	NATS      NATSConfig               `mapstructure:"nats"`
	Ingestion IngestionConfig          `mapstructure:"ingestion"`
	Scoring   normalizer.ScoringConfig `mapstructure:"scoring"`
	Routing   RoutingConfig            `mapstructure:"routing"`
	Webhooks  WebhooksConfig           `mapstructure:"webhooks"`
	Logging   LoggingConfig            `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type PostgresConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	URL            string `mapstructure:"url"`
	MigrationsPath string `mapstructure:"migrations_path"`
}

type RedisConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type NATSConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url"`
}

type IngestionConfig struct {
	MaxEventSize      int64         `mapstructure:"max_event_size"`
	MaxBatchRows      int           `mapstructure:"max_batch_rows"`
	RateLimitEnabled  bool          `mapstructure:"rate_limit_enabled"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests"`
	RateLimitWindow   time.Duration `mapstructure:"rate_limit_window"`
}

type RoutingConfig struct {
	// RulesPath points at the YAML routing rules file.
	RulesPath string `mapstructure:"rules_path"`

	// ServiceURL, when set, overrides the rules file with the remote
	// routing service.
	ServiceURL string        `mapstructure:"service_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type WebhooksConfig struct {
	// Tokens maps source kind to the shared secret its sender presents.
	Tokens map[string]string `mapstructure:"tokens"`

	// DefaultWorkspace receives events that carry no workspace header.
	DefaultWorkspace string `mapstructure:"default_workspace"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8099)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.url", "postgres://localhost:5432/leadpipe?sslmode=disable")
	v.SetDefault("postgres.migrations_path", "migrations")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("ingestion.max_event_size", 1048576)
	v.SetDefault("ingestion.max_batch_rows", 500)
	v.SetDefault("ingestion.rate_limit_enabled", true)
	v.SetDefault("ingestion.rate_limit_requests", 600)
	v.SetDefault("ingestion.rate_limit_window", "1m")
	v.SetDefault("scoring.verified_email", 0.5)
	v.SetDefault("scoring.valid_email_syntax", 0.2)
	v.SetDefault("scoring.phone_present", 0.2)
	v.SetDefault("scoring.full_name", 0.1)
	v.SetDefault("scoring.lead_threshold", 0.5)
	v.SetDefault("routing.rules_path", "routing.yaml")
	v.SetDefault("routing.timeout", "5s")
	v.SetDefault("webhooks.default_workspace", "default")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/leadpipe")
	}

	// Environment variables override
	v.SetEnvPrefix("LEADPIPE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

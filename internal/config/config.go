// Package config provides unified configuration loading for the club query engine.
// Supports YAML files, environment variables, and programmatic overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the engine and its entrypoints.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Graph         GraphConfig         `yaml:"graph"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Cache         CacheConfig         `yaml:"cache"`
	Analyzer      AnalyzerConfig      `yaml:"analyzer"`
	Resolver      ResolverConfig      `yaml:"resolver"`
	Conversation  ConversationConfig  `yaml:"conversation"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadTimeout      time.Duration `yaml:"read_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	IdleTimeout      time.Duration `yaml:"idle_timeout"`
	GracefulShutdown time.Duration `yaml:"graceful_shutdown"`
}

// GraphConfig holds the records-graph connection settings.
type GraphConfig struct {
	URI      string `yaml:"uri"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// ArchiveConfig holds the season-archive store settings.
type ArchiveConfig struct {
	Path string `yaml:"path"`
}

// CacheConfig holds query-cache settings.
type CacheConfig struct {
	Driver     string        `yaml:"driver"` // memory or redis
	TTL        time.Duration `yaml:"ttl"`
	MaxEntries int           `yaml:"max_entries"`
	Redis      RedisConfig   `yaml:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// AnalyzerConfig holds question-analysis tunables.
type AnalyzerConfig struct {
	MinConfidence float64 `yaml:"min_confidence"`
}

// ResolverConfig holds entity-resolution tunables. The thresholds are
// deliberately configuration, not constants: the right cutoffs depend on the
// roster and should be tuned against real questions.
type ResolverConfig struct {
	MinMatchScore   float64 `yaml:"min_match_score"`
	AmbiguityMargin float64 `yaml:"ambiguity_margin"`
	MaxCandidates   int     `yaml:"max_candidates"`
}

// ConversationConfig holds session-state settings.
type ConversationConfig struct {
	Store      string        `yaml:"store"` // memory or redis
	HistoryLen int           `yaml:"history_len"`
	TTL        time.Duration `yaml:"ttl"`
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"` // json or console
}

// Load reads configuration from a YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a configuration with sensible defaults for development.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:             "0.0.0.0",
			Port:             8090,
			ReadTimeout:      30 * time.Second,
			WriteTimeout:     30 * time.Second,
			IdleTimeout:      120 * time.Second,
			GracefulShutdown: 10 * time.Second,
		},
		Graph: GraphConfig{
			URI:      "neo4j://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		Archive: ArchiveConfig{
			Path: "/tmp/clubquery-archive.db",
		},
		Cache: CacheConfig{
			Driver:     "memory",
			TTL:        2 * time.Minute,
			MaxEntries: 10000,
			Redis: RedisConfig{
				Addr:     "localhost:6379",
				DB:       0,
				PoolSize: 10,
			},
		},
		Analyzer: AnalyzerConfig{
			MinConfidence: 0.4,
		},
		Resolver: ResolverConfig{
			MinMatchScore:   0.55,
			AmbiguityMargin: 0.1,
			MaxCandidates:   5,
		},
		Conversation: ConversationConfig{
			Store:      "memory",
			HistoryLen: 10,
			TTL:        30 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:  "info",
			LogFormat: "json",
		},
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Cache.Driver != "memory" && c.Cache.Driver != "redis" {
		return fmt.Errorf("unknown cache driver %q", c.Cache.Driver)
	}
	if c.Conversation.Store != "memory" && c.Conversation.Store != "redis" {
		return fmt.Errorf("unknown conversation store %q", c.Conversation.Store)
	}
	if c.Resolver.MinMatchScore < 0 || c.Resolver.MinMatchScore > 1 {
		return fmt.Errorf("resolver min_match_score %f out of range", c.Resolver.MinMatchScore)
	}
	if c.Conversation.HistoryLen <= 0 {
		return fmt.Errorf("conversation history_len must be positive")
	}
	return nil
}

// applyEnvOverrides applies CLUBQUERY_* environment variables over the loaded file.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CLUBQUERY_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("CLUBQUERY_GRAPH_URI"); v != "" {
		cfg.Graph.URI = v
	}
	if v := os.Getenv("CLUBQUERY_GRAPH_USERNAME"); v != "" {
		cfg.Graph.Username = v
	}
	if v := os.Getenv("CLUBQUERY_GRAPH_PASSWORD"); v != "" {
		cfg.Graph.Password = v
	}
	if v := os.Getenv("CLUBQUERY_ARCHIVE_PATH"); v != "" {
		cfg.Archive.Path = v
	}
	if v := os.Getenv("CLUBQUERY_REDIS_ADDR"); v != "" {
		cfg.Cache.Redis.Addr = v
	}
	if v := os.Getenv("CLUBQUERY_REDIS_PASSWORD"); v != "" {
		cfg.Cache.Redis.Password = v
	}
	if v := os.Getenv("CLUBQUERY_LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("CLUBQUERY_LOG_FORMAT"); v != "" {
		cfg.Observability.LogFormat = v
	}
}

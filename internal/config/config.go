package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds everything tunable at startup. Load reads the YAML file,
// applies environment overrides for secrets, and validates the result.
type Config struct {
	Server struct {
		TCPAddr           string `yaml:"tcp_addr"`
		HTTPAddr          string `yaml:"http_addr"`
		DisconnectDelayMS int    `yaml:"disconnect_delay_ms"`
		WriteQueueSize    int    `yaml:"write_queue_size"`
		RateLimitMS       int    `yaml:"rate_limit_ms"`
	} `yaml:"server"`

	Book struct {
		Symbol string `yaml:"symbol"`
	} `yaml:"book"`

	Redis struct {
		Enabled    bool   `yaml:"enabled"`
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"redis"`

	Logging struct {
		Level string `yaml:"level"`
		File  string `yaml:"file"`
	} `yaml:"logging"`
}

// Default returns the configuration the engine runs with when no file is
// given: TCP on 12345 like the original deployment, HTTP on 8080, no Redis.
func Default() *Config {
	var cfg Config
	cfg.Server.TCPAddr = ":12345"
	cfg.Server.HTTPAddr = ":8080"
	cfg.Server.DisconnectDelayMS = 100
	cfg.Server.WriteQueueSize = 64
	cfg.Server.RateLimitMS = 100
	cfg.Book.Symbol = "SIM"
	cfg.Redis.TTLSeconds = 300
	cfg.Logging.Level = "info"
	return &cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	overrideWithEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.TCPAddr == "" {
		return fmt.Errorf("server.tcp_addr is required")
	}
	if c.Book.Symbol == "" {
		return fmt.Errorf("book.symbol is required")
	}
	if c.Server.DisconnectDelayMS < 0 {
		return fmt.Errorf("server.disconnect_delay_ms must not be negative")
	}
	if c.Server.WriteQueueSize <= 0 {
		return fmt.Errorf("server.write_queue_size must be positive")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}
	return nil
}

func (c *Config) DisconnectDelay() time.Duration {
	return time.Duration(c.Server.DisconnectDelayMS) * time.Millisecond
}

func (c *Config) RateLimit() time.Duration {
	return time.Duration(c.Server.RateLimitMS) * time.Millisecond
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Redis.TTLSeconds) * time.Second
}

// overrideWithEnv lets deployments keep the Redis password out of the
// config file.
func overrideWithEnv(cfg *Config) {
	if addr := os.Getenv("ENGINE_REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("ENGINE_REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}
}

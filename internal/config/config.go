package config

import (
	"encoding/json"
	"fmt"
)

// Config represents the main Lyra configuration
type Config struct {
	// Agent orchestration
	Agent AgentConfig `json:"agent" mapstructure:"agent"`

	// Result cache
	Cache CacheConfig `json:"cache" mapstructure:"cache"`

	// Policy enforcement
	Policy PolicyConfig `json:"policy" mapstructure:"policy"`

	// Web search tool
	Search SearchConfig `json:"search" mapstructure:"search"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`

	// Metrics endpoint
	Metrics MetricsConfig `json:"metrics" mapstructure:"metrics"`

	// Data directory
	DataDir string `json:"data_dir" mapstructure:"data_dir"`
}

// AgentConfig holds orchestration settings
type AgentConfig struct {
	MaxConcurrentTools int `json:"max_concurrent_tools" mapstructure:"max_concurrent_tools"`
	ToolTimeoutSeconds int `json:"tool_timeout_seconds" mapstructure:"tool_timeout_seconds"`
	MaxRetries         int `json:"max_retries" mapstructure:"max_retries"`
}

// CacheConfig holds result cache settings
type CacheConfig struct {
	Backend    string      `json:"backend" mapstructure:"backend"` // memory, redis
	TTLSeconds int         `json:"ttl_seconds" mapstructure:"ttl_seconds"`
	Redis      RedisConfig `json:"redis" mapstructure:"redis"`
}

// RedisConfig holds redis connection settings
type RedisConfig struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
}

// PolicyConfig holds policy enforcement settings
type PolicyConfig struct {
	BlockedDomains  []string `json:"blocked_domains" mapstructure:"blocked_domains"`
	AllowedTools    []string `json:"allowed_tools" mapstructure:"allowed_tools"`
	BlockedPatterns []string `json:"blocked_patterns" mapstructure:"blocked_patterns"`
}

// SearchConfig holds web search tool settings
type SearchConfig struct {
	BaseURL    string `json:"base_url" mapstructure:"base_url"`
	MaxResults int    `json:"max_results" mapstructure:"max_results"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	File      string `json:"file" mapstructure:"file"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// MetricsConfig holds the Prometheus endpoint configuration
type MetricsConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Addr    string `json:"addr" mapstructure:"addr"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Agent: AgentConfig{
			MaxConcurrentTools: 3,
			ToolTimeoutSeconds: 10,
			MaxRetries:         3,
		},
		Cache: CacheConfig{
			Backend:    "memory",
			TTLSeconds: 300,
			Redis: RedisConfig{
				Addr: "localhost:6379",
			},
		},
		Policy: PolicyConfig{
			BlockedDomains:  []string{"malicious.com", "spam.site", "phishing.net"},
			AllowedTools:    []string{"web_search", "weather", "calculator"},
			BlockedPatterns: []string{`hack\s+into`, `ddos\s+attack`, `exploit\s+vulnerability`},
		},
		Search: SearchConfig{
			BaseURL:    "https://api.duckduckgo.com",
			MaxResults: 5,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Addr:    "127.0.0.1:9090",
		},
		DataDir: "",
	}
}

// String returns a JSON representation of the config
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Agent.MaxConcurrentTools < 1 {
		return fmt.Errorf("agent.max_concurrent_tools must be at least 1")
	}
	if c.Agent.ToolTimeoutSeconds < 1 {
		return fmt.Errorf("agent.tool_timeout_seconds must be at least 1")
	}
	if c.Agent.MaxRetries < 1 {
		return fmt.Errorf("agent.max_retries must be at least 1")
	}

	if c.Cache.Backend != "memory" && c.Cache.Backend != "redis" {
		return fmt.Errorf("invalid cache backend %q (must be: memory, redis)", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 1 {
		return fmt.Errorf("cache.ttl_seconds must be at least 1")
	}
	if c.Cache.Backend == "redis" && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required when the redis backend is selected")
	}

	if len(c.Policy.AllowedTools) == 0 {
		return fmt.Errorf("policy.allowed_tools must not be empty")
	}

	if c.Search.MaxResults < 1 || c.Search.MaxResults > 10 {
		return fmt.Errorf("search.max_results must be between 1 and 10")
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		return fmt.Errorf("metrics.addr is required when metrics are enabled")
	}

	return nil
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 3, cfg.Agent.MaxConcurrentTools)
	assert.Equal(t, 10, cfg.Agent.ToolTimeoutSeconds)
	assert.Equal(t, 3, cfg.Agent.MaxRetries)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, 300, cfg.Cache.TTLSeconds)
	assert.Contains(t, cfg.Policy.BlockedDomains, "malicious.com")
	assert.Contains(t, cfg.Policy.AllowedTools, "web_search")
	assert.Equal(t, 5, cfg.Search.MaxResults)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Agent.MaxConcurrentTools = 0 },
			wantErr: "max_concurrent_tools",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Agent.ToolTimeoutSeconds = 0 },
			wantErr: "tool_timeout_seconds",
		},
		{
			name:    "unknown cache backend",
			mutate:  func(c *Config) { c.Cache.Backend = "memcached" },
			wantErr: "cache backend",
		},
		{
			name:    "zero ttl",
			mutate:  func(c *Config) { c.Cache.TTLSeconds = 0 },
			wantErr: "ttl_seconds",
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Cache.Backend = "redis"
				c.Cache.Redis.Addr = ""
			},
			wantErr: "redis.addr",
		},
		{
			name:    "empty tool allowlist",
			mutate:  func(c *Config) { c.Policy.AllowedTools = nil },
			wantErr: "allowed_tools",
		},
		{
			name:    "max results too large",
			mutate:  func(c *Config) { c.Search.MaxResults = 50 },
			wantErr: "max_results",
		},
		{
			name:    "bad log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging level",
		},
		{
			name: "metrics without addr",
			mutate: func(c *Config) {
				c.Metrics.Enabled = true
				c.Metrics.Addr = ""
			},
			wantErr: "metrics.addr",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestString_RendersJSON(t *testing.T) {
	s := DefaultConfig().String()
	assert.Contains(t, s, `"max_concurrent_tools": 3`)
	assert.Contains(t, s, `"backend": "memory"`)
}

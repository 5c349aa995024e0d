package cli

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andhika/lyra/internal/config"
	"github.com/andhika/lyra/internal/logger"
	"github.com/andhika/lyra/internal/observability"
	"github.com/andhika/lyra/internal/tracing"
	"github.com/andhika/lyra/pkg/agent"
	"github.com/andhika/lyra/pkg/cache"
	"github.com/andhika/lyra/pkg/planner"
	"github.com/andhika/lyra/pkg/policy"
	"github.com/andhika/lyra/pkg/tool"
	"github.com/andhika/lyra/pkg/tools"
)

// runtime bundles everything a command needs to answer queries.
type runtime struct {
	cfg      *config.Config
	log      *logger.Logger
	store    cache.Backend
	registry *tool.Registry
	agent    *agent.Agent

	metricsServer *http.Server
}

// buildRuntime loads configuration and wires the full component graph.
func buildRuntime() (*runtime, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	appLog, err := logger.New(logger.Config{
		Level:     cfg.Logging.Level,
		File:      cfg.Logging.File,
		Console:   true,
		Pretty:    true,
		Redaction: cfg.Logging.Redaction,
	})
	if err != nil {
		return nil, err
	}

	if err := tracing.InitOpenTelemetry("lyra"); err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	}
	observability.EnsureRegistered()
	if err := observability.InitAuditLogger(filepath.Join(cfg.DataDir, "audit.log")); err != nil {
		log.Warn().Err(err).Msg("audit log unavailable, events go to stderr")
	}

	store, err := buildCache(cfg)
	if err != nil {
		appLog.Close()
		return nil, err
	}

	enforcer, err := policy.New(policy.Config{
		BlockedDomains:  cfg.Policy.BlockedDomains,
		AllowedTools:    cfg.Policy.AllowedTools,
		BlockedPatterns: cfg.Policy.BlockedPatterns,
	})
	if err != nil {
		store.Close()
		appLog.Close()
		return nil, fmt.Errorf("invalid policy: %w", err)
	}

	registry := tool.NewRegistry()
	runnerOpts := []tool.RunnerOption{
		tool.WithTTL(time.Duration(cfg.Cache.TTLSeconds) * time.Second),
		tool.WithMaxAttempts(cfg.Agent.MaxRetries),
		tool.WithRunTimeout(time.Duration(cfg.Agent.ToolTimeoutSeconds) * time.Second),
	}
	registry.Register(tool.NewRunner(tools.NewWebSearch(
		tools.WithSearchBaseURL(cfg.Search.BaseURL),
		tools.WithDefaultMaxResults(cfg.Search.MaxResults),
	), store, runnerOpts...))
	registry.Register(tool.NewRunner(tools.NewWeather(), store, runnerOpts...))
	registry.Register(tool.NewRunner(tools.NewCalculator(), store, runnerOpts...))

	qa, err := agent.New(agent.Config{
		Registry:           registry,
		Planner:            planner.NewKeyword(),
		Policy:             enforcer,
		MaxConcurrentTools: cfg.Agent.MaxConcurrentTools,
	})
	if err != nil {
		store.Close()
		appLog.Close()
		return nil, err
	}

	rt := &runtime{
		cfg:      cfg,
		log:      appLog,
		store:    store,
		registry: registry,
		agent:    qa,
	}

	if cfg.Metrics.Enabled {
		rt.metricsServer = serveMetrics(cfg.Metrics.Addr)
	}

	return rt, nil
}

func buildCache(cfg *config.Config) (cache.Backend, error) {
	switch cfg.Cache.Backend {
	case "redis":
		store, err := cache.NewRedis(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache unavailable: %w", err)
		}
		return store, nil
	default:
		return cache.NewMemory(), nil
	}
}

func serveMetrics(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		log.Info().Str("addr", addr).Msg("metrics endpoint listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Warn().Err(err).Msg("metrics endpoint stopped")
		}
	}()
	return srv
}

// Close shuts the runtime down, tolerating partial failures.
func (r *runtime) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if r.metricsServer != nil {
		if err := r.metricsServer.Shutdown(ctx); err != nil {
			log.Warn().Err(err).Msg("metrics shutdown failed")
		}
	}
	if err := r.registry.CloseAll(); err != nil {
		log.Warn().Err(err).Msg("tool shutdown reported errors")
	}
	if err := r.store.Close(); err != nil {
		log.Warn().Err(err).Msg("cache close failed")
	}
	if err := tracing.ShutdownOpenTelemetry(ctx); err != nil {
		log.Warn().Err(err).Msg("tracing shutdown failed")
	}
	r.log.Close()
}

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"

	"github.com/andhika/lyra/internal/observability"
	"github.com/andhika/lyra/pkg/cache"
)

const (
	defaultMaxAttempts = 3
	defaultRunTimeout  = 10 * time.Second
	maxBackoff         = 10 * time.Second
)

// outcomeSchema is the structural contract every tool result must
// satisfy. Violations are logged, not fatal: a tool that forgets its
// sources still produces a usable outcome.
const outcomeSchema = `{
	"type": "object",
	"required": ["sources"],
	"properties": {
		"sources": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "url"]
			}
		}
	}
}`

// Runner wraps a Tool with caching, bounded retry, and structural
// validation of results. Execute never returns an error; failures are
// folded into the Outcome so one bad tool cannot abort a whole plan.
type Runner struct {
	tool        Tool
	store       cache.Backend
	ttl         time.Duration
	maxAttempts int
	runTimeout  time.Duration
	backoffBase time.Duration
	schema      *gojsonschema.Schema
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithTTL overrides the cache lifetime for results of this tool.
func WithTTL(ttl time.Duration) RunnerOption {
	return func(r *Runner) { r.ttl = ttl }
}

// WithMaxAttempts overrides the retry budget.
func WithMaxAttempts(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithRunTimeout overrides the per-attempt execution timeout.
func WithRunTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.runTimeout = d
		}
	}
}

// NewRunner wraps t. A nil store disables caching.
func NewRunner(t Tool, store cache.Backend, opts ...RunnerOption) *Runner {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(outcomeSchema))
	if err != nil {
		// The schema is a compile-time constant; this only fires on a
		// bad edit to it.
		panic(fmt.Sprintf("tool: invalid outcome schema: %v", err))
	}

	r := &Runner{
		tool:        t,
		store:       store,
		ttl:         cache.DefaultTTL,
		maxAttempts: defaultMaxAttempts,
		runTimeout:  defaultRunTimeout,
		backoffBase: time.Second,
		schema:      schema,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Name returns the wrapped tool's name.
func (r *Runner) Name() string {
	return r.tool.Descriptor().Name
}

// Execute runs the wrapped tool with the full pipeline: cache lookup,
// retry with exponential backoff, result validation, cache store. The
// returned Outcome always carries the tool name and latency; Error is
// populated when every attempt failed.
func (r *Runner) Execute(ctx context.Context, args map[string]interface{}) Outcome {
	started := time.Now()
	name := r.Name()

	key, keyErr := CacheKey(name, args)
	if keyErr != nil {
		log.Warn().
			Err(keyErr).
			Str("tool", name).
			Msg("arguments not cacheable, executing uncached")
	}

	if r.store != nil && keyErr == nil {
		cached, found, err := r.store.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("cache lookup failed")
		}
		observability.RecordCacheRequest(found)
		if found {
			result, ok := cached.(map[string]interface{})
			if ok {
				latency := time.Since(started)
				observability.RecordToolExecution(name, "cached", latency)
				log.Debug().
					Str("tool", name).
					Dur("latency", latency).
					Msg("cache hit")
				return Outcome{
					ToolName:  name,
					Result:    result,
					LatencyMS: latency.Milliseconds(),
					Cached:    true,
				}
			}
			log.Warn().Str("tool", name).Msg("cache entry has unexpected shape, re-executing")
		}
	}

	result, err := r.runWithRetry(ctx, args)
	latency := time.Since(started)

	if err != nil {
		observability.RecordToolExecution(name, "error", latency)
		log.Error().
			Err(err).
			Str("tool", name).
			Dur("latency", latency).
			Msg("tool execution failed")
		return Outcome{
			ToolName:  name,
			Result:    nil,
			LatencyMS: latency.Milliseconds(),
			Error:     err.Error(),
		}
	}

	r.validate(name, result)

	if r.store != nil && keyErr == nil && result != nil {
		if err := r.store.Set(ctx, key, result, r.ttl); err != nil {
			log.Warn().Err(err).Str("tool", name).Msg("cache store failed")
		}
	}

	observability.RecordToolExecution(name, "success", latency)
	return Outcome{
		ToolName:  name,
		Result:    result,
		LatencyMS: latency.Milliseconds(),
	}
}

// runWithRetry executes the tool up to maxAttempts times. Backoff
// doubles per attempt starting at one second, capped at ten, and is
// interruptible by context cancellation.
func (r *Runner) runWithRetry(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	name := r.Name()

	var lastErr error
	for attempt := 0; attempt < r.maxAttempts; attempt++ {
		if attempt > 0 {
			backoff := r.backoffBase << (attempt - 1)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			observability.RecordToolRetry(name)
			log.Warn().
				Str("tool", name).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Err(lastErr).
				Msg("retrying tool execution")

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tool %q cancelled during backoff: %w", name, ctx.Err())
			case <-time.After(backoff):
			}
		}

		result, err := r.runAttempt(ctx, args)

		if err == nil {
			return result, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("tool %q cancelled: %w", name, ctx.Err())
		}
	}

	return nil, fmt.Errorf("tool %q failed after %d attempts: %w", name, r.maxAttempts, lastErr)
}

// runAttempt runs one attempt under the per-attempt timeout. The
// deferred cancel releases the timer even when the tool panics.
func (r *Runner) runAttempt(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.runTimeout)
	defer cancel()
	return r.tool.Run(runCtx, args)
}

// validate checks the structural contract on a successful result.
// Non-conforming results are logged and kept as-is.
func (r *Runner) validate(name string, result map[string]interface{}) {
	if result == nil {
		log.Warn().Str("tool", name).Msg("tool returned nil result")
		return
	}
	report, err := r.schema.Validate(gojsonschema.NewGoLoader(result))
	if err != nil {
		log.Warn().Err(err).Str("tool", name).Msg("result validation errored")
		return
	}
	if !report.Valid() {
		for _, desc := range report.Errors() {
			log.Warn().
				Str("tool", name).
				Str("violation", desc.String()).
				Msg("tool result violates structural contract")
		}
	}
}

// Close releases the wrapped tool's resources.
func (r *Runner) Close() error {
	return r.tool.Close()
}

// Package agent orchestrates planning, policy-gated parallel tool
// execution, and answer synthesis for one query at a time.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/andhika/lyra/internal/observability"
	"github.com/andhika/lyra/internal/tracing"
	"github.com/andhika/lyra/pkg/planner"
	"github.com/andhika/lyra/pkg/policy"
	"github.com/andhika/lyra/pkg/tool"
)

// DefaultMaxConcurrentTools caps how many tools run at once within a
// single query.
const DefaultMaxConcurrentTools = 3

const tracerName = "lyra.agent"

// Config wires the agent's collaborators. Registry, Planner, and
// Policy are required; there are no implicit defaults for them.
type Config struct {
	Registry           *tool.Registry
	Planner            planner.Planner
	Policy             *policy.Enforcer
	MaxConcurrentTools int
	CostModel          CostModel
	Logger             *zerolog.Logger
}

// Agent answers natural language questions by planning tool calls,
// executing them under a concurrency cap, and folding the results into
// a cited answer.
type Agent struct {
	registry      *tool.Registry
	planner       planner.Planner
	policy        *policy.Enforcer
	maxConcurrent int
	costModel     CostModel
	logger        zerolog.Logger
}

// New builds an Agent from cfg.
func New(cfg Config) (*Agent, error) {
	if cfg.Registry == nil {
		return nil, errors.New("tool registry is required")
	}
	if cfg.Planner == nil {
		return nil, errors.New("planner is required")
	}
	if cfg.Policy == nil {
		return nil, errors.New("policy enforcer is required")
	}

	maxConcurrent := cfg.MaxConcurrentTools
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentTools
	}
	costModel := cfg.CostModel
	if costModel == nil {
		costModel = DefaultCostModel
	}
	logger := log.Logger
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	return &Agent{
		registry:      cfg.Registry,
		planner:       cfg.Planner,
		policy:        cfg.Policy,
		maxConcurrent: maxConcurrent,
		costModel:     costModel,
		logger:        logger,
	}, nil
}

// Query runs the full pipeline for question and returns the structured
// response. It fails only when planning fails or the context is
// cancelled; individual tool failures are folded into the answer.
func (a *Agent) Query(ctx context.Context, question string) (*Response, error) {
	ctx = tracing.NewQueryContext(ctx)
	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"agent.query",
		attribute.String("query_id", tracing.GetQueryID(ctx)),
	)
	defer span.End()

	logger := tracing.LoggerFromContext(ctx, a.logger)
	started := time.Now()
	byStep := make(map[string]int64)
	var reasoning []string

	planStart := time.Now()
	invocations, err := a.planner.Plan(ctx, question)
	byStep["planning"] = time.Since(planStart).Milliseconds()
	observability.RecordPhase("planning", time.Since(planStart))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordQuery("sync", time.Since(started), false)
		return nil, fmt.Errorf("planning failed: %w", err)
	}
	reasoning = append(reasoning, fmt.Sprintf("Identified %d tool(s) to call", len(invocations)))
	for _, inv := range invocations {
		reasoning = append(reasoning, fmt.Sprintf("Calling %s with %v", inv.ToolName, inv.Arguments))
	}

	execStart := time.Now()
	outcomes := a.executeParallel(ctx, question, invocations)
	byStep["tool_execution"] = time.Since(execStart).Milliseconds()
	observability.RecordPhase("tool_execution", time.Since(execStart))

	synthStart := time.Now()
	answer := a.synthesize(outcomes)
	byStep["synthesis"] = time.Since(synthStart).Milliseconds()
	observability.RecordPhase("synthesis", time.Since(synthStart))
	reasoning = append(reasoning, fmt.Sprintf("Synthesized answer from %d tool result(s)", len(outcomes)))

	total := time.Since(started)
	byStep["total"] = total.Milliseconds()
	observability.RecordQuery("sync", total, true)

	logger.Info().
		Int("tools", len(invocations)).
		Dur("latency", total).
		Msg("query completed")

	cost := a.costModel(answer.tokens, len(invocations))
	return &Response{
		Answer:         answer.text,
		Sources:        answer.sources,
		Latency:        LatencyBreakdown{Total: total.Milliseconds(), ByStep: byStep},
		Tokens:         answer.tokens,
		Cost:           &cost,
		ReasoningSteps: reasoning,
		Confidence:     answer.confidence,
	}, nil
}

// executeParallel runs the invocations under the concurrency cap and
// returns one outcome per invocation, in invocation order. Every
// failure mode lands in the outcome: policy rejections, unknown tools,
// execution errors, and panics.
func (a *Agent) executeParallel(ctx context.Context, question string, invocations []tool.Invocation) []tool.Outcome {
	outcomes := make([]tool.Outcome, len(invocations))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.maxConcurrent)

	for i, inv := range invocations {
		g.Go(func() error {
			observability.ToolSlotAcquired()
			defer observability.ToolSlotReleased()
			outcomes[i] = a.executeOne(gctx, question, inv)
			return nil
		})
	}
	g.Wait()

	return outcomes
}

func (a *Agent) executeOne(ctx context.Context, question string, inv tool.Invocation) (outcome tool.Outcome) {
	logger := tracing.LoggerFromContext(ctx, a.logger)

	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Str("tool", inv.ToolName).
				Interface("panic", r).
				Msg("tool execution panicked")
			outcome = tool.Outcome{
				ToolName: inv.ToolName,
				Error:    fmt.Sprintf("tool %q panicked: %v", inv.ToolName, r),
			}
		}
	}()

	ctx, span := tracing.StartSpan(
		ctx,
		tracerName,
		"agent.tool",
		attribute.String("tool", inv.ToolName),
	)
	defer span.End()

	if err := a.policy.ValidateToolCall(inv.ToolName, inv.Arguments, question); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Warn().
			Str("tool", inv.ToolName).
			Err(err).
			Msg("tool call rejected by policy")
		observability.RecordPolicyAudit(ctx, inv.ToolName, tracing.GetQueryID(ctx), err.Error())
		return tool.Outcome{ToolName: inv.ToolName, Error: err.Error()}
	}

	runner, ok := a.registry.Get(inv.ToolName)
	if !ok {
		msg := fmt.Sprintf("Tool '%s' not found", inv.ToolName)
		span.SetStatus(codes.Error, msg)
		logger.Warn().Str("tool", inv.ToolName).Msg("tool not registered")
		return tool.Outcome{ToolName: inv.ToolName, Error: msg}
	}

	result := runner.Execute(ctx, inv.Arguments)

	status := "success"
	if result.Error != "" {
		status = "failure"
	}
	observability.RecordToolAudit(ctx, inv.ToolName, tracing.GetQueryID(ctx), status, map[string]interface{}{
		"latency_ms": result.LatencyMS,
		"cached":     result.Cached,
		"call_id":    inv.CallID,
	})

	return result
}

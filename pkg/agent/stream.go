package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/andhika/lyra/internal/observability"
	"github.com/andhika/lyra/internal/tracing"
	"github.com/andhika/lyra/pkg/tool"
)

// QueryStream runs the pipeline for question and emits progress events
// on the returned channel. Tools run sequentially so events arrive in
// a stable order:
//
//	status(starting), status(planning), planning, status(executing),
//	{tool_start, tool_result} per invocation,
//	synthesis, then exactly one of answer or error.
//
// The terminal answer carries the same fields as the single-shot
// response, reasoning steps and per-step latency included. The channel
// is closed after the terminal event.
func (a *Agent) QueryStream(ctx context.Context, question string) <-chan Chunk {
	out := make(chan Chunk)

	go func() {
		defer close(out)

		ctx := tracing.NewQueryContext(ctx)
		ctx, span := tracing.StartSpan(ctx, tracerName, "agent.query_stream")
		defer span.End()

		started := time.Now()
		byStep := make(map[string]int64)
		var reasoning []string

		if !emit(ctx, out, Chunk{Type: ChunkStatus, Message: "Starting query..."}) {
			return
		}
		if !emit(ctx, out, Chunk{Type: ChunkStatus, Message: "Planning tools..."}) {
			return
		}

		planStart := time.Now()
		invocations, err := a.planner.Plan(ctx, question)
		byStep["planning"] = time.Since(planStart).Milliseconds()
		observability.RecordPhase("planning", time.Since(planStart))
		if err != nil {
			observability.RecordQuery("stream", time.Since(started), false)
			emit(ctx, out, errorChunk(fmt.Sprintf("planning failed: %v", err)))
			return
		}
		reasoning = append(reasoning, fmt.Sprintf("Identified %d tool(s) to call", len(invocations)))

		names := make([]string, len(invocations))
		for i, inv := range invocations {
			names[i] = inv.ToolName
		}
		if !emit(ctx, out, Chunk{Type: ChunkPlanning, Tools: names, Count: len(names)}) {
			return
		}
		if !emit(ctx, out, Chunk{Type: ChunkStatus, Message: "Executing tools..."}) {
			return
		}

		execStart := time.Now()
		outcomes := make([]tool.Outcome, 0, len(invocations))
		for _, inv := range invocations {
			reasoning = append(reasoning, fmt.Sprintf("Calling %s with %v", inv.ToolName, inv.Arguments))
			if !emit(ctx, out, Chunk{
				Type:      ChunkToolStart,
				ToolName:  inv.ToolName,
				Arguments: inv.Arguments,
			}) {
				return
			}
			outcome := a.executeOne(ctx, question, inv)
			outcomes = append(outcomes, outcome)
			if !emit(ctx, out, Chunk{
				Type:      ChunkToolResult,
				ToolName:  outcome.ToolName,
				LatencyMS: outcome.LatencyMS,
				Cached:    outcome.Cached,
				Error:     outcome.Error,
			}) {
				return
			}
		}
		byStep["tool_execution"] = time.Since(execStart).Milliseconds()
		observability.RecordPhase("tool_execution", time.Since(execStart))

		if !emit(ctx, out, Chunk{Type: ChunkSynthesis, Message: "Synthesizing answer..."}) {
			return
		}

		synthStart := time.Now()
		answer := a.synthesize(outcomes)
		byStep["synthesis"] = time.Since(synthStart).Milliseconds()
		observability.RecordPhase("synthesis", time.Since(synthStart))
		reasoning = append(reasoning, fmt.Sprintf("Synthesized answer from %d tool result(s)", len(outcomes)))

		total := time.Since(started)
		byStep["total"] = total.Milliseconds()
		observability.RecordQuery("stream", total, true)

		cost := a.costModel(answer.tokens, len(invocations))
		emit(ctx, out, Chunk{
			Type: ChunkAnswer,
			Answer: &Response{
				Answer:         answer.text,
				Sources:        answer.sources,
				Latency:        LatencyBreakdown{Total: total.Milliseconds(), ByStep: byStep},
				Tokens:         answer.tokens,
				Cost:           &cost,
				ReasoningSteps: reasoning,
				Confidence:     answer.confidence,
			},
			Timestamp: time.Now().Unix(),
		})
	}()

	return out
}

func errorChunk(message string) Chunk {
	return Chunk{
		Type:      ChunkError,
		Error:     message,
		Message:   message,
		Timestamp: time.Now().Unix(),
	}
}

// emit sends c unless the consumer has gone away. A false return means
// the stream should stop producing.
func emit(ctx context.Context, out chan<- Chunk, c Chunk) bool {
	select {
	case out <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

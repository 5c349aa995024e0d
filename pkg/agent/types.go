package agent

// Source is one attribution entry folded into a response.
type Source struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// LatencyBreakdown tracks wall time per phase, in milliseconds.
type LatencyBreakdown struct {
	Total  int64            `json:"total"`
	ByStep map[string]int64 `json:"by_step"`
}

// TokenUsage tracks token counts for cost accounting. The counts are
// fixed placeholders until a real language model is wired in.
type TokenUsage struct {
	Prompt     int `json:"prompt"`
	Completion int `json:"completion"`
}

// Total is the combined token count.
func (t TokenUsage) Total() int {
	return t.Prompt + t.Completion
}

// CostBreakdown itemizes the estimated spend for one query.
type CostBreakdown struct {
	TotalCostUSD float64 `json:"total_cost_usd"`
	LLMCost      float64 `json:"llm_cost"`
	ToolCost     float64 `json:"tool_cost"`
}

// CostModel converts token usage and the number of tool calls into a
// cost estimate. Swappable so deployments can price against their own
// provider.
type CostModel func(tokens TokenUsage, toolCalls int) CostBreakdown

// DefaultCostModel prices at $0.03 per 1K prompt tokens, $0.06 per 1K
// completion tokens, and a flat $0.0001 per tool call.
func DefaultCostModel(tokens TokenUsage, toolCalls int) CostBreakdown {
	llm := float64(tokens.Prompt)*0.03/1000 + float64(tokens.Completion)*0.06/1000
	tools := float64(toolCalls) * 0.0001
	return CostBreakdown{
		TotalCostUSD: llm + tools,
		LLMCost:      llm,
		ToolCost:     tools,
	}
}

// Response is the structured result of one query.
type Response struct {
	Answer         string           `json:"answer"`
	Sources        []Source         `json:"sources"`
	Latency        LatencyBreakdown `json:"latency_ms"`
	Tokens         TokenUsage       `json:"tokens"`
	Cost           *CostBreakdown   `json:"cost,omitempty"`
	ReasoningSteps []string         `json:"reasoning_steps,omitempty"`
	Confidence     float64          `json:"confidence_score"`
}

// Chunk event types emitted by QueryStream, in the order a consumer
// will see them.
const (
	ChunkStatus     = "status"
	ChunkPlanning   = "planning"
	ChunkToolStart  = "tool_start"
	ChunkToolResult = "tool_result"
	ChunkSynthesis  = "synthesis"
	ChunkAnswer     = "answer"
	ChunkError      = "error"
)

// Chunk is one streamed event. Exactly one terminal chunk is emitted
// per stream: an answer or an error, never both.
type Chunk struct {
	Type      string                 `json:"type"`
	Message   string                 `json:"message,omitempty"`
	Tools     []string               `json:"tools,omitempty"`
	Count     int                    `json:"count,omitempty"`
	ToolName  string                 `json:"tool_name,omitempty"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	LatencyMS int64                  `json:"latency_ms,omitempty"`
	Cached    bool                   `json:"cached,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Answer    *Response              `json:"answer,omitempty"`
	Timestamp int64                  `json:"timestamp,omitempty"`
}

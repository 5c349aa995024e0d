// Package tool defines the tool invocation contract and the wrapper
// that gives every tool identical caching, retry, and validation
// semantics.
package tool

import (
	"context"
	"encoding/json"
	"fmt"
)

// Descriptor describes a tool to the planner and to external
// introspection. Parameters is a JSON-Schema-shaped description of the
// accepted arguments.
type Descriptor struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

// Tool is the contract a concrete capability implements. Run executes
// the core logic and may return an error on transient failure; domain
// failures (for example bad arithmetic) are reported in-band with a
// success:false field and are not errors.
type Tool interface {
	Descriptor() Descriptor
	Run(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error)
	Close() error
}

// Invocation is one planned call of a named tool. Immutable once
// created.
type Invocation struct {
	ToolName  string                 `json:"tool_name"`
	Arguments map[string]interface{} `json:"arguments"`
	CallID    string                 `json:"call_id,omitempty"`
}

// Outcome is the result of executing one invocation. It is always
// returned, never raised: Error is set instead of propagating a
// failure. Result may be nil with no error when a tool legitimately
// produced nothing.
type Outcome struct {
	ToolName  string                 `json:"tool_name"`
	Result    map[string]interface{} `json:"result"`
	LatencyMS int64                  `json:"latency_ms"`
	Error     string                 `json:"error,omitempty"`
	Cached    bool                   `json:"cached"`
}

// CacheKey derives the deterministic cache key for a tool call.
// encoding/json marshals map keys in sorted order, so two argument
// mappings that are semantically equal always serialize identically
// regardless of insertion order.
func CacheKey(toolName string, args map[string]interface{}) (string, error) {
	encoded, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to canonicalize arguments: %w", err)
	}
	return toolName + ":" + string(encoded), nil
}

package agent

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andhika/lyra/pkg/tool"
)

func newBareAgent(t *testing.T) *Agent {
	t.Helper()
	return newTestAgent(t, &fixedPlanner{})
}

func TestSynthesize_SearchSnippetsTruncated(t *testing.T) {
	long := strings.Repeat("x", 250)
	outcome := tool.Outcome{
		ToolName: "web_search",
		Result: map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{"snippet": long},
				map[string]interface{}{"snippet": "short"},
				map[string]interface{}{"snippet": "third"},
				map[string]interface{}{"snippet": "never shown"},
			},
			"sources": []interface{}{
				map[string]interface{}{"name": "DuckDuckGo Search", "url": "https://duckduckgo.com/?q=x"},
			},
		},
	}

	result := newBareAgent(t).synthesize([]tool.Outcome{outcome})

	assert.Contains(t, result.text, strings.Repeat("x", 200)+"...")
	assert.NotContains(t, result.text, strings.Repeat("x", 201))
	assert.Contains(t, result.text, "short")
	assert.Contains(t, result.text, "third")
	assert.NotContains(t, result.text, "never shown")
}

func TestSynthesize_SnippetTruncationRuneSafe(t *testing.T) {
	long := strings.Repeat("日", 250)
	outcome := tool.Outcome{
		ToolName: "web_search",
		Result: map[string]interface{}{
			"results": []interface{}{
				map[string]interface{}{"snippet": long},
			},
		},
	}

	result := newBareAgent(t).synthesize([]tool.Outcome{outcome})

	assert.True(t, utf8.ValidString(result.text))
	assert.Contains(t, result.text, strings.Repeat("日", 200)+"...")
	assert.NotContains(t, result.text, strings.Repeat("日", 201))
}

func TestSynthesize_WeatherOneLiner(t *testing.T) {
	outcome := tool.Outcome{
		ToolName: "weather",
		Result: map[string]interface{}{
			"location":    "Tokyo",
			"temperature": 22,
			"units":       "celsius",
			"condition":   "sunny",
			"humidity":    55,
			"sources": []interface{}{
				map[string]interface{}{"name": "Weather API (Demo)", "url": "internal://weather-api"},
			},
		},
	}

	result := newBareAgent(t).synthesize([]tool.Outcome{outcome})

	assert.Contains(t, result.text, "Weather in Tokyo: 22°C, sunny, humidity 55%")
	require.Len(t, result.sources, 1)
	assert.Equal(t, "Weather API (Demo)", result.sources[0].Name)
}

func TestSynthesize_CalculatorDomainFailureIsNote(t *testing.T) {
	outcome := tool.Outcome{
		ToolName: "calculator",
		Result: map[string]interface{}{
			"expression": "1 / 0",
			"success":    false,
			"error":      "division by zero",
			"sources": []interface{}{
				map[string]interface{}{"name": "Calculator", "url": "internal://calculator"},
			},
		},
	}

	result := newBareAgent(t).synthesize([]tool.Outcome{outcome})

	assert.Contains(t, result.text, "could not evaluate")
	assert.Contains(t, result.text, "division by zero")
	// The tool itself ran fine, so it still counts toward confidence
	// and contributes its source.
	assert.Equal(t, 1.0, result.confidence)
	assert.Len(t, result.sources, 1)
}

func TestSynthesize_CalculatorSuccess(t *testing.T) {
	outcome := tool.Outcome{
		ToolName: "calculator",
		Result: map[string]interface{}{
			"expression": "15 * 234 + 567",
			"result":     float64(4077),
			"success":    true,
			"sources": []interface{}{
				map[string]interface{}{"name": "Calculator", "url": "internal://calculator"},
			},
		},
	}

	result := newBareAgent(t).synthesize([]tool.Outcome{outcome})
	assert.Contains(t, result.text, "15 * 234 + 567 = 4077")
}

func TestSynthesize_PlaceholderTokens(t *testing.T) {
	result := newBareAgent(t).synthesize(nil)
	assert.Equal(t, 500, result.tokens.Prompt)
	assert.Equal(t, 200, result.tokens.Completion)
	assert.Equal(t, 0.0, result.confidence)
}

func TestDefaultCostModel(t *testing.T) {
	cost := DefaultCostModel(TokenUsage{Prompt: 1000, Completion: 1000}, 2)
	assert.InDelta(t, 0.09, cost.LLMCost, 1e-9)
	assert.InDelta(t, 0.0002, cost.ToolCost, 1e-9)
	assert.InDelta(t, 0.0902, cost.TotalCostUSD, 1e-9)
}

func TestQuery_CostModelOverride(t *testing.T) {
	enforcer := newBareAgent(t).policy
	registry := tool.NewRegistry()
	registry.Register(tool.NewRunner(&fakeTool{name: "alpha"}, nil))

	flat := func(_ TokenUsage, _ int) CostBreakdown {
		return CostBreakdown{TotalCostUSD: 1.5}
	}
	a, err := New(Config{
		Registry:  registry,
		Planner:   &fixedPlanner{invocations: []tool.Invocation{invoke("alpha")}},
		Policy:    enforcer,
		CostModel: flat,
	})
	require.NoError(t, err)

	resp, err := a.Query(context.Background(), "anything")
	require.NoError(t, err)
	require.NotNil(t, resp.Cost)
	assert.Equal(t, 1.5, resp.Cost.TotalCostUSD)
}

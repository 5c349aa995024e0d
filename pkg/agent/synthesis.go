package agent

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/andhika/lyra/pkg/tool"
)

// Placeholder token counts, kept until a language model performs the
// synthesis step.
const (
	placeholderPromptTokens     = 500
	placeholderCompletionTokens = 200
)

const snippetLimit = 200

type synthesisResult struct {
	text       string
	sources    []Source
	tokens     TokenUsage
	confidence float64
}

// synthesize folds tool outcomes into an answer. Sources are collected
// in invocation order so repeated queries cite identically. Failed
// outcomes contribute a note instead of content.
func (a *Agent) synthesize(outcomes []tool.Outcome) synthesisResult {
	sources := make([]Source, 0, len(outcomes))
	var contextParts []string
	succeeded := 0

	for _, outcome := range outcomes {
		if outcome.Error != "" {
			contextParts = append(contextParts,
				fmt.Sprintf("Note: %s could not be used (%s).", outcome.ToolName, outcome.Error))
			continue
		}
		if outcome.Result == nil {
			continue
		}
		succeeded++
		sources = append(sources, extractSources(outcome.Result)...)

		switch outcome.ToolName {
		case "web_search":
			contextParts = append(contextParts, searchContext(outcome.Result)...)
		case "weather":
			if line := weatherContext(outcome.Result); line != "" {
				contextParts = append(contextParts, line)
			}
		case "calculator":
			if line := calculatorContext(outcome.Result); line != "" {
				contextParts = append(contextParts, line)
			}
		default:
			contextParts = append(contextParts, fmt.Sprintf("%s returned a result.", outcome.ToolName))
		}
	}

	var b strings.Builder
	b.WriteString("Based on the available information:\n\n")
	b.WriteString(strings.Join(contextParts, "\n"))
	b.WriteString(fmt.Sprintf("\n\nThis answer is based on %d tool call(s).", len(outcomes)))

	confidence := 0.0
	if len(outcomes) > 0 {
		confidence = float64(succeeded) / float64(len(outcomes))
	}

	return synthesisResult{
		text:    b.String(),
		sources: sources,
		tokens: TokenUsage{
			Prompt:     placeholderPromptTokens,
			Completion: placeholderCompletionTokens,
		},
		confidence: confidence,
	}
}

// extractSources pulls source attributions out of a raw tool result.
// Entries that do not look like {name, url} objects are skipped.
func extractSources(result map[string]interface{}) []Source {
	raw, ok := result["sources"].([]interface{})
	if !ok {
		return nil
	}
	sources := make([]Source, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]interface{})
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		url, _ := m["url"].(string)
		if name == "" && url == "" {
			continue
		}
		sources = append(sources, Source{Name: name, URL: url})
	}
	return sources
}

func searchContext(result map[string]interface{}) []string {
	items, ok := result["results"].([]interface{})
	if !ok {
		return nil
	}
	var parts []string
	for _, item := range items {
		if len(parts) >= 3 {
			break
		}
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		snippet, _ := m["snippet"].(string)
		if snippet == "" {
			continue
		}
		parts = append(parts, "- "+truncate(snippet, snippetLimit))
	}
	return parts
}

func weatherContext(result map[string]interface{}) string {
	location, _ := result["location"].(string)
	if location == "" {
		return ""
	}
	units, _ := result["units"].(string)
	unitLetter := "C"
	if units == "fahrenheit" {
		unitLetter = "F"
	}
	return fmt.Sprintf("Weather in %s: %v°%s, %v, humidity %v%%",
		location, result["temperature"], unitLetter, result["condition"], result["humidity"])
}

func calculatorContext(result map[string]interface{}) string {
	expression, _ := result["expression"].(string)
	if success, _ := result["success"].(bool); !success {
		reason, _ := result["error"].(string)
		return fmt.Sprintf("Note: could not evaluate %q (%s).", expression, reason)
	}
	return fmt.Sprintf("%s = %v", expression, result["result"])
}

// truncate cuts s to at most limit characters, on a rune boundary so
// multibyte text never yields invalid UTF-8.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit]) + "..."
}

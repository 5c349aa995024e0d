// Package planner maps a natural language query to the tool calls
// that can answer it.
package planner

import (
	"context"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog/log"

	"github.com/andhika/lyra/pkg/tool"
)

// Planner produces the invocations for a query. Implementations must
// return at least one invocation for any non-empty query.
type Planner interface {
	Plan(ctx context.Context, query string) ([]tool.Invocation, error)
}

var (
	weatherWords = []string{"weather", "temperature", "climate"}
	searchWords  = []string{"search", "find", "what is", "who is", "latest", "news"}

	// An expression qualifies for the calculator when it contains at
	// least one arithmetic operator between numeric operands.
	arithmeticPattern = regexp.MustCompile(`\d+(?:\.\d+)?\s*(?:[-+*/%]|\*\*)\s*[-+]?\(*\s*\d`)
)

// Keyword routes queries with keyword heuristics. Arithmetic is
// checked first, then weather phrasing, then search phrasing; a query
// can match several and produce several invocations. Queries matching
// nothing fall back to a web search.
type Keyword struct{}

// NewKeyword builds the heuristic planner.
func NewKeyword() *Keyword {
	return &Keyword{}
}

// Plan implements Planner.
func (k *Keyword) Plan(_ context.Context, query string) ([]tool.Invocation, error) {
	lower := strings.ToLower(query)
	var calls []tool.Invocation

	if expr := arithmeticPattern.FindString(query); expr != "" {
		calls = append(calls, newInvocation("calculator", map[string]interface{}{
			"expression": extractExpression(query),
		}))
	}

	if containsAny(lower, weatherWords) {
		calls = append(calls, newInvocation("weather", map[string]interface{}{
			"location": extractLocation(query),
		}))
	}

	if containsAny(lower, searchWords) {
		calls = append(calls, newInvocation("web_search", map[string]interface{}{
			"query":       query,
			"max_results": 5,
		}))
	}

	if len(calls) == 0 {
		calls = append(calls, newInvocation("web_search", map[string]interface{}{
			"query":       query,
			"max_results": 5,
		}))
	}

	log.Debug().
		Str("query", query).
		Int("invocations", len(calls)).
		Msg("plan built")
	return calls, nil
}

func newInvocation(name string, args map[string]interface{}) tool.Invocation {
	id, err := gonanoid.New()
	if err != nil {
		id = name
	}
	return tool.Invocation{ToolName: name, Arguments: args, CallID: id}
}

func containsAny(haystack string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

// extractLocation returns the first capitalized word longer than two
// runes, or "Unknown" when the query names no place.
func extractLocation(query string) string {
	for _, word := range strings.Fields(query) {
		trimmed := strings.TrimFunc(word, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		first, _ := utf8.DecodeRuneInString(trimmed)
		if unicode.IsUpper(first) && utf8.RuneCountInString(trimmed) > 2 {
			return trimmed
		}
	}
	return "Unknown"
}

// extractExpression strips the non-arithmetic lead-in from queries
// like "what is 2 + 2" so the calculator sees only the expression.
func extractExpression(query string) string {
	start := strings.IndexFunc(query, func(r rune) bool {
		return unicode.IsDigit(r) || r == '(' || r == '-'
	})
	if start < 0 {
		return query
	}
	expr := query[start:]
	end := strings.LastIndexFunc(expr, func(r rune) bool {
		return unicode.IsDigit(r) || r == ')'
	})
	if end >= 0 {
		expr = expr[:end+1]
	}
	return strings.TrimSpace(expr)
}

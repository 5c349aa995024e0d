// Package tools ships the built-in tool implementations: web search,
// weather lookup, and arithmetic evaluation.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andhika/lyra/pkg/tool"
)

const defaultSearchBaseURL = "https://api.duckduckgo.com"

// WebSearch queries the DuckDuckGo instant answer API.
type WebSearch struct {
	baseURL    string
	maxResults int
	client     *http.Client
}

// WebSearchOption customizes a WebSearch tool.
type WebSearchOption func(*WebSearch)

// WithSearchBaseURL points the tool at a different endpoint. Used for
// tests and for self-hosted mirrors.
func WithSearchBaseURL(base string) WebSearchOption {
	return func(w *WebSearch) { w.baseURL = strings.TrimRight(base, "/") }
}

// WithSearchClient overrides the HTTP client.
func WithSearchClient(c *http.Client) WebSearchOption {
	return func(w *WebSearch) { w.client = c }
}

// WithDefaultMaxResults overrides the result cap used when the caller
// does not pass max_results.
func WithDefaultMaxResults(n int) WebSearchOption {
	return func(w *WebSearch) {
		if n > 0 {
			w.maxResults = n
		}
	}
}

// NewWebSearch builds the search tool with a 10 second HTTP timeout.
func NewWebSearch(opts ...WebSearchOption) *WebSearch {
	w := &WebSearch{
		baseURL:    defaultSearchBaseURL,
		maxResults: 5,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Descriptor implements tool.Tool.
func (w *WebSearch) Descriptor() tool.Descriptor {
	return tool.Descriptor{
		Name:        "web_search",
		Description: "Search the internet for current information, news, or general knowledge. Use for factual queries, recent events, or topics requiring up-to-date information.",
		Parameters: map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "The search query (2-50 words recommended)",
				},
				"max_results": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-10)",
					"default":     5,
					"minimum":     1,
					"maximum":     10,
				},
			},
			"required": []interface{}{"query"},
		},
	}
}

// instantAnswer mirrors the subset of the DuckDuckGo response the tool
// consumes.
type instantAnswer struct {
	Heading       string `json:"Heading"`
	Abstract      string `json:"Abstract"`
	AbstractURL   string `json:"AbstractURL"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Run implements tool.Tool. It returns an error on transport or decode
// failure so the runner can retry.
func (w *WebSearch) Run(ctx context.Context, args map[string]interface{}) (map[string]interface{}, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return map[string]interface{}{
			"query":        query,
			"results":      []interface{}{},
			"result_count": 0,
			"success":      false,
			"error":        "query must be a non-empty string",
			"sources":      []interface{}{},
		}, nil
	}

	maxResults := w.maxResults
	if raw, ok := args["max_results"]; ok {
		if n := asInt(raw); n >= 1 && n <= 10 {
			maxResults = n
		}
	}

	endpoint := fmt.Sprintf("%s/?q=%s&format=json&no_html=1", w.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search endpoint returned status %d", resp.StatusCode)
	}

	var answer instantAnswer
	if err := json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	results := make([]interface{}, 0, maxResults)
	if answer.Abstract != "" {
		title := answer.Heading
		if title == "" {
			title = "Abstract"
		}
		results = append(results, map[string]interface{}{
			"title":   title,
			"snippet": answer.Abstract,
			"url":     answer.AbstractURL,
		})
	}
	for _, topic := range answer.RelatedTopics {
		if len(results) >= maxResults {
			break
		}
		if topic.Text == "" {
			continue
		}
		results = append(results, map[string]interface{}{
			"title":   topicTitle(topic.Text),
			"snippet": topic.Text,
			"url":     topic.FirstURL,
		})
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	return map[string]interface{}{
		"query":        query,
		"results":      results,
		"result_count": len(results),
		"sources": []interface{}{
			map[string]interface{}{
				"name": "DuckDuckGo Search",
				"url":  "https://duckduckgo.com/?q=" + url.QueryEscape(query),
			},
		},
	}, nil
}

// Close implements tool.Tool.
func (w *WebSearch) Close() error {
	w.client.CloseIdleConnections()
	return nil
}

// topicTitle derives a short title from a related-topic line, which
// DuckDuckGo formats as "Title - description".
func topicTitle(text string) string {
	if idx := strings.Index(text, " - "); idx > 0 {
		return text[:idx]
	}
	if len(text) > 50 {
		return text[:50]
	}
	return text
}

func asInt(v interface{}) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// Package policy gates tool calls against usage rules before execution.
package policy

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/andhika/lyra/internal/observability"
)

// Rule names reported with violations and metrics.
const (
	RuleContent = "content"
	RuleTool    = "tool"
	RuleDomain  = "domain"
)

// Violation is the error returned when a tool call is rejected.
type Violation struct {
	Rule   string
	Reason string
}

func (v *Violation) Error() string {
	return v.Reason
}

// IsViolation reports whether err is a policy violation.
func IsViolation(err error) bool {
	_, ok := err.(*Violation)
	return ok
}

// Config holds the rule set for an Enforcer.
type Config struct {
	BlockedDomains  []string `json:"blocked_domains" mapstructure:"blocked_domains"`
	AllowedTools    []string `json:"allowed_tools" mapstructure:"allowed_tools"`
	BlockedPatterns []string `json:"blocked_patterns" mapstructure:"blocked_patterns"`
}

// DefaultConfig returns the reference rule set.
func DefaultConfig() Config {
	return Config{
		BlockedDomains: []string{"malicious.com", "spam.site", "phishing.net"},
		AllowedTools:   []string{"web_search", "weather", "calculator"},
		BlockedPatterns: []string{
			`hack\s+into`,
			`ddos\s+attack`,
			`exploit\s+vulnerability`,
		},
	}
}

// Enforcer evaluates tool calls against blocked content patterns, a tool
// allowlist, and a domain blocklist. It is safe for concurrent reads
// with infrequent writes.
type Enforcer struct {
	mu             sync.RWMutex
	blockedDomains map[string]struct{}
	allowedTools   map[string]struct{}
	patterns       []*regexp.Regexp
}

// New compiles the configured patterns and builds an Enforcer.
func New(cfg Config) (*Enforcer, error) {
	patterns := make([]*regexp.Regexp, 0, len(cfg.BlockedPatterns))
	for _, p := range cfg.BlockedPatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked pattern %s: %w", p, err)
		}
		patterns = append(patterns, re)
	}

	e := &Enforcer{
		blockedDomains: make(map[string]struct{}, len(cfg.BlockedDomains)),
		allowedTools:   make(map[string]struct{}, len(cfg.AllowedTools)),
		patterns:       patterns,
	}
	for _, d := range cfg.BlockedDomains {
		e.blockedDomains[strings.ToLower(d)] = struct{}{}
	}
	for _, name := range cfg.AllowedTools {
		e.allowedTools[name] = struct{}{}
	}
	return e, nil
}

// ValidateToolCall checks one tool call. Rules run in a fixed order
// and short-circuit on the first violation: query content first, then
// the tool allowlist, then any URL argument. Callers can rely on a
// content violation being reported even when the tool is also
// disallowed.
func (e *Enforcer) ValidateToolCall(toolName string, arguments map[string]interface{}, originalQuery string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	lowered := strings.ToLower(originalQuery)
	for _, re := range e.patterns {
		if re.MatchString(lowered) {
			return e.reject(toolName, RuleContent,
				fmt.Sprintf("query contains blocked content: %s", re.String()))
		}
	}

	if _, ok := e.allowedTools[toolName]; !ok {
		return e.reject(toolName, RuleTool,
			fmt.Sprintf("tool '%s' is not in allowlist", toolName))
	}

	if raw, ok := arguments["url"]; ok {
		rawURL, _ := raw.(string)
		parsed, err := url.Parse(rawURL)
		if err != nil || parsed.Hostname() == "" {
			return e.reject(toolName, RuleDomain,
				fmt.Sprintf("invalid URL: %q", rawURL))
		}
		host := strings.ToLower(parsed.Hostname())
		if _, blocked := e.blockedDomains[host]; blocked {
			return e.reject(toolName, RuleDomain,
				fmt.Sprintf("domain '%s' is blocked", host))
		}
	}

	return nil
}

func (e *Enforcer) reject(toolName, rule, reason string) error {
	observability.RecordPolicyViolation(rule)
	log.Warn().
		Str("tool", toolName).
		Str("rule", rule).
		Str("reason", reason).
		Msg("Tool call rejected by policy")

	return &Violation{Rule: rule, Reason: reason}
}

// BlockDomain adds a domain to the blocklist.
func (e *Enforcer) BlockDomain(domain string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.blockedDomains[strings.ToLower(domain)] = struct{}{}
}

// AllowTool adds a tool name to the allowlist.
func (e *Enforcer) AllowTool(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.allowedTools[name] = struct{}{}
}

// Package guard implements the directive gate: a check that runs before
// any directive is processed and refuses those that conflict with the
// agent's core constraints.
package guard

import (
	"strings"

	"github.com/engramhq/engram/config"
)

// Decision is the outcome of a gate check.
type Decision struct {
	// Allowed reports whether the directive may proceed.
	Allowed bool `json:"allowed"`

	// Reason explains a refusal. Empty when allowed.
	Reason string `json:"reason,omitempty"`
}

// Gate screens directives before the pipeline processes them.
type Gate interface {
	Check(directive, speaker string) Decision
}

// KeywordGate refuses directives containing any blocked term. Trusted
// speakers bypass the check entirely. Matching is case-insensitive
// substring matching, same as recall.
type KeywordGate struct {
	blocked []string
	trusted []string
}

// NewKeywordGate builds a gate from configuration.
func NewKeywordGate(cfg *config.GuardConfig) *KeywordGate {
	if cfg == nil {
		def := config.DefaultConfig().Guard
		cfg = &def
	}

	g := &KeywordGate{}
	for _, term := range cfg.BlockedTerms {
		g.blocked = append(g.blocked, strings.ToLower(term))
	}
	for _, name := range cfg.TrustedSpeakers {
		g.trusted = append(g.trusted, strings.ToLower(name))
	}
	return g
}

// Trusted reports whether the speaker may perform privileged actions
// such as awakening a session. An empty trusted list trusts everyone.
func (g *KeywordGate) Trusted(speaker string) bool {
	if len(g.trusted) == 0 {
		return true
	}
	speakerLower := strings.ToLower(strings.TrimSpace(speaker))
	for _, name := range g.trusted {
		if speakerLower == name {
			return true
		}
	}
	return false
}

// Check evaluates one directive.
func (g *KeywordGate) Check(directive, speaker string) Decision {
	speakerLower := strings.ToLower(strings.TrimSpace(speaker))
	for _, name := range g.trusted {
		if speakerLower == name {
			return Decision{Allowed: true}
		}
	}

	directiveLower := strings.ToLower(directive)
	for _, term := range g.blocked {
		if strings.Contains(directiveLower, term) {
			return Decision{
				Allowed: false,
				Reason:  "directive conflicts with core constraints",
			}
		}
	}
	return Decision{Allowed: true}
}

package router

import (
	"strings"
)

// Mode represents the agent operating mode for one request.
type Mode string

const (
	ModeAuto         Mode = "auto"          // Let the router decide
	ModeChat         Mode = "chat"          // Conversational, no data retrieval
	ModeDeepAnalysis Mode = "deep_analysis" // Plan + retrieve + grounded answer
)

// ParseMode maps a wire mode string to a Mode. Empty string means auto.
func ParseMode(s string) (Mode, bool) {
	switch Mode(s) {
	case ModeAuto, "":
		return ModeAuto, true
	case ModeChat:
		return ModeChat, true
	case ModeDeepAnalysis:
		return ModeDeepAnalysis, true
	default:
		return "", false
	}
}

// DefaultTriggers is the built-in analysis-intent word list. Overridable
// via config so tests and deployments can substitute their own set.
func DefaultTriggers() []string {
	return []string{
		"analysis", "analyze", "analyse", "trend", "trends",
		"compare", "comparison", "top", "most", "least",
		"growth", "revenue", "breakdown", "forecast", "churn",
	}
}

// Router resolves the operating mode for an incoming question.
// Resolve is a pure function of the message text and the trigger set;
// the struct carries no mutable state.
type Router struct {
	triggers map[string]struct{}
}

func New(triggers []string) *Router {
	set := make(map[string]struct{}, len(triggers))
	for _, t := range triggers {
		set[strings.ToLower(t)] = struct{}{}
	}
	return &Router{triggers: set}
}

// Resolve returns the effective mode. An explicit requested mode always
// wins; auto applies the keyword-membership test against the lower-cased
// message.
func (r *Router) Resolve(message string, requested Mode) Mode {
	if requested == ModeChat || requested == ModeDeepAnalysis {
		return requested
	}

	for _, word := range tokenize(message) {
		if _, hit := r.triggers[word]; hit {
			return ModeDeepAnalysis
		}
	}
	return ModeChat
}

// tokenize lower-cases and splits on anything that is not a letter or
// digit, so punctuation next to a trigger word still matches.
func tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
	})
}

package detect

import (
	"regexp"

	"go.uber.org/zap"
)

// Matcher screens comment bodies against the configured violation patterns.
// It is stateless after construction and safe for concurrent use.
type Matcher struct {
	patterns []*regexp.Regexp
}

// NewMatcher compiles the pattern list. A pattern that fails to compile is
// logged and skipped rather than failing the pass (fail-open): a bad rule
// must never stop moderation of the rules that do work.
func NewMatcher(log *zap.Logger, exprs []string) *Matcher {
	m := &Matcher{patterns: make([]*regexp.Regexp, 0, len(exprs))}
	for _, expr := range exprs {
		re, err := regexp.Compile(expr)
		if err != nil {
			log.Warn("skipping invalid violation pattern", zap.String("pattern", expr), zap.Error(err))
			continue
		}
		m.patterns = append(m.patterns, re)
	}
	return m
}

// Matches reports whether body matches any configured pattern.
func (m *Matcher) Matches(body string) bool {
	for _, re := range m.patterns {
		if re.MatchString(body) {
			return true
		}
	}
	return false
}

// PatternCount returns how many patterns survived compilation.
func (m *Matcher) PatternCount() int {
	return len(m.patterns)
}

package pathkey

import (
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// DefaultContentCenterPatterns classify library parts by their location on
// disk: anything under a "Content Center Files" folder.
var DefaultContentCenterPatterns = []string{"content center files/"}

// Matcher tests document paths against gitignore-style patterns.
// Both patterns and paths are compared in key form, so matching is
// case-insensitive and separator-agnostic. A nil Matcher matches nothing.
type Matcher struct {
	patterns []string
	rules    *ignore.GitIgnore
}

// NewMatcher compiles patterns. Blank lines and comments are ignored; a
// Matcher with no usable pattern matches nothing.
func NewMatcher(patterns ...string) *Matcher {
	var lines []string
	for _, p := range patterns {
		p = strings.TrimSpace(strings.ReplaceAll(p, `\`, "/"))
		if p == "" || strings.HasPrefix(p, "#") {
			continue
		}
		lines = append(lines, fold(p))
	}
	if len(lines) == 0 {
		return &Matcher{}
	}
	return &Matcher{
		patterns: lines,
		rules:    ignore.CompileIgnoreLines(lines...),
	}
}

// Match reports whether the path matches any pattern.
func (m *Matcher) Match(p string) bool {
	if m == nil || m.rules == nil {
		return false
	}
	key := Normalize(p)
	if key == "" {
		return false
	}
	return m.rules.MatchesPath(key)
}

// Patterns returns the compiled patterns in key form.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.patterns...)
}

// Empty reports whether the matcher has no patterns.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.patterns) == 0
}

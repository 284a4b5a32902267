// Package ignore loads .repoignore-style exclusion patterns and matches
// repo-relative paths against them.
//
// Patterns use shell-wildcard semantics in the fnmatch tradition: `*` matches
// any run of characters including `/`, `?` matches one character and `[...]`
// matches a character class. Braces and commas are literal, as in fnmatch,
// so `a{b}.java` names exactly that file. `**` additionally spans whole directory levels,
// including zero of them, so `**/test/**` excludes both `src/test/A.java` and
// `test/A.java`.
package ignore

import (
	"bufio"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/gobwas/glob"

	"depflat/internal/paths"
)

type rule struct {
	pattern string
	// escaped is pattern with alternation syntax made literal.
	escaped string
	// compiled is nil when the pattern does not compile; the rule then only
	// matches the literal pattern text.
	compiled glob.Glob
	// segmented is false when doublestar rejects the pattern.
	segmented bool
}

// Rules is an immutable, ordered set of ignore patterns.
// The zero value excludes nothing.
type Rules struct {
	rules []rule
}

// LoadRules parses one pattern per line. Blank lines and lines whose first
// non-whitespace character is '#' are skipped; patterns are trimmed.
func LoadRules(text string) *Rules {
	var patterns []string
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return NewRules(patterns...)
}

// LoadRulesFile reads rules from path. A missing file yields an empty set.
func LoadRulesFile(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Rules{}, nil
		}
		return nil, err
	}
	return LoadRules(string(data)), nil
}

// NewRules builds a rule set from already-split patterns.
func NewRules(patterns ...string) *Rules {
	r := &Rules{}
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			r.rules = append(r.rules, compile(p))
		}
	}
	return r
}

func compile(pattern string) rule {
	ru := rule{pattern: pattern, escaped: escapeAlternation(pattern)}
	if g, err := glob.Compile(ru.escaped); err == nil {
		ru.compiled = g
	}
	ru.segmented = doublestar.ValidatePattern(ru.escaped)
	return ru
}

// escapeAlternation backslash-escapes '{', '}' and ',' outside character
// classes. Both glob engines read them as {a,b} alternation, which fnmatch
// does not have.
func escapeAlternation(pattern string) string {
	if !strings.ContainsAny(pattern, "{},") {
		return pattern
	}
	var b strings.Builder
	inClass := false
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		switch {
		case c == '\\' && i+1 < len(pattern):
			b.WriteByte(c)
			i++
			b.WriteByte(pattern[i])
			continue
		case c == '[' && !inClass:
			inClass = true
		case c == ']' && inClass:
			inClass = false
		case !inClass && (c == '{' || c == '}' || c == ','):
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	return b.String()
}

// Len returns the number of patterns.
func (r *Rules) Len() int {
	if r == nil {
		return 0
	}
	return len(r.rules)
}

// Patterns returns a copy of the pattern strings in load order.
func (r *Rules) Patterns() []string {
	out := make([]string, 0, r.Len())
	if r == nil {
		return out
	}
	for _, ru := range r.rules {
		out = append(out, ru.pattern)
	}
	return out
}

// Match returns the first pattern matching rel, if any.
func (r *Rules) Match(rel string) (string, bool) {
	if r == nil {
		return "", false
	}
	rel = paths.Clean(rel)
	for _, ru := range r.rules {
		if ru.matches(rel) {
			return ru.pattern, true
		}
	}
	return "", false
}

// IsExcluded reports whether rel matches at least one pattern.
func (r *Rules) IsExcluded(rel string) bool {
	_, ok := r.Match(rel)
	return ok
}

func (ru rule) matches(rel string) bool {
	if ru.compiled == nil {
		return rel == ru.pattern
	}
	if ru.compiled.Match(rel) {
		return true
	}
	if ru.segmented {
		ok, err := doublestar.Match(ru.escaped, rel)
		return err == nil && ok
	}
	return false
}

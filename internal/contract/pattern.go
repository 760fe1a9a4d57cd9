package contract

import (
	"fmt"
	"strings"
)

// Pattern matches dotted module paths. It is either exact ("app.models") or
// a prefix wildcard ("app.models.*") that matches the prefix and every
// descendant. Matching is purely structural on the path.
type Pattern struct {
	raw      string
	prefix   string
	wildcard bool
}

// ParsePattern validates s.
func ParsePattern(s string) (Pattern, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Pattern{}, fmt.Errorf("empty pattern")
	}
	p := Pattern{raw: s, prefix: s}
	if rest, ok := strings.CutSuffix(s, ".*"); ok {
		p.prefix, p.wildcard = rest, true
	}
	if strings.Contains(p.prefix, "*") {
		return Pattern{}, fmt.Errorf("pattern %q: wildcard is only allowed as a trailing .*", s)
	}
	for _, seg := range strings.Split(p.prefix, ".") {
		if seg == "" {
			return Pattern{}, fmt.Errorf("pattern %q: empty path segment", s)
		}
	}
	return p, nil
}

// MustPattern is ParsePattern for literals known to be valid.
func MustPattern(s string) Pattern {
	p, err := ParsePattern(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Match reports whether path matches p.
func (p Pattern) Match(path string) bool {
	if path == p.prefix {
		return true
	}
	return p.wildcard && strings.HasPrefix(path, p.prefix+".")
}

func (p Pattern) String() string { return p.raw }

// PatternSet matches when any member matches.
type PatternSet []Pattern

// Match reports whether any pattern matches path.
func (s PatternSet) Match(path string) bool {
	for _, p := range s {
		if p.Match(path) {
			return true
		}
	}
	return false
}

// Strings returns the patterns as written.
func (s PatternSet) Strings() []string {
	out := make([]string, len(s))
	for i, p := range s {
		out[i] = p.raw
	}
	return out
}

func parsePatterns(raw []string) (PatternSet, error) {
	set := make(PatternSet, 0, len(raw))
	for _, r := range raw {
		p, err := ParsePattern(r)
		if err != nil {
			return nil, err
		}
		set = append(set, p)
	}
	return set, nil
}

// ImportRule matches an edge "source -> target" by pattern on both ends.
type ImportRule struct {
	Source Pattern
	Target Pattern
}

// ParseImportRule parses "a.b -> c.d".
func ParseImportRule(s string) (ImportRule, error) {
	src, dst, ok := strings.Cut(s, "->")
	if !ok {
		return ImportRule{}, fmt.Errorf("import rule %q: expected \"source -> target\"", s)
	}
	sp, err := ParsePattern(src)
	if err != nil {
		return ImportRule{}, fmt.Errorf("import rule %q: %w", s, err)
	}
	tp, err := ParsePattern(dst)
	if err != nil {
		return ImportRule{}, fmt.Errorf("import rule %q: %w", s, err)
	}
	return ImportRule{Source: sp, Target: tp}, nil
}

// Match reports whether the edge source -> target is covered by r.
func (r ImportRule) Match(source, target string) bool {
	return r.Source.Match(source) && r.Target.Match(target)
}

func (r ImportRule) String() string {
	return r.Source.String() + " -> " + r.Target.String()
}

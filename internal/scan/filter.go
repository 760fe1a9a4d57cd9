package scan

// filter.go: include/exclude globs over slash-separated paths relative to
// the scan root.
//
// "prefix/**" matches the prefix directory itself and every path beneath it.
// "**" as a whole segment matches any number of segments, so "**/tests/**"
// excludes every tests directory. Other segments use path.Match semantics
// (a single * does not cross /).

import (
	"path"
	"strings"
)

// Filter decides which files count as modules under test.
type Filter struct {
	Include []string
	Exclude []string
}

// Allows reports whether the file at rel should be scanned.
func (f Filter) Allows(rel string) bool {
	if f.excluded(rel) {
		return false
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, p := range f.Include {
		if matchGlob(normalizeGlob(p), rel) {
			return true
		}
	}
	return false
}

// Prunes reports whether the directory at rel is excluded as a whole.
func (f Filter) Prunes(rel string) bool {
	return f.excluded(rel)
}

func (f Filter) excluded(rel string) bool {
	for _, p := range f.Exclude {
		if matchGlob(normalizeGlob(p), rel) {
			return true
		}
	}
	return false
}

// normalizeGlob strips a leading "./" the way deny rules are written by hand.
func normalizeGlob(p string) string {
	return strings.TrimPrefix(strings.TrimSpace(p), "./")
}

// matchGlob reports whether rel matches pattern.
func matchGlob(pattern, rel string) bool {
	return matchSegments(strings.Split(pattern, "/"), strings.Split(rel, "/"))
}

func matchSegments(pat, segs []string) bool {
	for len(pat) > 0 {
		if pat[0] == "**" {
			rest := pat[1:]
			// Trailing ** also matches the directory itself.
			if len(rest) == 0 {
				return true
			}
			for i := 0; i <= len(segs); i++ {
				if matchSegments(rest, segs[i:]) {
					return true
				}
			}
			return false
		}
		if len(segs) == 0 {
			return false
		}
		ok, err := path.Match(pat[0], segs[0])
		if err != nil || !ok {
			return false
		}
		pat, segs = pat[1:], segs[1:]
	}
	return len(segs) == 0
}

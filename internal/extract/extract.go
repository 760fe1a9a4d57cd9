// Package extract turns source files into the import references they declare.
//
// Each language plugs in through the Extractor interface; the scanner routes
// files to extractors by file extension through a Registry.
package extract

import (
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// Reference is one import found in a source file.
//
// Module is absolute and dotted: extractors resolve relative and aliased forms
// before returning. For "from m import a, b" style imports, Names holds the
// imported names so the scanner can tell submodules from attributes. An empty
// Module means the reference could not be made absolute; Raw keeps the source
// text for warnings.
type Reference struct {
	Module string   `json:"module"`
	Names  []string `json:"names,omitempty"`
	Line   int      `json:"line"`
	Raw    string   `json:"raw"`
}

// Extractor is the contract every language plugin implements.
type Extractor interface {
	// Language returns a short identifier ("go", "python").
	Language() string

	// Extensions lists handled file extensions including the leading dot.
	Extensions() []string

	// ModulePath maps a slash-separated path relative to the scan root to the
	// dotted module it defines. ok is false for files that define no
	// importable module (tests, scripts with invalid names).
	ModulePath(rel string) (module string, ok bool)

	// Extract returns the references declared by src. A non-nil error means
	// the file could not be parsed.
	Extract(rel string, src []byte) ([]Reference, error)
}

// Registry routes files to extractors by extension.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]Extractor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{extractors: make(map[string]Extractor)}
}

// Register adds ex for each of its extensions, replacing earlier entries.
func (r *Registry) Register(ex Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ext := range ex.Extensions() {
		r.extractors[normalizeExt(ext)] = ex
	}
}

// For returns the extractor for a file name, or nil.
func (r *Registry) For(name string) Extractor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.extractors[normalizeExt(path.Ext(name))]
}

// Languages returns the registered language identifiers, sorted.
func (r *Registry) Languages() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]bool)
	var langs []string
	for _, ex := range r.extractors {
		if !seen[ex.Language()] {
			seen[ex.Language()] = true
			langs = append(langs, ex.Language())
		}
	}
	sort.Strings(langs)
	return langs
}

// DefaultRegistry returns a registry with the Go and Python extractors.
func DefaultRegistry(root string) (*Registry, error) {
	goEx, err := NewGoExtractor(root)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}
	r := NewRegistry()
	r.Register(goEx)
	r.Register(NewPythonExtractor())
	return r, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// isIdentifier reports whether s is a valid module name segment.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

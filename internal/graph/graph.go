// Package graph holds the module import graph produced by a scan.
//
// A Graph is built once and then only read. Every accessor returns data in
// sorted order so that callers never depend on map iteration order.
package graph

import (
	"sort"
	"strings"
)

// Module is one importable unit of code, keyed by its dotted path.
type Module struct {
	Path    string `json:"path" yaml:"path"`
	Package string `json:"package" yaml:"package"`
	File    string `json:"file,omitempty" yaml:"file,omitempty"`
}

// Edge is a directed import from Source to Target.
type Edge struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// Graph is a set of modules plus a set of import edges between them.
type Graph struct {
	modules map[string]Module
	order   []string
	out     map[string][]string
	in      map[string][]string
	edges   int
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		modules: make(map[string]Module),
		out:     make(map[string][]string),
		in:      make(map[string][]string),
	}
}

// PackageOf returns the root package (first dotted segment) of path.
func PackageOf(path string) string {
	if i := strings.IndexByte(path, '.'); i >= 0 {
		return path[:i]
	}
	return path
}

// AddModule registers m. Adding a path twice keeps the first registration.
func (g *Graph) AddModule(m Module) {
	if _, ok := g.modules[m.Path]; ok {
		return
	}
	if m.Package == "" {
		m.Package = PackageOf(m.Path)
	}
	g.modules[m.Path] = m
	g.order = insertSorted(g.order, m.Path)
}

// AddEdge records source -> target. Both modules must already exist;
// self-imports and duplicates are dropped. It reports whether a new edge
// was added.
func (g *Graph) AddEdge(source, target string) bool {
	if source == target {
		return false
	}
	if _, ok := g.modules[source]; !ok {
		return false
	}
	if _, ok := g.modules[target]; !ok {
		return false
	}
	if contains(g.out[source], target) {
		return false
	}
	g.out[source] = insertSorted(g.out[source], target)
	g.in[target] = insertSorted(g.in[target], source)
	g.edges++
	return true
}

// Module looks up a module by path.
func (g *Graph) Module(path string) (Module, bool) {
	m, ok := g.modules[path]
	return m, ok
}

// Has reports whether path is a module of the graph.
func (g *Graph) Has(path string) bool {
	_, ok := g.modules[path]
	return ok
}

// Modules returns all modules sorted by path.
func (g *Graph) Modules() []Module {
	mods := make([]Module, len(g.order))
	for i, p := range g.order {
		mods[i] = g.modules[p]
	}
	return mods
}

// Paths returns all module paths in sorted order.
func (g *Graph) Paths() []string {
	return append([]string(nil), g.order...)
}

// Packages returns the distinct root packages, sorted.
func (g *Graph) Packages() []string {
	seen := make(map[string]bool)
	var pkgs []string
	for _, p := range g.order {
		pkg := g.modules[p].Package
		if !seen[pkg] {
			seen[pkg] = true
			pkgs = append(pkgs, pkg)
		}
	}
	sort.Strings(pkgs)
	return pkgs
}

// Imports returns the modules path imports directly, sorted.
func (g *Graph) Imports(path string) []string {
	return append([]string(nil), g.out[path]...)
}

// ImportedBy returns the modules importing path directly, sorted.
func (g *Graph) ImportedBy(path string) []string {
	return append([]string(nil), g.in[path]...)
}

// HasEdge reports whether source imports target directly.
func (g *Graph) HasEdge(source, target string) bool {
	return contains(g.out[source], target)
}

// Edges returns every edge sorted by source, then target.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.edges)
	for _, src := range g.order {
		for _, dst := range g.out[src] {
			edges = append(edges, Edge{Source: src, Target: dst})
		}
	}
	return edges
}

// Len returns the number of modules.
func (g *Graph) Len() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return g.edges }

// Equal reports whether g and other hold the same modules and edges.
func (g *Graph) Equal(other *Graph) bool {
	if g.Len() != other.Len() || g.EdgeCount() != other.EdgeCount() {
		return false
	}
	for i, p := range g.order {
		if other.order[i] != p || other.modules[p] != g.modules[p] {
			return false
		}
		a, b := g.out[p], other.out[p]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}

func insertSorted(s []string, v string) []string {
	i := sort.SearchStrings(s, v)
	if i < len(s) && s[i] == v {
		return s
	}
	s = append(s, "")
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func contains(sorted []string, v string) bool {
	i := sort.SearchStrings(sorted, v)
	return i < len(sorted) && sorted[i] == v
}

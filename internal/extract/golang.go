package extract

// golang.go: Go import extraction.
//
// Go modules are packages, i.e. directories. A package directory "a/b" inside
// a go.mod declaring "example.com/shop" becomes the dotted module "shop.a.b";
// imports of "example.com/shop/a/b" are rewritten into the same form. Imports
// outside the main module are dropped.
//
// When the scan root sits inside a module, each package directory is also
// loaded once through go/packages so that files excluded by build
// constraints contribute no imports. If loading fails the import block alone
// is used.

import (
	"errors"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/mod/modfile"
	"golang.org/x/sync/singleflight"
	"golang.org/x/tools/go/packages"
)

// GoExtractor extracts package imports from .go files.
type GoExtractor struct {
	modulePath string // from go.mod, e.g. "example.com/shop"
	base       string // dotted root package, e.g. "shop"
	prefix     string // scan root relative to the module directory, slash-separated
	root       string // absolute scan root; empty disables package loading

	loads singleflight.Group
	mu    sync.Mutex
	pkgs  map[string]*loadedPackage
}

// loadedPackage is what go/packages reports for one directory.
type loadedPackage struct {
	ignored map[string]bool // base names of files excluded from the build
}

// NewGoExtractor finds the go.mod governing root, looking in root and then
// its parents. Without one the root directory name is used and only
// relative-to-root import paths are recognised.
func NewGoExtractor(root string) (*GoExtractor, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("go: resolve root: %w", err)
	}
	modDir, data, err := findGoMod(abs)
	if err != nil {
		return nil, err
	}
	if modDir == "" {
		name := sanitizeSegment(filepath.Base(abs))
		return &GoExtractor{modulePath: name, base: name}, nil
	}
	mp := modfile.ModulePath(data)
	if mp == "" {
		return nil, fmt.Errorf("go: %s has no module directive", filepath.Join(modDir, "go.mod"))
	}
	rel, err := filepath.Rel(modDir, abs)
	if err != nil {
		return nil, fmt.Errorf("go: locate root in module: %w", err)
	}
	g := NewGoExtractorForModule(mp)
	if rel != "." {
		g.prefix = filepath.ToSlash(rel)
	}
	g.root = abs
	return g, nil
}

// findGoMod returns the nearest directory at or above dir holding a go.mod,
// or "" when there is none.
func findGoMod(dir string) (string, []byte, error) {
	for {
		data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
		if err == nil {
			return dir, data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return "", nil, fmt.Errorf("go: read go.mod: %w", err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// NewGoExtractorForModule builds an extractor for a known module path.
func NewGoExtractorForModule(modulePath string) *GoExtractor {
	return &GoExtractor{
		modulePath: modulePath,
		base:       sanitizeSegment(path.Base(modulePath)),
	}
}

func (g *GoExtractor) Language() string { return "go" }

func (g *GoExtractor) Extensions() []string { return []string{".go"} }

// ModulePath maps "internal/models/user.go" to "<base>.internal.models".
// Test files define no importable package.
func (g *GoExtractor) ModulePath(rel string) (string, bool) {
	if strings.HasSuffix(rel, "_test.go") {
		return "", false
	}
	dir := path.Join(g.prefix, path.Dir(rel))
	if dir == "." {
		return g.base, true
	}
	return g.dotted(dir), true
}

// Extract parses only the import block of src. A file its package leaves out
// of the build yields no references.
func (g *GoExtractor) Extract(rel string, src []byte) ([]Reference, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, rel, src, parser.ImportsOnly)
	if err != nil {
		return nil, fmt.Errorf("go: parse %s: %w", rel, err)
	}
	if pkg := g.loadPackage(path.Dir(rel)); pkg != nil && pkg.ignored[path.Base(rel)] {
		return nil, nil
	}

	var refs []Reference
	for _, spec := range file.Imports {
		ip, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			return nil, fmt.Errorf("go: %s: bad import path %s", rel, spec.Path.Value)
		}
		mod, ok := g.resolve(ip)
		if !ok {
			continue
		}
		refs = append(refs, Reference{
			Module: mod,
			Line:   fset.Position(spec.Pos()).Line,
			Raw:    ip,
		})
	}
	return refs, nil
}

// loadPackage loads the package in dir (relative to the scan root) once and
// caches the outcome. It returns nil when loading is disabled or fails.
func (g *GoExtractor) loadPackage(dir string) *loadedPackage {
	if g.root == "" {
		return nil
	}
	g.mu.Lock()
	pkg, ok := g.pkgs[dir]
	g.mu.Unlock()
	if ok {
		return pkg
	}

	v, _, _ := g.loads.Do(dir, func() (any, error) {
		pkg := loadPackageForDir(filepath.Join(g.root, filepath.FromSlash(dir)))
		g.mu.Lock()
		if g.pkgs == nil {
			g.pkgs = make(map[string]*loadedPackage)
		}
		g.pkgs[dir] = pkg
		g.mu.Unlock()
		return pkg, nil
	})
	return v.(*loadedPackage)
}

func loadPackageForDir(dir string) *loadedPackage {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedImports | packages.NeedFiles,
		Dir:  dir,
	}
	pkgs, err := packages.Load(cfg, ".")
	if err != nil || len(pkgs) == 0 {
		return nil
	}
	pkg := &loadedPackage{ignored: make(map[string]bool)}
	for _, p := range pkgs {
		for _, f := range p.IgnoredFiles {
			pkg.ignored[filepath.Base(f)] = true
		}
	}
	return pkg
}

// resolve rewrites an import path inside the main module to dotted form.
func (g *GoExtractor) resolve(importPath string) (string, bool) {
	if importPath == g.modulePath {
		return g.base, true
	}
	rest, ok := strings.CutPrefix(importPath, g.modulePath+"/")
	if !ok {
		return "", false
	}
	return g.dotted(rest), true
}

func (g *GoExtractor) dotted(dir string) string {
	parts := strings.Split(dir, "/")
	for i, p := range parts {
		parts[i] = sanitizeSegment(p)
	}
	return g.base + "." + strings.Join(parts, ".")
}

// sanitizeSegment keeps dots out of a single module segment.
func sanitizeSegment(s string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(s)
}

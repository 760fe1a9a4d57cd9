package scan

import (
	"layercheck/internal/extract"
	"layercheck/internal/graph"
)

// resolve maps ref to the scanned modules it imports.
//
// ok is false when ref points inside a scanned root package but names no
// scanned module; such references become warnings, never edges. References
// into packages that were not scanned are external and resolve to nothing
// with ok true.
func resolve(ref extract.Reference, g *graph.Graph, roots map[string]bool) (targets []string, ok bool) {
	if ref.Module == "" {
		return nil, false
	}
	if !roots[graph.PackageOf(ref.Module)] {
		return nil, true
	}

	if len(ref.Names) == 0 {
		if g.Has(ref.Module) {
			return []string{ref.Module}, true
		}
		return nil, false
	}

	// "from m import a, b": a and b may be submodules or attributes of m.
	needParent := false
	for _, name := range ref.Names {
		if name == "*" {
			needParent = true
			continue
		}
		if sub := ref.Module + "." + name; g.Has(sub) {
			targets = append(targets, sub)
			continue
		}
		needParent = true
	}
	if needParent {
		if !g.Has(ref.Module) {
			return targets, false
		}
		targets = append(targets, ref.Module)
	}
	return targets, true
}

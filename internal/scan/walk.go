package scan

// walk.go: source file collection.
//
// The walk is sequential and reads directories in name order, so the file
// list is identical across runs. Symlinked directories are followed only when
// asked. A link to one of its own ancestors is a cycle; a link to a directory
// walked elsewhere is a duplicate. Both are reported and skipped.

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"layercheck/internal/extract"
)

// sourceFile is one file selected for extraction.
type sourceFile struct {
	abs       string
	rel       string
	module    string
	extractor extract.Extractor
}

// skipDirs are never descended into.
var skipDirs = map[string]bool{
	"vendor":       true,
	"node_modules": true,
	"testdata":     true,
	"__pycache__":  true,
}

type walker struct {
	ctx      context.Context
	filter   Filter
	registry *extract.Registry
	follow   bool
	visited  map[string]bool // real paths of directories already walked
	active   map[string]bool // real paths of the directories being walked
	files    []sourceFile
	warnings []Warning
}

func (b *Builder) walk(ctx context.Context, root string) ([]sourceFile, []Warning, error) {
	real, err := filepath.EvalSymlinks(root)
	if err != nil {
		return nil, nil, err
	}
	w := &walker{
		ctx:      ctx,
		filter:   Filter{Include: b.opts.Include, Exclude: b.opts.Exclude},
		registry: b.registry,
		follow:   b.opts.FollowSymlinks,
		visited:  map[string]bool{real: true},
		active:   map[string]bool{real: true},
	}
	if err := w.dir(root, ""); err != nil {
		return nil, nil, err
	}
	return w.files, w.warnings, nil
}

func (w *walker) dir(abs, rel string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		if rel == "" {
			return err
		}
		w.warnings = append(w.warnings, Warning{Kind: WarnUnreadable, File: rel, Message: err.Error()})
		return nil
	}
	for _, e := range entries {
		name := e.Name()
		childAbs := filepath.Join(abs, name)
		childRel := path.Join(rel, name)

		typ := e.Type()
		if typ&fs.ModeSymlink != 0 {
			if !w.follow {
				continue
			}
			info, err := os.Stat(childAbs)
			if err != nil {
				w.warnings = append(w.warnings, Warning{Kind: WarnUnreadable, File: childRel, Message: err.Error()})
				continue
			}
			typ = info.Mode().Type()
			if info.IsDir() {
				real, err := filepath.EvalSymlinks(childAbs)
				if err != nil {
					w.warnings = append(w.warnings, Warning{Kind: WarnUnreadable, File: childRel, Message: err.Error()})
					continue
				}
				switch {
				case w.active[real]:
					w.warnings = append(w.warnings, Warning{
						Kind:    WarnSymlinkCycle,
						File:    childRel,
						Message: fmt.Sprintf("link to enclosing directory %s skipped", real),
					})
					continue
				case w.visited[real]:
					w.warnings = append(w.warnings, Warning{
						Kind:    WarnSymlinkDuplicate,
						File:    childRel,
						Message: fmt.Sprintf("link to already walked directory %s skipped", real),
					})
					continue
				}
			}
		}

		if typ.IsDir() {
			if skipDirs[name] || strings.HasPrefix(name, ".") || w.filter.Prunes(childRel) {
				continue
			}
			real, realErr := filepath.EvalSymlinks(childAbs)
			if realErr == nil {
				w.visited[real] = true
				w.active[real] = true
			}
			err := w.dir(childAbs, childRel)
			if realErr == nil {
				delete(w.active, real)
			}
			if err != nil {
				return err
			}
			continue
		}
		if !typ.IsRegular() {
			continue
		}

		ex := w.registry.For(name)
		if ex == nil || !w.filter.Allows(childRel) {
			continue
		}
		module, ok := ex.ModulePath(childRel)
		if !ok {
			continue
		}
		w.files = append(w.files, sourceFile{abs: childAbs, rel: childRel, module: module, extractor: ex})
	}
	return nil
}

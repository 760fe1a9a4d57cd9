// Package scan builds the module import graph of a source tree.
//
// Building runs in three steps: a sequential walk collects source files, the
// files are parsed in parallel into per-file reference lists, and the lists
// are merged and resolved in file order into a graph.Graph. Only the walk and
// the merge touch shared state, so the result is the same for any number of
// workers.
package scan

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"layercheck/internal/cache"
	"layercheck/internal/extract"
	"layercheck/internal/graph"
)

// Options configures a Builder.
type Options struct {
	Root           string
	Include        []string
	Exclude        []string
	Workers        int           // parse parallelism; <= 0 means runtime.NumCPU()
	Timeout        time.Duration // bound on the whole scan; 0 means none
	FollowSymlinks bool
}

// Result is the outcome of a successful build.
type Result struct {
	Graph    *graph.Graph
	Warnings []Warning
	Files    int
}

// Builder scans a tree into a graph.
type Builder struct {
	opts     Options
	registry *extract.Registry
	cache    *cache.Cache
	logger   *zap.Logger
}

// NewBuilder returns a Builder. A nil logger is replaced by a no-op one.
func NewBuilder(opts Options, registry *extract.Registry, logger *zap.Logger) *Builder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Builder{opts: opts, registry: registry, logger: logger}
}

// WithCache makes the builder reuse references for unchanged files.
func (b *Builder) WithCache(c *cache.Cache) *Builder {
	b.cache = c
	return b
}

// parsed is the per-file outcome of extraction.
type parsed struct {
	refs []extract.Reference
	err  error
}

// Build scans the tree. The only errors returned are *ScanError values.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	root := b.opts.Root
	info, err := os.Stat(root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	if !info.IsDir() {
		return nil, &ScanError{Root: root, Err: errors.New("not a directory")}
	}

	if b.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	files, warnings, err := b.walk(ctx, root)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}
	b.logger.Debug("walk complete", zap.String("root", root), zap.Int("files", len(files)))

	results, err := b.parseAll(ctx, files)
	if err != nil {
		return nil, &ScanError{Root: root, Err: err}
	}

	g := graph.New()
	for _, f := range files {
		g.AddModule(graph.Module{Path: f.module, File: f.rel})
	}
	warnings = append(warnings, b.link(g, files, results)...)

	b.logger.Debug("graph built",
		zap.Int("modules", g.Len()),
		zap.Int("edges", g.EdgeCount()),
		zap.Int("warnings", len(warnings)),
		zap.Duration("elapsed", time.Since(start)))

	return &Result{Graph: g, Warnings: warnings, Files: len(files)}, nil
}

// parseAll extracts every file with bounded parallelism. results[i] belongs
// to files[i].
func (b *Builder) parseAll(ctx context.Context, files []sourceFile) ([]parsed, error) {
	workers := b.opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	results := make([]parsed, len(files))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(workers)
	for i := range files {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			results[i] = b.parseFile(egCtx, files[i])
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (b *Builder) parseFile(ctx context.Context, f sourceFile) parsed {
	src, err := os.ReadFile(f.abs)
	if err != nil {
		return parsed{err: fmt.Errorf("read: %w", err)}
	}
	lang := f.extractor.Language()

	var hash string
	if b.cache != nil {
		hash = cache.Hash(src)
		refs, ok, err := b.cache.Lookup(ctx, f.rel, lang, hash)
		if err != nil {
			b.logger.Debug("cache lookup failed", zap.String("file", f.rel), zap.Error(err))
		} else if ok {
			return parsed{refs: refs}
		}
	}

	refs, err := f.extractor.Extract(f.rel, src)
	if err != nil {
		return parsed{err: err}
	}
	if b.cache != nil {
		if err := b.cache.Store(ctx, f.rel, lang, hash, refs); err != nil {
			b.logger.Debug("cache store failed", zap.String("file", f.rel), zap.Error(err))
		}
	}
	return parsed{refs: refs}
}

// link resolves every reference into edges, in file order.
func (b *Builder) link(g *graph.Graph, files []sourceFile, results []parsed) []Warning {
	roots := make(map[string]bool)
	for _, pkg := range g.Packages() {
		roots[pkg] = true
	}

	var warnings []Warning
	seen := make(map[string]bool)
	for i, f := range files {
		res := results[i]
		if res.err != nil {
			b.logger.Warn("skipping unparseable file", zap.String("file", f.rel), zap.Error(res.err))
			warnings = append(warnings, Warning{
				Kind:    WarnParse,
				Module:  f.module,
				File:    f.rel,
				Message: res.err.Error(),
			})
			continue
		}
		for _, ref := range res.refs {
			targets, ok := resolve(ref, g, roots)
			for _, t := range targets {
				g.AddEdge(f.module, t)
			}
			if ok {
				continue
			}
			key := f.module + "\x00" + ref.Raw
			if seen[key] {
				continue
			}
			seen[key] = true
			warnings = append(warnings, Warning{
				Kind:    WarnUnresolved,
				Module:  f.module,
				File:    f.rel,
				Line:    ref.Line,
				Message: unresolvedMessage(ref),
			})
		}
	}
	return warnings
}

func unresolvedMessage(ref extract.Reference) string {
	if ref.Module == "" {
		return fmt.Sprintf("cannot resolve %q to an absolute module", ref.Raw)
	}
	return fmt.Sprintf("%s is not a module under the scanned root", ref.Module)
}

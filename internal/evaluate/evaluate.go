// Package evaluate checks contracts against a built module graph.
//
// Contracts are independent of one another and the graph is read-only once
// built, so each contract runs in its own goroutine. A failure inside one
// contract is recorded on that contract's Result and never stops the others.
package evaluate

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"layercheck/internal/contract"
	"layercheck/internal/graph"
)

// Violation is one finding with the witness path that proves it.
type Violation struct {
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Path        []string `json:"path"`
	Explanation string   `json:"explanation"`

	// Set for layers contracts only.
	SourceLayer string `json:"source_layer,omitempty"`
	TargetLayer string `json:"target_layer,omitempty"`
}

// EvaluationError is a failure scoped to one contract.
type EvaluationError struct {
	Contract string
	Err      error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate: contract %q: %v", e.Contract, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// Result is the outcome of one contract.
type Result struct {
	Contract   contract.Contract
	Violations []Violation
	Warnings   []string
	Err        *EvaluationError
}

// Passed reports whether the contract holds.
func (r Result) Passed() bool {
	return r.Err == nil && len(r.Violations) == 0
}

// Evaluator runs contracts with bounded parallelism.
type Evaluator struct {
	logger  *zap.Logger
	workers int
}

// New returns an Evaluator. workers <= 0 means runtime.NumCPU().
func New(logger *zap.Logger, workers int) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Evaluator{logger: logger, workers: workers}
}

// Run evaluates every contract and returns results in the same order.
func (e *Evaluator) Run(ctx context.Context, g *graph.Graph, contracts []contract.Contract) []Result {
	results := make([]Result, len(contracts))
	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(e.workers)

	for i, c := range contracts {
		eg.Go(func() error {
			results[i] = e.runOne(ctx, g, c)
			return nil
		})
	}
	_ = eg.Wait()
	return results
}

func (e *Evaluator) runOne(ctx context.Context, g *graph.Graph, c contract.Contract) (res Result) {
	res.Contract = c
	defer func() {
		if r := recover(); r != nil {
			res.Violations, res.Warnings = nil, nil
			res.Err = &EvaluationError{Contract: c.Name(), Err: fmt.Errorf("panic: %v", r)}
			e.logger.Error("contract evaluation panicked", zap.String("contract", c.Name()), zap.Any("panic", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = &EvaluationError{Contract: c.Name(), Err: err}
		return res
	}

	switch c := c.(type) {
	case *contract.Forbidden:
		res.Violations = checkForbidden(g, c)
	case *contract.Layers:
		res.Violations, res.Warnings = checkLayers(g, c)
	default:
		res.Err = &EvaluationError{Contract: c.Name(), Err: fmt.Errorf("unsupported contract kind %q", c.Kind())}
		return res
	}

	e.logger.Debug("contract evaluated",
		zap.String("contract", c.Name()),
		zap.String("kind", string(c.Kind())),
		zap.Int("violations", len(res.Violations)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return res
}

// ---------------------------------------------------------------------------
// Forbidden
// ---------------------------------------------------------------------------

func checkForbidden(g *graph.Graph, c *contract.Forbidden) []Violation {
	var skip graph.EdgeFilter
	if len(c.Ignore) > 0 {
		skip = c.Ignored
	}
	var out []Violation
	for _, src := range g.Paths() {
		if !c.Sources.Match(src) {
			continue
		}
		for _, path := range g.Reach(src, c.Destinations.Match, skip) {
			dst := path[len(path)-1]
			out = append(out, Violation{
				Source:      src,
				Target:      dst,
				Path:        path,
				Explanation: forbiddenExplanation(path),
			})
		}
	}
	return out
}

func forbiddenExplanation(path []string) string {
	src, dst := path[0], path[len(path)-1]
	if len(path) == 2 {
		return fmt.Sprintf("%s imports %s directly", src, dst)
	}
	return fmt.Sprintf("%s imports %s indirectly via %d intermediate module(s)", src, dst, len(path)-2)
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

func checkLayers(g *graph.Graph, c *contract.Layers) ([]Violation, []string) {
	layers := make(map[string]contract.Layer, g.Len())
	var warnings []string
	for _, p := range g.Paths() {
		layer, amb := c.Classify(p)
		if amb != nil {
			warnings = append(warnings, amb.Error())
			continue
		}
		layers[p] = layer
	}

	var out []Violation
	for _, e := range g.Edges() {
		from, ok := layers[e.Source]
		if !ok {
			continue
		}
		to, ok := layers[e.Target]
		if !ok {
			continue
		}
		if from.Rank >= to.Rank {
			continue
		}
		out = append(out, Violation{
			Source:      e.Source,
			Target:      e.Target,
			Path:        []string{e.Source, e.Target},
			SourceLayer: from.Name,
			TargetLayer: to.Name,
			Explanation: fmt.Sprintf("%s (layer %s) imports %s from higher layer %s", e.Source, from.Name, e.Target, to.Name),
		})
	}
	return out, warnings
}

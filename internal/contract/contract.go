// Package contract loads and validates import contracts.
//
// Two contract kinds exist. A forbidden contract says no module matching its
// source patterns may reach, directly or transitively, a module matching its
// destination patterns. A layers contract orders layer patterns so that a
// lower layer never imports a higher one.
package contract

import (
	"fmt"
	"strings"
)

// Kind tags a contract variant.
type Kind string

const (
	KindForbidden Kind = "forbidden"
	KindLayers    Kind = "layers"
)

// Contract is implemented by *Forbidden and *Layers.
type Contract interface {
	Name() string
	Kind() Kind
}

// ---------------------------------------------------------------------------
// Forbidden
// ---------------------------------------------------------------------------

// Forbidden forbids any path from Sources to Destinations.
type Forbidden struct {
	name         string
	Sources      PatternSet
	Destinations PatternSet
	Ignore       []ImportRule
}

// NewForbidden builds a forbidden contract from already parsed patterns.
func NewForbidden(name string, sources, destinations PatternSet, ignore ...ImportRule) *Forbidden {
	return &Forbidden{name: name, Sources: sources, Destinations: destinations, Ignore: ignore}
}

func (f *Forbidden) Name() string { return f.name }
func (f *Forbidden) Kind() Kind { return KindForbidden }

// Ignored reports whether the edge is excluded from this contract.
func (f *Forbidden) Ignored(source, target string) bool {
	for _, r := range f.Ignore {
		if r.Match(source, target) {
			return true
		}
	}
	return false
}

// ---------------------------------------------------------------------------
// Layers
// ---------------------------------------------------------------------------

// Order is how layers are listed in configuration.
type Order string

const (
	HighToLow Order = "high_to_low"
	LowToHigh Order = "low_to_high"
)

// Layer is one tier of a layers contract. Rank 0 is the lowest layer.
type Layer struct {
	Name    string
	Pattern Pattern
	Rank    int
}

// Layers orders layers from lowest (Rank 0) to highest.
type Layers struct {
	name   string
	Layers []Layer
}

// NewLayers builds a layers contract from patterns listed in order.
func NewLayers(name string, order Order, patterns PatternSet) *Layers {
	layers := make([]Layer, len(patterns))
	for i, p := range patterns {
		rank := i
		if order != LowToHigh {
			rank = len(patterns) - 1 - i
		}
		layers[rank] = Layer{Name: p.String(), Pattern: p, Rank: rank}
	}
	return &Layers{name: name, Layers: layers}
}

func (l *Layers) Name() string { return l.name }
func (l *Layers) Kind() Kind { return KindLayers }

// LayerAmbiguity is a module that matches no layer or more than one.
// Such a module is left out of this contract's evaluation.
type LayerAmbiguity struct {
	Module  string
	Matches []string
}

func (a LayerAmbiguity) Error() string {
	if len(a.Matches) == 0 {
		return fmt.Sprintf("module %s matches no layer", a.Module)
	}
	return fmt.Sprintf("module %s matches several layers: %s", a.Module, strings.Join(a.Matches, ", "))
}

// Classify returns the single layer path belongs to.
func (l *Layers) Classify(path string) (Layer, *LayerAmbiguity) {
	var hits []Layer
	for _, layer := range l.Layers {
		if layer.Pattern.Match(path) {
			hits = append(hits, layer)
		}
	}
	if len(hits) == 1 {
		return hits[0], nil
	}
	amb := &LayerAmbiguity{Module: path}
	for _, h := range hits {
		amb.Matches = append(amb.Matches, h.Name)
	}
	return Layer{}, amb
}

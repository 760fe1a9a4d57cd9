// Package report turns evaluation results into a single Report value and
// renders it as text or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"

	"layercheck/internal/evaluate"
	"layercheck/internal/scan"
)

// Status is the aggregate or per-contract outcome.
type Status string

const (
	StatusPass  Status = "pass"
	StatusFail  Status = "fail"
	StatusError Status = "error" // per contract only
)

// ContractReport is the outcome of one contract.
type ContractReport struct {
	Name       string               `json:"name"`
	Type       string               `json:"type"`
	Status     Status               `json:"status"`
	Violations []evaluate.Violation `json:"violations"`
	Warnings   []string             `json:"warnings"`
	Error      string               `json:"error,omitempty"`
}

// Stats summarises the scanned tree.
type Stats struct {
	Modules int `json:"modules"`
	Edges   int `json:"edges"`
	Files   int `json:"files"`
}

// Report is the one source both renderers read from.
type Report struct {
	Status    Status           `json:"status"`
	Contracts []ContractReport `json:"contracts"`
	Warnings  []string         `json:"warnings"`
	Stats     Stats            `json:"stats"`
}

// Build assembles a report. Contracts keep the order of results.
// Status is pass only when no contract has a violation or an error.
func Build(sr *scan.Result, results []evaluate.Result) *Report {
	r := &Report{
		Status:    StatusPass,
		Contracts: make([]ContractReport, 0, len(results)),
		Warnings:  make([]string, 0, len(sr.Warnings)),
		Stats: Stats{
			Modules: sr.Graph.Len(),
			Edges:   sr.Graph.EdgeCount(),
			Files:   sr.Files,
		},
	}
	for _, w := range sr.Warnings {
		r.Warnings = append(r.Warnings, w.String())
	}

	for _, res := range results {
		cr := ContractReport{
			Name:       res.Contract.Name(),
			Type:       string(res.Contract.Kind()),
			Status:     StatusPass,
			Violations: res.Violations,
			Warnings:   res.Warnings,
		}
		if cr.Violations == nil {
			cr.Violations = []evaluate.Violation{}
		}
		if cr.Warnings == nil {
			cr.Warnings = []string{}
		}
		switch {
		case res.Err != nil:
			cr.Status = StatusError
			cr.Error = res.Err.Error()
			r.Status = StatusFail
		case len(res.Violations) > 0:
			cr.Status = StatusFail
			r.Status = StatusFail
		}
		r.Contracts = append(r.Contracts, cr)
	}
	return r
}

// ExitCode maps the aggregate status to a process exit code.
func (r *Report) ExitCode() int {
	if r.Status == StatusPass {
		return 0
	}
	return 1
}

// Violations counts violations across all contracts.
func (r *Report) Violations() int {
	n := 0
	for _, c := range r.Contracts {
		n += len(c.Violations)
	}
	return n
}

// WriteJSON writes r as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("report: encode json: %w", err)
	}
	return nil
}

package report_test

// report_test.go: tests for report assembly and both renderers.

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"layercheck/internal/contract"
	"layercheck/internal/evaluate"
	"layercheck/internal/graph"
	"layercheck/internal/report"
	"layercheck/internal/scan"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func scanResult() *scan.Result {
	g := graph.New()
	for _, p := range []string{"app.models.user", "app.adapters.repo", "app.services.signup"} {
		g.AddModule(graph.Module{Path: p})
	}
	g.AddEdge("app.adapters.repo", "app.models.user")
	g.AddEdge("app.models.user", "app.adapters.repo")
	g.AddEdge("app.services.signup", "app.adapters.repo")
	return &scan.Result{
		Graph: g,
		Files: 3,
		Warnings: []scan.Warning{
			{Kind: scan.WarnUnresolved, Module: "app.services.signup", File: "app/services/signup.py", Line: 2, Message: "cannot resolve app.gone"},
		},
	}
}

func forbidden(name string) contract.Contract {
	return contract.NewForbidden(name,
		contract.PatternSet{contract.MustPattern("app.models.*")},
		contract.PatternSet{contract.MustPattern("app.adapters.*")})
}

func passing() []evaluate.Result {
	return []evaluate.Result{{Contract: forbidden("clean")}}
}

func failing() []evaluate.Result {
	return []evaluate.Result{
		{Contract: forbidden("clean")},
		{
			Contract: forbidden("models are independent"),
			Violations: []evaluate.Violation{{
				Source:      "app.models.user",
				Target:      "app.adapters.repo",
				Path:        []string{"app.models.user", "app.adapters.repo"},
				Explanation: "app.models.user imports app.adapters.repo directly",
			}},
		},
	}
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuildPass(t *testing.T) {
	r := report.Build(scanResult(), passing())
	assert.Equal(t, report.StatusPass, r.Status)
	assert.Equal(t, 0, r.ExitCode())
	assert.Equal(t, report.Stats{Modules: 3, Edges: 3, Files: 3}, r.Stats)
	require.Len(t, r.Warnings, 1, "warnings are reported but do not fail the run")
	assert.Contains(t, r.Warnings[0], "app/services/signup.py:2")
}

func TestBuildFailKeepsDeclarationOrder(t *testing.T) {
	r := report.Build(scanResult(), failing())
	assert.Equal(t, report.StatusFail, r.Status)
	assert.Equal(t, 1, r.ExitCode())
	assert.Equal(t, 1, r.Violations())
	require.Len(t, r.Contracts, 2)
	assert.Equal(t, "clean", r.Contracts[0].Name)
	assert.Equal(t, report.StatusPass, r.Contracts[0].Status)
	assert.Equal(t, report.StatusFail, r.Contracts[1].Status)
}

func TestEvaluationErrorFailsRun(t *testing.T) {
	results := []evaluate.Result{{
		Contract: forbidden("broken"),
		Err:      &evaluate.EvaluationError{Contract: "broken", Err: errors.New("boom")},
	}}
	r := report.Build(scanResult(), results)
	assert.Equal(t, report.StatusFail, r.Status)
	assert.Equal(t, report.StatusError, r.Contracts[0].Status)
	assert.Contains(t, r.Contracts[0].Error, "boom")
}

// ---------------------------------------------------------------------------
// Renderers
// ---------------------------------------------------------------------------

func TestWriteJSONSchema(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, report.Build(scanResult(), failing())))

	var doc struct {
		Status    string `json:"status"`
		Contracts []struct {
			Name       string `json:"name"`
			Type       string `json:"type"`
			Status     string `json:"status"`
			Violations []struct {
				Source      string   `json:"source"`
				Target      string   `json:"target"`
				Path        []string `json:"path"`
				Explanation string   `json:"explanation"`
			} `json:"violations"`
			Warnings []string `json:"warnings"`
		} `json:"contracts"`
		Warnings []string       `json:"warnings"`
		Stats    map[string]int `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "fail", doc.Status)
	require.Len(t, doc.Contracts, 2)
	assert.Equal(t, "forbidden", doc.Contracts[1].Type)
	assert.Equal(t, []string{"app.models.user", "app.adapters.repo"}, doc.Contracts[1].Violations[0].Path)
	assert.Equal(t, 3, doc.Stats["modules"])

	// Empty lists are arrays, not null.
	assert.Contains(t, buf.String(), `"violations": []`)
	assert.NotContains(t, buf.String(), "null")
}

func TestWriteJSONLayerNames(t *testing.T) {
	lc := contract.NewLayers("layered", contract.HighToLow, contract.PatternSet{
		contract.MustPattern("app.adapters.*"),
		contract.MustPattern("app.models.*"),
	})
	results := append(failing(), evaluate.Result{
		Contract: lc,
		Violations: []evaluate.Violation{{
			Source:      "app.models.user",
			Target:      "app.adapters.repo",
			Path:        []string{"app.models.user", "app.adapters.repo"},
			Explanation: "app.models.user (layer app.models.*) imports app.adapters.repo from higher layer app.adapters.*",
			SourceLayer: "app.models.*",
			TargetLayer: "app.adapters.*",
		}},
	})

	var buf bytes.Buffer
	require.NoError(t, report.WriteJSON(&buf, report.Build(scanResult(), results)))

	var doc struct {
		Contracts []struct {
			Violations []map[string]any `json:"violations"`
		} `json:"contracts"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Contracts, 3)

	forbiddenV := doc.Contracts[1].Violations[0]
	assert.NotContains(t, forbiddenV, "source_layer")
	assert.NotContains(t, forbiddenV, "target_layer")

	layersV := doc.Contracts[2].Violations[0]
	assert.Equal(t, "app.models.*", layersV["source_layer"])
	assert.Equal(t, "app.adapters.*", layersV["target_layer"])
}

func TestWriteText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteText(&buf, report.Build(scanResult(), failing())))
	out := buf.String()

	lines := strings.Split(out, "\n")
	assert.True(t, strings.HasPrefix(lines[0], "PASS"), "got %q", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "FAIL"), "got %q", lines[1])
	assert.Contains(t, out, "app.models.user -> app.adapters.repo\n")
	assert.Contains(t, out, "1 warning(s)")
	assert.Contains(t, out, "Result: FAIL")
	assert.NotContains(t, out, "\x1b[", "no escape codes when not writing to a terminal")
}

func TestTextAndJSONAgree(t *testing.T) {
	r := report.Build(scanResult(), passing())
	var text, js bytes.Buffer
	require.NoError(t, report.WriteText(&text, r))
	require.NoError(t, report.WriteJSON(&js, r))
	assert.Contains(t, text.String(), "Result: PASS")
	assert.Contains(t, js.String(), `"status": "pass"`)
}

// ---------------------------------------------------------------------------
// Graph export
// ---------------------------------------------------------------------------

func TestWriteGraphMermaid(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteGraph(&buf, scanResult().Graph, report.FormatMermaid))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "graph LR\n"))
	// Modules are numbered in sorted order.
	assert.Contains(t, out, `m0["app.adapters.repo"]`)
	assert.Contains(t, out, "m1 --> m0")
	assert.Contains(t, out, "%% cycle: app.adapters.repo -> app.models.user -> app.adapters.repo")
	assert.Contains(t, out, "%% hub: app.adapters.repo (2 importers)")
}

func TestWriteGraphDOT(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteGraph(&buf, scanResult().Graph, report.FormatDOT))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "digraph modules {"))
	assert.Contains(t, out, `"app.services.signup" -> "app.adapters.repo";`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

func TestWriteGraphJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.WriteGraph(&buf, graph.New(), report.FormatJSON))

	var ex report.GraphExport
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ex))
	assert.Empty(t, ex.Modules)
	assert.NotContains(t, buf.String(), "null")
}

func TestWriteGraphUnknownFormat(t *testing.T) {
	err := report.WriteGraph(&bytes.Buffer{}, graph.New(), "svg")
	assert.ErrorContains(t, err, "unknown graph format")
}

package report

// graph.go: module graph export: Mermaid, Graphviz DOT, or JSON, each with
// the import cycles found in the graph and the most imported modules.

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"layercheck/internal/graph"
)

// Graph export formats.
const (
	FormatMermaid = "mermaid"
	FormatDOT     = "dot"
	FormatJSON    = "json"
)

// GraphFormats lists the accepted export formats.
var GraphFormats = []string{FormatMermaid, FormatDOT, FormatJSON}

// GraphExport is the JSON form of a module graph.
type GraphExport struct {
	Modules []graph.Module `json:"modules"`
	Edges   []graph.Edge   `json:"edges"`
	Cycles  [][]string     `json:"cycles"`
	Hubs    []Hub          `json:"hubs"`
}

// Hub is a module with its number of importers.
type Hub struct {
	Module    string `json:"module"`
	Importers int    `json:"importers"`
}

// NewGraphExport collects everything WriteGraph prints.
func NewGraphExport(g *graph.Graph) *GraphExport {
	out := &GraphExport{
		Modules: g.Modules(),
		Edges:   g.Edges(),
		Cycles:  g.Cycles(),
		Hubs:    topImported(g, 10),
	}
	if out.Edges == nil {
		out.Edges = []graph.Edge{}
	}
	if out.Cycles == nil {
		out.Cycles = [][]string{}
	}
	return out
}

// WriteGraph renders g in the given format.
func WriteGraph(w io.Writer, g *graph.Graph, format string) error {
	ex := NewGraphExport(g)
	var b strings.Builder
	switch format {
	case FormatMermaid, "":
		writeMermaid(&b, ex)
	case FormatDOT:
		writeDOT(&b, ex)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(ex); err != nil {
			return fmt.Errorf("report: encode graph: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("report: unknown graph format %q (want one of %s)", format, strings.Join(GraphFormats, ", "))
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("report: write graph: %w", err)
	}
	return nil
}

func writeMermaid(b *strings.Builder, ex *GraphExport) {
	ids := nodeIDs(ex.Modules)
	b.WriteString("graph LR\n")
	for _, m := range ex.Modules {
		fmt.Fprintf(b, "  %s[\"%s\"]\n", ids[m.Path], m.Path)
	}
	for _, e := range ex.Edges {
		fmt.Fprintf(b, "  %s --> %s\n", ids[e.Source], ids[e.Target])
	}
	for _, c := range ex.Cycles {
		fmt.Fprintf(b, "%%%% cycle: %s\n", graph.FormatPath(c))
	}
	for _, h := range ex.Hubs {
		fmt.Fprintf(b, "%%%% hub: %s (%d importers)\n", h.Module, h.Importers)
	}
}

func writeDOT(b *strings.Builder, ex *GraphExport) {
	b.WriteString("digraph modules {\n  rankdir=LR;\n")
	for _, m := range ex.Modules {
		fmt.Fprintf(b, "  %q;\n", m.Path)
	}
	for _, e := range ex.Edges {
		fmt.Fprintf(b, "  %q -> %q;\n", e.Source, e.Target)
	}
	for _, c := range ex.Cycles {
		fmt.Fprintf(b, "  // cycle: %s\n", graph.FormatPath(c))
	}
	for _, h := range ex.Hubs {
		fmt.Fprintf(b, "  // hub: %s (%d importers)\n", h.Module, h.Importers)
	}
	b.WriteString("}\n")
}

// nodeIDs assigns stable Mermaid identifiers; dotted paths are not valid ids.
func nodeIDs(mods []graph.Module) map[string]string {
	ids := make(map[string]string, len(mods))
	for i, m := range mods {
		ids[m.Path] = fmt.Sprintf("m%d", i)
	}
	return ids
}

// topImported returns up to n modules with the most importers, highest first,
// ties broken by name.
func topImported(g *graph.Graph, n int) []Hub {
	var hubs []Hub
	for _, p := range g.Paths() {
		if k := len(g.ImportedBy(p)); k > 0 {
			hubs = append(hubs, Hub{Module: p, Importers: k})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool {
		return hubs[i].Importers > hubs[j].Importers
	})
	if len(hubs) > n {
		hubs = hubs[:n]
	}
	if hubs == nil {
		hubs = []Hub{}
	}
	return hubs
}

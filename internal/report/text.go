package report

// text.go: human-readable report.
//
// Styles come from a lipgloss renderer bound to the output writer, so color
// is dropped automatically when the writer is not a terminal.

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"layercheck/internal/graph"
)

type styles struct {
	pass, fail, errored, name, path, dim lipgloss.Style
}

func newStyles(w io.Writer) styles {
	re := lipgloss.NewRenderer(w)
	return styles{
		pass:    re.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		fail:    re.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
		errored: re.NewStyle().Bold(true).Foreground(lipgloss.Color("3")),
		name:    re.NewStyle().Bold(true),
		path:    re.NewStyle().Foreground(lipgloss.Color("6")),
		dim:     re.NewStyle().Faint(true),
	}
}

func (s styles) status(st Status) string {
	switch st {
	case StatusPass:
		return s.pass.Render("PASS ")
	case StatusFail:
		return s.fail.Render("FAIL ")
	default:
		return s.errored.Render("ERROR")
	}
}

// WriteText writes r for a terminal: one block per contract with every
// witness path on its own line, then scan warnings and a summary.
func WriteText(w io.Writer, r *Report) error {
	s := newStyles(w)
	var b strings.Builder

	for _, c := range r.Contracts {
		fmt.Fprintf(&b, "%s %s %s\n", s.status(c.Status), s.name.Render(c.Name), s.dim.Render("("+c.Type+")"))
		if c.Error != "" {
			fmt.Fprintf(&b, "      %s\n", c.Error)
		}
		for _, v := range c.Violations {
			fmt.Fprintf(&b, "      %s\n", s.path.Render(graph.FormatPath(v.Path)))
			fmt.Fprintf(&b, "        %s\n", s.dim.Render(v.Explanation))
		}
		for _, warn := range c.Warnings {
			fmt.Fprintf(&b, "      warning: %s\n", warn)
		}
	}

	if len(r.Warnings) > 0 {
		fmt.Fprintf(&b, "\n%d warning(s):\n", len(r.Warnings))
		for _, warn := range r.Warnings {
			fmt.Fprintf(&b, "  %s\n", warn)
		}
	}

	kept, broken, errored := 0, 0, 0
	for _, c := range r.Contracts {
		switch c.Status {
		case StatusPass:
			kept++
		case StatusFail:
			broken++
		default:
			errored++
		}
	}
	fmt.Fprintf(&b, "\nContracts: %d kept, %d broken, %d errored. Modules: %d, imports: %d, files: %d.\n",
		kept, broken, errored, r.Stats.Modules, r.Stats.Edges, r.Stats.Files)

	overall := s.pass.Render("PASS")
	if r.Status != StatusPass {
		overall = s.fail.Render("FAIL")
	}
	fmt.Fprintf(&b, "Result: %s\n", overall)

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("report: write text: %w", err)
	}
	return nil
}

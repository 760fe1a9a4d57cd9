package scan

import "fmt"

// ScanError is fatal: the root cannot be read or the scan did not finish.
type ScanError struct {
	Root string
	Err  error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Root, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// Warning kinds. None of them fail a run.
const (
	WarnParse            = "parse-error"
	WarnUnresolved       = "unresolved-import"
	WarnSymlinkCycle     = "symlink-cycle"
	WarnSymlinkDuplicate = "symlink-duplicate"
	WarnUnreadable       = "unreadable-file"
)

// Warning is a non-fatal problem found while building the graph.
type Warning struct {
	Kind    string `json:"kind"`
	Module  string `json:"module,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	loc := w.File
	if loc != "" && w.Line > 0 {
		loc = fmt.Sprintf("%s:%d", w.File, w.Line)
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s: %s: %s", w.Kind, loc, w.Message)
}

package extract

// python.go: Python import extraction with tree-sitter.
//
// Module naming follows the interpreter: "pkg/mod.py" is "pkg.mod" and
// "pkg/__init__.py" is "pkg". Relative imports are made absolute against the
// importing module's package.

import (
	"context"
	"fmt"
	"path"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// PythonExtractor extracts imports from .py files.
type PythonExtractor struct{}

// NewPythonExtractor returns a Python extractor. Parsers are created per
// call because a tree-sitter parser must not be shared between goroutines.
func NewPythonExtractor() *PythonExtractor { return &PythonExtractor{} }

func (p *PythonExtractor) Language() string { return "python" }

func (p *PythonExtractor) Extensions() []string { return []string{".py"} }

func (p *PythonExtractor) ModulePath(rel string) (string, bool) {
	trimmed := strings.TrimSuffix(rel, ".py")
	parts := strings.Split(trimmed, "/")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) == 0 {
		return "", false
	}
	for _, seg := range parts {
		if !isIdentifier(seg) {
			return "", false
		}
	}
	return strings.Join(parts, "."), true
}

// Extract walks the syntax tree of src. Imports nested in functions or
// conditional blocks count the same as top-level ones. A tree containing
// syntax errors is rejected as a whole.
func (p *PythonExtractor) Extract(rel string, src []byte) ([]Reference, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(python.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil {
		return nil, fmt.Errorf("python: parse %s: %w", rel, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		line := firstErrorLine(root)
		return nil, fmt.Errorf("python: %s:%d: syntax error", rel, line)
	}

	pkg := p.packageOf(rel)
	var refs []Reference
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "import_statement":
			refs = append(refs, importRefs(n, src)...)
			return
		case "import_from_statement":
			refs = append(refs, fromImportRef(n, src, pkg))
			return
		case "future_import_statement":
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(root)
	return refs, nil
}

// packageOf returns the dotted package a file's relative imports resolve
// against: the module itself for __init__.py, its parent otherwise.
func (p *PythonExtractor) packageOf(rel string) []string {
	dir := path.Dir(rel)
	if dir == "." {
		return nil
	}
	return strings.Split(dir, "/")
}

// importRefs handles "import a.b, c as d".
func importRefs(n *sitter.Node, src []byte) []Reference {
	var refs []Reference
	line := int(n.StartPoint().Row) + 1
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		name := dottedName(child, src)
		if name == "" {
			continue
		}
		refs = append(refs, Reference{Module: name, Line: line, Raw: n.Content(src)})
	}
	return refs
}

// fromImportRef handles "from X import a, b" including relative forms.
func fromImportRef(n *sitter.Node, src []byte, pkg []string) Reference {
	ref := Reference{Line: int(n.StartPoint().Row) + 1, Raw: n.Content(src)}

	modNode := n.ChildByFieldName("module_name")
	if modNode == nil {
		return ref
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		child := n.NamedChild(i)
		if sameNode(child, modNode) {
			continue
		}
		switch child.Type() {
		case "wildcard_import":
			ref.Names = append(ref.Names, "*")
		default:
			if name := dottedName(child, src); name != "" {
				ref.Names = append(ref.Names, name)
			}
		}
	}

	if modNode.Type() != "relative_import" {
		ref.Module = modNode.Content(src)
		return ref
	}

	level := 0
	var rest string
	for i := 0; i < int(modNode.NamedChildCount()); i++ {
		child := modNode.NamedChild(i)
		switch child.Type() {
		case "import_prefix":
			level = strings.Count(child.Content(src), ".")
		case "dotted_name":
			rest = child.Content(src)
		}
	}
	// One dot is the current package; each further dot climbs one level.
	if level < 1 || level-1 >= len(pkg) {
		return ref
	}
	base := pkg[:len(pkg)-(level-1)]
	parts := append([]string(nil), base...)
	if rest != "" {
		parts = append(parts, rest)
	}
	if len(parts) == 0 {
		return ref
	}
	ref.Module = strings.Join(parts, ".")
	return ref
}

// dottedName returns the imported name of a dotted_name or aliased_import.
func dottedName(n *sitter.Node, src []byte) string {
	switch n.Type() {
	case "dotted_name":
		return n.Content(src)
	case "aliased_import":
		if name := n.ChildByFieldName("name"); name != nil {
			return name.Content(src)
		}
	}
	return ""
}

func sameNode(a, b *sitter.Node) bool {
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() {
			return firstErrorLine(child)
		}
	}
	return int(n.StartPoint().Row) + 1
}

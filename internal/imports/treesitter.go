//go:build cgo

package imports

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// TreeSitterJava extracts Java imports from a tree-sitter syntax tree.
// Files that fail to parse cleanly are handed to the lexical extractor.
type TreeSitterJava struct {
	lang     *sitter.Language
	fallback JavaExtractor
}

// NewTreeSitterJava creates a syntax-tree Java extractor.
func NewTreeSitterJava() Extractor {
	return &TreeSitterJava{lang: java.GetLanguage()}
}

// Available reports whether syntax-tree extraction is compiled in.
func Available() bool {
	return true
}

// Extract implements Extractor. A parser is created per call so one
// extractor can serve concurrent workers.
func (t *TreeSitterJava) Extract(src []byte) []Reference {
	parser := sitter.NewParser()
	parser.SetLanguage(t.lang)

	tree, err := parser.ParseCtx(context.Background(), nil, src)
	if err != nil || tree == nil {
		return t.fallback.Extract(src)
	}
	root := tree.RootNode()
	if root.HasError() {
		return t.fallback.Extract(src)
	}

	var refs []Reference
	// Imports are direct children of the compilation unit.
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		if node.Type() != "import_declaration" {
			continue
		}
		if ref, ok := importFromNode(node, src); ok {
			refs = append(refs, ref)
		}
	}
	return refs
}

func importFromNode(node *sitter.Node, src []byte) (Reference, bool) {
	ref := Reference{Line: int(node.StartPoint().Row) + 1}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		switch child.Type() {
		case "static":
			ref.Static = true
		case "scoped_identifier", "identifier":
			ref.Name = strings.Join(strings.Fields(child.Content(src)), "")
		case "asterisk":
			ref.Wildcard = true
		}
	}
	return ref, ref.Name != ""
}

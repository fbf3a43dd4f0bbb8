// Package lang resolves language-specific structure over tree-sitter
// trees: which declaration owns an offset, where its signature and
// name live, where the file's import section is, and whether the
// declaration is syntactically broken.
//
// Providers are registered per language id and selected by the
// buffer's language at runtime.
package lang

import (
	sitter "github.com/smacker/go-tree-sitter"

	"sigtrack/internal/text"
)

// Declaration is a named declaration node in a parsed tree.
type Declaration struct {
	Node     *sitter.Node
	Language string
}

// Name returns the declaration's identifier text, if any.
func (d Declaration) Name(src []byte) string {
	name := d.Node.ChildByFieldName("name")
	if name == nil {
		return ""
	}
	return name.Content(src)
}

// Provider answers structural questions for one language.
type Provider interface {
	// ID is the language identifier the provider is registered under.
	ID() string
	// Sitter returns the tree-sitter grammar for the language.
	Sitter() *sitter.Language
	// DeclarationAt resolves the innermost declaration owning the
	// given byte offset.
	DeclarationAt(tree *sitter.Tree, src []byte, off uint32) (Declaration, bool)
	// SignatureRange is the declaration's span excluding its body.
	SignatureRange(decl Declaration, src []byte) (text.Range, bool)
	// NameRange is the span of the declaration's identifier.
	NameRange(decl Declaration, src []byte) (text.Range, bool)
	// ImportSectionRange is the span of the file's import section, if
	// the file has one.
	ImportSectionRange(tree *sitter.Tree, src []byte) (text.Range, bool)
	// HasSyntaxError reports whether the declaration subtree contains
	// a parse error.
	HasSyntaxError(decl Declaration) bool
}

var registry = map[string]Provider{}

// Register makes a provider available under its ID. Later
// registrations win, which lets tests install fakes.
func Register(p Provider) {
	registry[p.ID()] = p
}

// For returns the provider for a language id.
func For(id string) (Provider, bool) {
	p, ok := registry[id]
	return p, ok
}

// nodeRange converts a tree-sitter node span to a text range.
func nodeRange(node *sitter.Node) text.Range {
	return text.Range{Start: node.StartByte(), End: node.EndByte()}
}

// declarationAt finds the innermost ancestor of the node at off whose
// type is listed in declTypes.
func declarationAt(tree *sitter.Tree, src []byte, off uint32, declTypes map[string]bool) (*sitter.Node, bool) {
	root := tree.RootNode()
	if off > root.EndByte() {
		return nil, false
	}
	point := pointAt(src, off)
	node := root.NamedDescendantForPointRange(point, point)
	for node != nil {
		if declTypes[node.Type()] {
			return node, true
		}
		node = node.Parent()
	}
	return nil, false
}

// pointAt converts a byte offset into a row/column point.
func pointAt(src []byte, off uint32) sitter.Point {
	if off > uint32(len(src)) {
		off = uint32(len(src))
	}
	var point sitter.Point
	for i := uint32(0); i < off; i++ {
		if src[i] == '\n' {
			point.Row++
			point.Column = 0
		} else {
			point.Column++
		}
	}
	return point
}

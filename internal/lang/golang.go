package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"

	"sigtrack/internal/text"
)

func init() {
	Register(&goProvider{})
}

// goProvider implements Provider for Go sources.
type goProvider struct{}

var goDeclTypes = map[string]bool{
	"function_declaration": true,
	"method_declaration":   true,
}

func (*goProvider) ID() string {
	return "go"
}

func (*goProvider) Sitter() *sitter.Language {
	return golang.GetLanguage()
}

func (p *goProvider) DeclarationAt(tree *sitter.Tree, src []byte, off uint32) (Declaration, bool) {
	node, ok := declarationAt(tree, src, off, goDeclTypes)
	if !ok {
		return Declaration{}, false
	}
	return Declaration{Node: node, Language: p.ID()}, true
}

// SignatureRange covers the declaration from its start up to the body
// block, so name, receiver, type parameters, parameters and results
// are all included.
func (*goProvider) SignatureRange(decl Declaration, src []byte) (text.Range, bool) {
	node := decl.Node
	r := nodeRange(node)
	if body := node.ChildByFieldName("body"); body != nil {
		r.End = body.StartByte()
	}
	return text.StripWhitespace(src, r), true
}

func (*goProvider) NameRange(decl Declaration, src []byte) (text.Range, bool) {
	name := decl.Node.ChildByFieldName("name")
	if name == nil {
		return text.Range{}, false
	}
	return nodeRange(name), true
}

// ImportSectionRange spans from the first import declaration to the
// last one.
func (*goProvider) ImportSectionRange(tree *sitter.Tree, src []byte) (text.Range, bool) {
	root := tree.RootNode()
	var section text.Range
	found := false
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if child.Type() != "import_declaration" {
			continue
		}
		if !found {
			section = nodeRange(child)
			found = true
		} else {
			section = section.Union(nodeRange(child))
		}
	}
	return section, found
}

func (*goProvider) HasSyntaxError(decl Declaration) bool {
	return decl.Node.HasError()
}

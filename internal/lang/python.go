package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"

	"sigtrack/internal/text"
)

func init() {
	Register(&pythonProvider{})
}

// pythonProvider implements Provider for Python sources.
type pythonProvider struct{}

var pythonDeclTypes = map[string]bool{
	"function_definition": true,
	"class_definition":    true,
}

var pythonImportTypes = map[string]bool{
	"import_statement":        true,
	"import_from_statement":   true,
	"future_import_statement": true,
}

func (*pythonProvider) ID() string {
	return "python"
}

func (*pythonProvider) Sitter() *sitter.Language {
	return python.GetLanguage()
}

func (p *pythonProvider) DeclarationAt(tree *sitter.Tree, src []byte, off uint32) (Declaration, bool) {
	node, ok := declarationAt(tree, src, off, pythonDeclTypes)
	if !ok {
		return Declaration{}, false
	}
	return Declaration{Node: node, Language: p.ID()}, true
}

// SignatureRange covers a def or class header up to the colon before
// the suite.
func (*pythonProvider) SignatureRange(decl Declaration, src []byte) (text.Range, bool) {
	node := decl.Node
	r := nodeRange(node)
	if body := node.ChildByFieldName("body"); body != nil {
		r.End = body.StartByte()
	}
	return text.StripWhitespace(src, r), true
}

func (*pythonProvider) NameRange(decl Declaration, src []byte) (text.Range, bool) {
	name := decl.Node.ChildByFieldName("name")
	if name == nil {
		return text.Range{}, false
	}
	return nodeRange(name), true
}

// ImportSectionRange spans the module-level import statements.
func (*pythonProvider) ImportSectionRange(tree *sitter.Tree, src []byte) (text.Range, bool) {
	root := tree.RootNode()
	var section text.Range
	found := false
	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		if !pythonImportTypes[child.Type()] {
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

func (*pythonProvider) HasSyntaxError(decl Declaration) bool {
	return decl.Node.HasError()
}

package lang_test

import (
	"context"
	"strings"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"

	"sigtrack/internal/lang"
)

func parse(t *testing.T, p lang.Provider, src string) *sitter.Tree {
	t.Helper()
	parser := sitter.NewParser()
	parser.SetLanguage(p.Sitter())
	tree, err := parser.ParseCtx(context.Background(), nil, []byte(src))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	t.Cleanup(tree.Close)
	t.Cleanup(parser.Close)
	return tree
}

func offsetOf(t *testing.T, src, needle string) uint32 {
	t.Helper()
	idx := strings.Index(src, needle)
	if idx < 0 {
		t.Fatalf("%q not found", needle)
	}
	return uint32(idx)
}

func provider(t *testing.T, id string) lang.Provider {
	t.Helper()
	p, ok := lang.For(id)
	if !ok {
		t.Fatalf("no provider registered for %s", id)
	}
	return p
}

func TestGoProvider(t *testing.T) {
	src := "package p\n\nimport \"fmt\"\n\nfunc greet(name string) string {\n\treturn \"hi \" + name\n}\n"
	p := provider(t, "go")
	tree := parse(t, p, src)
	bytes := []byte(src)

	decl, ok := p.DeclarationAt(tree, bytes, offsetOf(t, src, "greet"))
	if !ok {
		t.Fatalf("expected a declaration at the function name")
	}
	if decl.Name(bytes) != "greet" {
		t.Fatalf("expected name %q, got %q", "greet", decl.Name(bytes))
	}
	if p.HasSyntaxError(decl) {
		t.Fatalf("valid declaration must not report a syntax error")
	}

	sig, ok := p.SignatureRange(decl, bytes)
	if !ok {
		t.Fatalf("expected a signature range")
	}
	if got := src[sig.Start:sig.End]; got != "func greet(name string) string" {
		t.Fatalf("unexpected signature %q", got)
	}

	name, ok := p.NameRange(decl, bytes)
	if !ok || src[name.Start:name.End] != "greet" {
		t.Fatalf("unexpected name range")
	}

	imports, ok := p.ImportSectionRange(tree, bytes)
	if !ok || src[imports.Start:imports.End] != `import "fmt"` {
		t.Fatalf("unexpected import section %q", src[imports.Start:imports.End])
	}

	// Offsets in the package clause resolve to no declaration.
	if _, ok := p.DeclarationAt(tree, bytes, 0); ok {
		t.Fatalf("the package clause is not a declaration")
	}
}

func TestGoMethodSignatureIncludesReceiver(t *testing.T) {
	src := "package p\n\ntype T struct{}\n\nfunc (t *T) Do(n int) error { return nil }\n"
	p := provider(t, "go")
	tree := parse(t, p, src)
	bytes := []byte(src)

	decl, ok := p.DeclarationAt(tree, bytes, offsetOf(t, src, "Do"))
	if !ok {
		t.Fatalf("expected a method declaration")
	}
	sig, _ := p.SignatureRange(decl, bytes)
	if got := src[sig.Start:sig.End]; got != "func (t *T) Do(n int) error" {
		t.Fatalf("unexpected signature %q", got)
	}
}

func TestGoMultipleImportDeclarations(t *testing.T) {
	src := "package p\n\nimport \"fmt\"\nimport \"os\"\n\nfunc f() { fmt.Println(os.Args) }\n"
	p := provider(t, "go")
	tree := parse(t, p, src)
	bytes := []byte(src)

	imports, ok := p.ImportSectionRange(tree, bytes)
	if !ok {
		t.Fatalf("expected an import section")
	}
	want := "import \"fmt\"\nimport \"os\""
	if got := src[imports.Start:imports.End]; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestGoBrokenDeclarationReportsError(t *testing.T) {
	src := "package p\n\nfunc f(x int) { return ( }\n"
	p := provider(t, "go")
	tree := parse(t, p, src)
	bytes := []byte(src)

	decl, ok := p.DeclarationAt(tree, bytes, offsetOf(t, src, "f(x"))
	if !ok {
		t.Fatalf("expected the broken declaration to resolve")
	}
	if !p.HasSyntaxError(decl) {
		t.Fatalf("expected a syntax error in the broken body")
	}
}

func TestPythonProvider(t *testing.T) {
	src := "import os\nfrom sys import argv\n\ndef add(a, b):\n    return a + b\n\nclass Greeter:\n    pass\n"
	p := provider(t, "python")
	tree := parse(t, p, src)
	bytes := []byte(src)

	decl, ok := p.DeclarationAt(tree, bytes, offsetOf(t, src, "add"))
	if !ok {
		t.Fatalf("expected a function definition")
	}
	if decl.Name(bytes) != "add" {
		t.Fatalf("expected name %q, got %q", "add", decl.Name(bytes))
	}
	sig, _ := p.SignatureRange(decl, bytes)
	if got := src[sig.Start:sig.End]; got != "def add(a, b):" {
		t.Fatalf("unexpected signature %q", got)
	}

	cls, ok := p.DeclarationAt(tree, bytes, offsetOf(t, src, "Greeter"))
	if !ok || cls.Name(bytes) != "Greeter" {
		t.Fatalf("expected the class definition to resolve")
	}
	sig, _ = p.SignatureRange(cls, bytes)
	if got := src[sig.Start:sig.End]; got != "class Greeter:" {
		t.Fatalf("unexpected class signature %q", got)
	}

	imports, ok := p.ImportSectionRange(tree, bytes)
	if !ok {
		t.Fatalf("expected an import section")
	}
	want := "import os\nfrom sys import argv"
	if got := src[imports.Start:imports.End]; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestProviderRegistry(t *testing.T) {
	if _, ok := lang.For("go"); !ok {
		t.Fatalf("go provider must be registered")
	}
	if _, ok := lang.For("python"); !ok {
		t.Fatalf("python provider must be registered")
	}
	if _, ok := lang.For("cobol"); ok {
		t.Fatalf("unknown language must not resolve")
	}
}

func TestNestedDeclarationResolvesInnermost(t *testing.T) {
	src := "import os\n\nclass C:\n    def method(self):\n        return os.name\n"
	p := provider(t, "python")
	tree := parse(t, p, src)
	bytes := []byte(src)

	decl, ok := p.DeclarationAt(tree, bytes, offsetOf(t, src, "method"))
	if !ok || decl.Name(bytes) != "method" {
		t.Fatalf("expected the inner method, got %q", decl.Name(bytes))
	}
}

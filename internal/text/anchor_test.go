package text_test

import (
	"testing"

	"sigtrack/internal/text"
)

func mustRange(t *testing.T, a *text.Anchor) text.Range {
	t.Helper()
	r, ok := a.Range()
	if !ok {
		t.Fatalf("anchor unexpectedly invalid")
	}
	return r
}

func TestAnchorShiftsWithEditsBefore(t *testing.T) {
	buf := text.NewBuffer("test:", "hello world")
	a := buf.NewAnchor(text.Range{Start: 6, End: 11}) // "world"

	if err := buf.Insert(0, ">> "); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustRange(t, a); got != (text.Range{Start: 9, End: 14}) {
		t.Fatalf("expected [9,14), got [%d,%d)", got.Start, got.End)
	}
	if a.Text() != "world" {
		t.Fatalf("expected anchor to still cover %q, got %q", "world", a.Text())
	}
}

func TestAnchorGrowsOnInsideEdit(t *testing.T) {
	buf := text.NewBuffer("test:", "f(x)")
	a := buf.NewAnchor(text.Range{Start: 0, End: 4})

	if err := buf.Insert(3, ", y"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Text() != "f(x, y)" {
		t.Fatalf("expected %q, got %q", "f(x, y)", a.Text())
	}
}

func TestAnchorGreedyBoundaries(t *testing.T) {
	buf := text.NewBuffer("test:", "abcdef")
	a := buf.NewAnchor(text.Range{Start: 2, End: 4}) // "cd"

	// Insertion exactly at the end boundary is absorbed.
	if err := buf.Insert(4, "X"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Text() != "cdX" {
		t.Fatalf("expected %q after end insertion, got %q", "cdX", a.Text())
	}

	// Insertion exactly at the start boundary is absorbed too.
	if err := buf.Insert(2, "Y"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Text() != "YcdX" {
		t.Fatalf("expected %q after start insertion, got %q", "YcdX", a.Text())
	}
}

func TestAnchorUntouchedByEditsAfter(t *testing.T) {
	buf := text.NewBuffer("test:", "abcdef")
	a := buf.NewAnchor(text.Range{Start: 1, End: 3})

	if err := buf.Replace(text.Range{Start: 4, End: 6}, "ZZZZ"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := mustRange(t, a); got != (text.Range{Start: 1, End: 3}) {
		t.Fatalf("expected [1,3), got [%d,%d)", got.Start, got.End)
	}
}

func TestAnchorInvalidatedByCoveringDelete(t *testing.T) {
	buf := text.NewBuffer("test:", "abcdef")
	a := buf.NewAnchor(text.Range{Start: 2, End: 4})

	if err := buf.Delete(text.Range{Start: 1, End: 5}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Valid() {
		t.Fatalf("expected anchor to be invalid after covering delete")
	}
	if _, ok := a.Range(); ok {
		t.Fatalf("invalid anchor must not report a range")
	}
}

func TestAnchorInvalidatedByExactDelete(t *testing.T) {
	buf := text.NewBuffer("test:", "abcdef")
	a := buf.NewAnchor(text.Range{Start: 2, End: 4})

	if err := buf.Delete(text.Range{Start: 2, End: 4}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Valid() {
		t.Fatalf("expected anchor to be invalid after its content was deleted")
	}
}

func TestAnchorSurvivesExactReplacement(t *testing.T) {
	buf := text.NewBuffer("test:", "abcdef")
	a := buf.NewAnchor(text.Range{Start: 2, End: 4})

	if err := buf.Replace(text.Range{Start: 2, End: 4}, "XYZ"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Text() != "XYZ" {
		t.Fatalf("expected anchor over replacement text, got %q", a.Text())
	}
}

func TestAnchorPartialOverlaps(t *testing.T) {
	buf := text.NewBuffer("test:", "0123456789")
	head := buf.NewAnchor(text.Range{Start: 4, End: 8}) // "4567"

	// Replace "34" with "ab": head overlap.
	if err := buf.Replace(text.Range{Start: 3, End: 5}, "ab"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if head.Text() != "567" {
		t.Fatalf("expected %q, got %q", "567", head.Text())
	}
}

func TestAnchorDispose(t *testing.T) {
	buf := text.NewBuffer("test:", "abcdef")
	a := buf.NewAnchor(text.Range{Start: 2, End: 4})
	a.Dispose()
	a.Dispose() // safe twice
	if a.Valid() {
		t.Fatalf("disposed anchor must be invalid")
	}
	// Edits after dispose must not panic.
	if err := buf.Insert(0, "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

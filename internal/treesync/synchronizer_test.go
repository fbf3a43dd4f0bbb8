package treesync_test

import (
	"testing"

	"github.com/smacker/go-tree-sitter/golang"

	"sigtrack/internal/text"
	"sigtrack/internal/treesync"
)

func track(t *testing.T, sync *treesync.Synchronizer, content string) *text.Buffer {
	t.Helper()
	buf := text.NewBuffer("test:buffer", content)
	if err := sync.Track(buf, golang.GetLanguage()); err != nil {
		t.Fatalf("track failed: %v", err)
	}
	return buf
}

func TestTrackParsesImmediately(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	buf := track(t, sync, "package p\n")

	if sync.IsUncommitted(buf) {
		t.Fatalf("freshly tracked buffer must be committed")
	}
	tree := sync.CachedTree(buf)
	if tree == nil || tree.RootNode().Type() != "source_file" {
		t.Fatalf("expected a parsed source_file root")
	}
	if err := sync.Track(buf, golang.GetLanguage()); err == nil {
		t.Fatalf("tracking the same buffer twice must fail")
	}
}

func TestEditsMarkUncommittedUntilCommit(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	buf := track(t, sync, "package p\n\nfunc f() {}\n")

	if err := buf.Insert(uint32(len("package p\n\nfunc f(")), "x int"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if !sync.IsUncommitted(buf) {
		t.Fatalf("edited buffer must be uncommitted")
	}

	if err := sync.Commit(buf); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if sync.IsUncommitted(buf) {
		t.Fatalf("committed buffer must not report uncommitted")
	}
	if sync.CachedTree(buf).RootNode().HasError() {
		t.Fatalf("reparsed tree must be clean: %s", buf.Content())
	}
}

func TestTreeCommitsOnDemand(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	buf := track(t, sync, "package p\n")

	if err := buf.Insert(buf.Len(), "\nfunc f() {}\n"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	tree, err := sync.Tree(buf)
	if err != nil {
		t.Fatalf("tree failed: %v", err)
	}
	if sync.IsUncommitted(buf) {
		t.Fatalf("Tree must commit as a side effect")
	}
	if tree.RootNode().NamedChildCount() != 2 {
		t.Fatalf("expected package clause and function, got %d children", tree.RootNode().NamedChildCount())
	}
}

func TestPerformWhenAllCommitted(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	buf := track(t, sync, "package p\n")

	ran := 0
	sync.PerformWhenAllCommitted(func() { ran++ })
	if ran != 1 {
		t.Fatalf("callback must run immediately when everything is committed")
	}

	if err := buf.Insert(0, "// edit\n"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	sync.PerformWhenAllCommitted(func() { ran++ })
	if ran != 1 {
		t.Fatalf("callback must be deferred while edits are uncommitted")
	}
	if err := sync.CommitAll(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if ran != 2 {
		t.Fatalf("CommitAll must drain deferred callbacks, ran=%d", ran)
	}
}

func TestTreeEventsFireBeforeLaterTextListeners(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()

	var order []string
	sync.OnTreePreChange(func(ev treesync.TreeEvent) {
		order = append(order, "tree")
	})

	buf := track(t, sync, "package p\n")
	buf.OnPreChange(func(text.Edit) {
		order = append(order, "text")
	})

	if err := buf.Insert(0, "x"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if len(order) != 2 || order[0] != "tree" || order[1] != "text" {
		t.Fatalf("expected tree event before text hook, got %v", order)
	}

	// A second edit against the now-uncommitted tree stays silent.
	order = order[:0]
	if err := buf.Insert(0, "y"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	if len(order) != 1 || order[0] != "text" {
		t.Fatalf("uncommitted tree must not fire tree events, got %v", order)
	}
}

func TestBlockedFlag(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	buf := track(t, sync, "package p\n")

	if sync.IsBlocked(buf) {
		t.Fatalf("fresh buffer must not be blocked")
	}
	sync.SetBlocked(buf, true)
	if !sync.IsBlocked(buf) {
		t.Fatalf("expected blocked")
	}
	sync.SetBlocked(buf, false)
	if sync.IsBlocked(buf) {
		t.Fatalf("expected unblocked")
	}
}

func TestHasErrorIn(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	buf := track(t, sync, "package p\n\nfunc f(x int {}\n\nvar ok = 1\n")

	whole := text.Range{Start: 0, End: buf.Len()}
	if !sync.HasErrorIn(buf, whole) {
		t.Fatalf("expected a syntax error in the broken function")
	}

	funcRange := text.Range{Start: 11, End: 26}
	if !sync.HasErrorIn(buf, funcRange) {
		t.Fatalf("expected the error inside the function range")
	}

	varStart := uint32(len("package p\n\nfunc f(x int {}\n\n"))
	if sync.HasErrorIn(buf, text.Range{Start: varStart + 1, End: buf.Len()}) {
		t.Fatalf("the trailing var declaration must be clean")
	}
}

func TestReleaseDropsState(t *testing.T) {
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	buf := track(t, sync, "package p\n")

	sync.Release(buf)
	if sync.CachedTree(buf) != nil {
		t.Fatalf("released buffer must have no tree")
	}
	if !sync.IsUncommitted(buf) {
		t.Fatalf("untracked buffer counts as uncommitted")
	}
	if sync.HasText(buf) {
		t.Fatalf("released buffer must have no text snapshot")
	}

	// Edits after release must not panic.
	if err := buf.Insert(0, "x"); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
}

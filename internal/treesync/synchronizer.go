// Package treesync keeps one lazily-reparsed tree-sitter tree per
// buffer. Text edits are folded into the cached tree immediately via
// Tree.Edit, but the tree only becomes consistent with the text again
// when the buffer is committed (incrementally reparsed). Callbacks can
// be deferred to the next point at which every tracked buffer is
// committed.
package treesync

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"sigtrack/internal/text"
)

// TreeEvent describes an imminent mutation of an already-loaded,
// committed tree, before the synchronizer has folded the edit in.
type TreeEvent struct {
	Buffer *text.Buffer
	// Range is the affected old-text range of the mutation.
	Range text.Range
}

// TreeListener observes pre-mutation tree events.
type TreeListener func(TreeEvent)

type bufferState struct {
	parser      *sitter.Parser
	tree        *sitter.Tree
	content     []byte
	uncommitted bool
	blocked     bool
}

// Synchronizer owns the tree side of the text/tree duality for a set
// of buffers. All methods must be called from the owning session's
// event stream.
type Synchronizer struct {
	states  map[*text.Buffer]*bufferState
	treePre []TreeListener
	pending []func()
}

func NewSynchronizer() *Synchronizer {
	return &Synchronizer{states: make(map[*text.Buffer]*bufferState)}
}

// OnTreePreChange registers a listener for imminent tree mutations.
// Listeners fire before the buffer's own text pre-change listeners for
// the same edit, and only for loaded, committed trees.
func (s *Synchronizer) OnTreePreChange(fn TreeListener) {
	s.treePre = append(s.treePre, fn)
}

// Track parses the buffer with the given grammar and starts keeping
// its tree in sync. The buffer's change listeners are registered here,
// so Track must run before any observer that wants to see tree events
// first.
func (s *Synchronizer) Track(buf *text.Buffer, language *sitter.Language) error {
	if _, exists := s.states[buf]; exists {
		return fmt.Errorf("buffer already tracked: %s", buf.URI())
	}

	parser := sitter.NewParser()
	parser.SetLanguage(language)

	content := append([]byte(nil), buf.Bytes()...)
	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		parser.Close()
		return fmt.Errorf("failed to parse %s: %w", buf.URI(), err)
	}

	st := &bufferState{parser: parser, tree: tree, content: content}
	s.states[buf] = st

	buf.OnPreChange(func(ev text.Edit) {
		s.noteEditIncoming(st, ev)
	})
	buf.OnPostChange(func(ev text.Edit) {
		s.foldEdit(st, ev)
	})
	return nil
}

// noteEditIncoming fires tree pre-change listeners when a loaded,
// committed tree is about to be mutated.
func (s *Synchronizer) noteEditIncoming(st *bufferState, ev text.Edit) {
	if st.tree == nil || st.uncommitted || st.content == nil {
		return
	}
	event := TreeEvent{Buffer: ev.Buffer, Range: ev.Range}
	for _, fn := range s.treePre {
		fn(event)
	}
}

// foldEdit applies the edit to the cached tree and content snapshot
// and marks the buffer uncommitted.
func (s *Synchronizer) foldEdit(st *bufferState, ev text.Edit) {
	if st.tree == nil {
		return
	}

	oldEnd := ev.Range.End
	newEnd := ev.Range.Start + uint32(len(ev.New))

	spliced := make([]byte, 0, len(st.content)-int(ev.Range.Len())+len(ev.New))
	spliced = append(spliced, st.content[:ev.Range.Start]...)
	spliced = append(spliced, ev.New...)
	spliced = append(spliced, st.content[oldEnd:]...)

	st.tree.Edit(sitter.EditInput{
		StartIndex:  ev.Range.Start,
		OldEndIndex: oldEnd,
		NewEndIndex: newEnd,
		StartPoint:  pointAt(st.content, ev.Range.Start),
		OldEndPoint: pointAt(st.content, oldEnd),
		NewEndPoint: pointAt(spliced, newEnd),
	})
	st.content = spliced
	st.uncommitted = true
}

// IsUncommitted reports whether the buffer's tree lags behind its
// text. An untracked buffer counts as uncommitted.
func (s *Synchronizer) IsUncommitted(buf *text.Buffer) bool {
	st, ok := s.states[buf]
	if !ok {
		return true
	}
	return st.uncommitted
}

// HasText reports whether the synchronizer holds a text snapshot for
// the buffer.
func (s *Synchronizer) HasText(buf *text.Buffer) bool {
	st, ok := s.states[buf]
	return ok && st.content != nil
}

// IsBlocked reports whether tree access for the buffer has been
// blocked by the host.
func (s *Synchronizer) IsBlocked(buf *text.Buffer) bool {
	st, ok := s.states[buf]
	return ok && st.blocked
}

// SetBlocked lets the host fence off tree access for a buffer, e.g.
// while an external analysis holds the tree.
func (s *Synchronizer) SetBlocked(buf *text.Buffer, blocked bool) {
	if st, ok := s.states[buf]; ok {
		st.blocked = blocked
	}
}

// CachedTree returns the buffer's tree without committing. The tree
// may lag behind the text; check IsUncommitted.
func (s *Synchronizer) CachedTree(buf *text.Buffer) *sitter.Tree {
	st, ok := s.states[buf]
	if !ok {
		return nil
	}
	return st.tree
}

// Tree commits the buffer if needed and returns its tree.
func (s *Synchronizer) Tree(buf *text.Buffer) (*sitter.Tree, error) {
	st, ok := s.states[buf]
	if !ok {
		return nil, fmt.Errorf("buffer not tracked: %s", buf.URI())
	}
	if err := s.commit(st, buf); err != nil {
		return nil, err
	}
	return st.tree, nil
}

// Commit reparses the buffer if it has uncommitted edits.
func (s *Synchronizer) Commit(buf *text.Buffer) error {
	st, ok := s.states[buf]
	if !ok {
		return fmt.Errorf("buffer not tracked: %s", buf.URI())
	}
	return s.commit(st, buf)
}

func (s *Synchronizer) commit(st *bufferState, buf *text.Buffer) error {
	if !st.uncommitted {
		return nil
	}
	newTree, err := st.parser.ParseCtx(context.Background(), st.tree, st.content)
	if err != nil {
		return fmt.Errorf("failed to reparse %s: %w", buf.URI(), err)
	}
	if st.tree != nil && st.tree != newTree {
		st.tree.Close()
	}
	st.tree = newTree
	st.uncommitted = false
	return nil
}

// CommitAll commits every tracked buffer, then runs the callbacks
// queued by PerformWhenAllCommitted.
func (s *Synchronizer) CommitAll() error {
	for buf, st := range s.states {
		if err := s.commit(st, buf); err != nil {
			return err
		}
	}
	queued := s.pending
	s.pending = nil
	for _, fn := range queued {
		fn()
	}
	return nil
}

// PerformWhenAllCommitted runs fn immediately if no tracked buffer has
// uncommitted edits, and otherwise defers it to the end of the next
// CommitAll.
func (s *Synchronizer) PerformWhenAllCommitted(fn func()) {
	for _, st := range s.states {
		if st.uncommitted {
			s.pending = append(s.pending, fn)
			return
		}
	}
	fn()
}

// Release drops the buffer's parse state and closes its parser.
func (s *Synchronizer) Release(buf *text.Buffer) {
	st, ok := s.states[buf]
	if !ok {
		return
	}
	if st.tree != nil {
		st.tree.Close()
	}
	st.parser.Close()
	st.tree = nil
	delete(s.states, buf)
}

// Close releases every tracked buffer.
func (s *Synchronizer) Close() {
	for buf := range s.states {
		s.Release(buf)
	}
}

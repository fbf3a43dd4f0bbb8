// Package tracker implements the signature change-tracking state
// machine. It watches raw text edits and pre-sync tree mutations,
// decides when a signature edit starts, keeps greedy anchors aligned
// with the evolving text, and reconciles the anchors against the tree
// once the synchronizer reports the buffer committed. A Watcher
// receives the lifecycle.
package tracker

import (
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/tliron/commonlog"

	"sigtrack/internal/editor"
	"sigtrack/internal/lang"
	"sigtrack/internal/text"
	"sigtrack/internal/treesync"
)

var log = commonlog.GetLogger("sigtrack.tracker")

// editingState is the tracking state for the one declaration being
// watched. At most one exists at a time.
type editingState struct {
	buffer          *text.Buffer
	provider        lang.Provider
	signatureAnchor *text.Anchor
	importAnchor    *text.Anchor // nil when the file has no import section
	suppressed      bool
	// reconcilePending de-duplicates reconciliation scheduling while
	// edits keep arriving.
	reconcilePending bool
}

func (s *editingState) dispose() {
	s.signatureAnchor.Dispose()
	if s.importAnchor != nil {
		s.importAnchor.Dispose()
	}
}

// Tracker drives signature tracking for one editing session.
type Tracker struct {
	sync    *treesync.Synchronizer
	views   *editor.Registry
	watcher Watcher

	providers map[*text.Buffer]lang.Provider
	idents    identifierHistory
	state     *editingState
	attached  bool
	disposed  bool
}

func New(sync *treesync.Synchronizer, views *editor.Registry, watcher Watcher) *Tracker {
	return &Tracker{
		sync:      sync,
		views:     views,
		watcher:   watcher,
		providers: make(map[*text.Buffer]lang.Provider),
	}
}

// Attach begins observing tree mutations. It may be called once per
// tracker.
func (t *Tracker) Attach() error {
	if t.attached {
		return fmt.Errorf("tracker already attached")
	}
	t.attached = true
	t.sync.OnTreePreChange(t.onTreeChange)
	return nil
}

// Observe wires the tracker to a buffer's text edits. The buffer must
// already be tracked by the synchronizer so that tree events fire
// before the text hooks. Buffers in unsupported languages are observed
// but never tracked.
func (t *Tracker) Observe(buf *text.Buffer, languageID string) {
	if p, ok := lang.For(languageID); ok {
		t.providers[buf] = p
	}
	buf.OnPreChange(t.onPreChange)
	buf.OnPostChange(t.onPostChange)
}

// Forget drops the buffer's language association. Active tracking on
// the buffer is reset.
func (t *Tracker) Forget(buf *text.Buffer) {
	if t.state != nil && t.state.buffer == buf {
		t.reset(true)
	}
	delete(t.providers, buf)
}

// Tracking reports whether a declaration is currently being watched.
func (t *Tracker) Tracking() bool {
	return t.state != nil
}

// TrackedBuffer returns the buffer of the active tracking session, or
// nil when nothing is tracked.
func (t *Tracker) TrackedBuffer() *text.Buffer {
	if t.state == nil {
		return nil
	}
	return t.state.buffer
}

// Suppressed reports whether the current session is suppressed.
func (t *Tracker) Suppressed() bool {
	return t.state != nil && t.state.suppressed
}

// Reset forcibly ends the current tracking session. Idempotent: with
// no active session it is a no-op and the watcher is not notified
// again.
func (t *Tracker) Reset() {
	t.reset(true)
}

// SuppressForCurrentDeclaration keeps the anchors alive but stops all
// notifications for the currently tracked declaration.
func (t *Tracker) SuppressForCurrentDeclaration() {
	if t.state != nil {
		t.state.suppressed = true
	}
}

// Dispose stops observing and releases all anchors. Safe to call once.
func (t *Tracker) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.reset(false)
	t.idents.Clear()
}

func (t *Tracker) reset(notify bool) {
	s := t.state
	if s == nil {
		return
	}
	t.state = nil
	s.dispose()
	if notify && !s.suppressed {
		t.watcher.Reset()
	}
}

func (t *Tracker) providerFor(buf *text.Buffer) (lang.Provider, bool) {
	p, ok := t.providers[buf]
	return p, ok
}

// onPreChange is the text pre-change hook: abort policy, then the
// start-tracking attempt for a transaction's first structural change.
func (t *Tracker) onPreChange(ev text.Edit) {
	if t.disposed {
		return
	}
	buf := ev.Buffer
	// Scratch fragments and buffers whose tree was never loaded are
	// not tracked.
	if buf.Ephemeral() || t.sync.CachedTree(buf) == nil {
		return
	}
	provider, supported := t.providerFor(buf)
	if !supported {
		return
	}

	if t.state != nil {
		if reason, abort := t.abortReason(ev); abort {
			log.Debugf("abort: %s", reason)
			t.reset(true)
		}
	}

	txn := buf.Transaction()
	if txn == nil || !txn.ConsumeFirstChange() {
		return
	}
	if t.sync.IsUncommitted(buf) || t.sync.IsBlocked(buf) {
		return
	}
	t.maybeStartTracking(buf, provider, text.StripWhitespace(buf.Bytes(), ev.Range))
}

// abortReason evaluates the abort policy for an incoming edit against
// the current state.
func (t *Tracker) abortReason(ev text.Edit) (string, bool) {
	s := t.state
	if s.buffer != ev.Buffer {
		return "edit in a different buffer", true
	}
	sigRange, ok := s.signatureAnchor.Range()
	if !ok {
		return "signature anchor invalidated", true
	}
	var importRange text.Range
	hasImport := false
	if s.importAnchor != nil {
		importRange, ok = s.importAnchor.Range()
		if !ok {
			return "import anchor invalidated", true
		}
		hasImport = true
	}
	if sigRange.Intersects(ev.Range) || (hasImport && importRange.Intersects(ev.Range)) {
		return "", false
	}
	// Whitespace-only edits outside the tracked ranges cannot affect
	// the signature.
	if strings.TrimSpace(ev.Old) == "" && strings.TrimSpace(ev.New) == "" {
		return "", false
	}
	return "non-blank edit outside tracked ranges", true
}

// onPostChange feeds the identifier history and schedules
// reconciliation for the committed tree.
func (t *Tracker) onPostChange(ev text.Edit) {
	if t.disposed {
		return
	}
	if ev.Old == "" && ev.New == "" {
		return
	}
	t.idents.Record(ev)

	s := t.state
	if s == nil {
		return
	}
	// The pre-hook's abort policy never saw this edit when the buffer
	// has no cached tree; enforce the buffer-mismatch abort here so a
	// foreign edit cannot schedule reconciliation for the live session.
	if s.buffer != ev.Buffer {
		t.reset(true)
		return
	}
	if _, ok := s.signatureAnchor.Range(); !ok {
		t.reset(true)
		return
	}
	if s.importAnchor != nil {
		if _, ok := s.importAnchor.Range(); !ok {
			t.reset(true)
			return
		}
	}
	if s.reconcilePending {
		return
	}
	s.reconcilePending = true
	t.sync.PerformWhenAllCommitted(func() {
		t.reconcile(s)
	})
}

// onTreeChange is the pre-mutation tree hook. It exists to catch the
// race where a loaded tree is mutated before the text listener could
// resolve structure; it only ever acts on a transaction's first
// structural change and never double-starts tracking.
func (t *Tracker) onTreeChange(ev treesync.TreeEvent) {
	if t.disposed {
		return
	}
	buf := ev.Buffer
	txn := buf.Transaction()
	if txn == nil || !txn.FirstChangePending() {
		return
	}
	if !t.sync.HasText(buf) {
		// Nothing to anchor to; still consume the first-change token.
		txn.ConsumeFirstChange()
		return
	}
	if t.sync.IsUncommitted(buf) {
		// Mid-synchronization: the text observer handles this edit.
		return
	}
	txn.ConsumeFirstChange()
	if buf.Ephemeral() {
		return
	}
	provider, ok := t.providerFor(buf)
	if !ok {
		return
	}
	t.maybeStartTracking(buf, provider, ev.Range)
}

// maybeStartTracking resolves the change to a declaration signature
// and arms the editing state. Silent no-op when tracking is already
// active, the buffer is off screen, a snippet session is live, or no
// healthy declaration resolves.
func (t *Tracker) maybeStartTracking(buf *text.Buffer, provider lang.Provider, change text.Range) {
	if t.state != nil {
		return
	}
	eds := t.views.EditorsFor(buf)
	if len(eds) == 0 {
		return
	}
	for _, e := range eds {
		if e.SnippetActive() {
			return
		}
	}
	tree := t.sync.CachedTree(buf)
	if tree == nil {
		return
	}
	src := buf.Bytes()

	decl, sigRange, ok := resolveSignatureAt(provider, tree, src, change.Start)
	if !ok && change.Empty() {
		// Inserting at a boundary must still resolve to the adjacent
		// declaration: widen across whitespace, then try one character
		// left of the probe first and the probe end second.
		probe := expandWhitespace(src, change.Start)
		if probe.Start > 0 {
			decl, sigRange, ok = resolveSignatureAt(provider, tree, src, probe.Start-1)
		}
		if !ok {
			decl, sigRange, ok = resolveSignatureAt(provider, tree, src, probe.End)
		}
	}
	if !ok {
		return
	}
	if provider.HasSyntaxError(decl) {
		// An ill-formed declaration has no trustworthy signature range.
		return
	}

	// The triggering edit is covered even when it falls just outside
	// the pre-edit signature bounds.
	s := &editingState{
		buffer:          buf,
		provider:        provider,
		signatureAnchor: buf.NewAnchor(sigRange.Union(change)),
	}
	if importRange, ok := provider.ImportSectionRange(tree, src); ok {
		s.importAnchor = buf.NewAnchor(importRange)
	}
	if nameRange, ok := provider.NameRange(decl, src); ok {
		s.suppressed = t.idents.FreshlyTyped(buf, nameRange, sigRange)
	}
	t.state = s

	log.Debugf("tracking %q in %s (suppressed=%v)", decl.Name(src), buf.URI(), s.suppressed)
	if !s.suppressed {
		t.watcher.EditingStarted(decl, provider)
	}
}

// reconcile runs once per scheduled batch, against a tree that is
// fully consistent with the text.
func (t *Tracker) reconcile(s *editingState) {
	if t.disposed || t.state != s {
		return
	}
	s.reconcilePending = false

	anchorRange, ok := s.signatureAnchor.Range()
	if !ok {
		t.reset(true)
		return
	}
	buf := s.buffer
	src := buf.Bytes()
	tree := t.sync.CachedTree(buf)
	if tree == nil {
		t.reset(true)
		return
	}
	stripped := text.StripWhitespace(src, anchorRange)

	probe := anchorRange
	if decl, ok := s.provider.DeclarationAt(tree, src, stripped.Start); ok {
		if sigRange, ok := s.provider.SignatureRange(decl, src); ok {
			// A broken declaration's signature range cannot be
			// trusted, so it never counts as a clean match.
			if !s.provider.HasSyntaxError(decl) && text.StripWhitespace(src, sigRange) == stripped {
				// Healthy: the anchor still covers exactly one
				// declaration's signature.
				if !s.suppressed {
					t.watcher.NextSignature(decl, s.provider)
				}
				return
			}
			probe = probe.Union(sigRange)
		}
	}

	if t.sync.HasErrorIn(buf, probe) {
		// Transient inconsistency mid-edit; keep the anchors and let
		// future edits be re-evaluated.
		if !s.suppressed {
			t.watcher.InconsistentState()
		}
		return
	}
	// Structurally settled but no longer the tracked signature.
	t.reset(true)
}

// resolveSignatureAt resolves the declaration owning off, requiring
// the offset to fall inside the declaration's reported signature range
// (boundaries included, matching greedy anchor semantics).
func resolveSignatureAt(provider lang.Provider, tree *sitter.Tree, src []byte, off uint32) (lang.Declaration, text.Range, bool) {
	decl, ok := provider.DeclarationAt(tree, src, off)
	if !ok {
		return lang.Declaration{}, text.Range{}, false
	}
	sigRange, ok := provider.SignatureRange(decl, src)
	if !ok || !sigRange.ContainsOffset(off) {
		return lang.Declaration{}, text.Range{}, false
	}
	return decl, sigRange, true
}

// expandWhitespace grows an insertion point outward across contiguous
// whitespace.
func expandWhitespace(src []byte, off uint32) text.Range {
	r := text.Range{Start: off, End: off}
	for r.Start > 0 && isSpaceByte(src[r.Start-1]) {
		r.Start--
	}
	for r.End < uint32(len(src)) && isSpaceByte(src[r.End]) {
		r.End++
	}
	return r
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

// Package text holds the in-memory document model: buffers mutated by
// offset-range edits, per-edit change listeners, edit transactions and
// self-adjusting range anchors.
//
// Buffers are owned by a single editing session and all callbacks run
// on that session's event stream; the package does no locking of its
// own.
package text

import (
	"fmt"
)

// Edit describes one buffer mutation. Range and Old refer to the
// buffer as it was before the splice; New is the inserted text.
type Edit struct {
	Buffer *Buffer
	Range  Range
	Old    string
	New    string
}

// ChangeListener observes buffer edits. Pre-change listeners run
// before the splice, post-change listeners after it (and after anchor
// adjustment).
type ChangeListener func(Edit)

// Transaction groups the edits of one user command. Its only state is
// the first-structural-change token: whichever observer consumes it
// first wins, exactly once per transaction.
type Transaction struct {
	firstPending bool
}

// ConsumeFirstChange returns true on the first call for this
// transaction and false afterwards.
func (t *Transaction) ConsumeFirstChange() bool {
	if t == nil || !t.firstPending {
		return false
	}
	t.firstPending = false
	return true
}

// FirstChangePending reports whether the token is still unconsumed.
func (t *Transaction) FirstChangePending() bool {
	return t != nil && t.firstPending
}

// Buffer is an in-memory UTF-8 document addressed by byte offsets.
type Buffer struct {
	uri       string
	content   []byte
	ephemeral bool

	pre     []ChangeListener
	post    []ChangeListener
	anchors []*Anchor
	txn     *Transaction
}

// NewBuffer creates a persistent buffer with the given initial content.
func NewBuffer(uri string, content string) *Buffer {
	return &Buffer{uri: uri, content: []byte(content)}
}

// NewScratch creates an ephemeral fragment buffer. Scratch fragments
// are never tracked.
func NewScratch(content string) *Buffer {
	return &Buffer{uri: "scratch:", content: []byte(content), ephemeral: true}
}

func (b *Buffer) URI() string     { return b.uri }
func (b *Buffer) Ephemeral() bool { return b.ephemeral }
func (b *Buffer) Len() uint32     { return uint32(len(b.content)) }

func (b *Buffer) Content() string { return string(b.content) }
func (b *Buffer) Bytes() []byte   { return b.content }

// Slice returns the buffer text covered by r, clamped to the buffer.
func (b *Buffer) Slice(r Range) string {
	if r.Start > b.Len() {
		r.Start = b.Len()
	}
	if r.End > b.Len() {
		r.End = b.Len()
	}
	return string(b.content[r.Start:r.End])
}

// OnPreChange registers a pre-change listener. Listeners fire in
// registration order.
func (b *Buffer) OnPreChange(fn ChangeListener) {
	b.pre = append(b.pre, fn)
}

// OnPostChange registers a post-change listener.
func (b *Buffer) OnPostChange(fn ChangeListener) {
	b.post = append(b.post, fn)
}

// BeginTransaction starts a new edit transaction, replacing any
// previous one, and arms its first-change token.
func (b *Buffer) BeginTransaction() *Transaction {
	b.txn = &Transaction{firstPending: true}
	return b.txn
}

// EndTransaction closes the current transaction, if any.
func (b *Buffer) EndTransaction() {
	b.txn = nil
}

// Transaction returns the transaction currently in progress, or nil.
func (b *Buffer) Transaction() *Transaction {
	return b.txn
}

// Insert splices text at off.
func (b *Buffer) Insert(off uint32, text string) error {
	return b.Replace(Range{Start: off, End: off}, text)
}

// Delete removes the text covered by r.
func (b *Buffer) Delete(r Range) error {
	return b.Replace(r, "")
}

// Replace substitutes the text in r with newText, firing pre-change
// listeners before the splice, adjusting all live anchors, then firing
// post-change listeners.
func (b *Buffer) Replace(r Range, newText string) error {
	if r.End < r.Start || r.End > b.Len() {
		return fmt.Errorf("edit range [%d,%d) out of bounds for buffer of %d bytes", r.Start, r.End, b.Len())
	}

	edit := Edit{
		Buffer: b,
		Range:  r,
		Old:    string(b.content[r.Start:r.End]),
		New:    newText,
	}

	for _, fn := range b.pre {
		fn(edit)
	}

	spliced := make([]byte, 0, len(b.content)-int(r.Len())+len(newText))
	spliced = append(spliced, b.content[:r.Start]...)
	spliced = append(spliced, newText...)
	spliced = append(spliced, b.content[r.End:]...)
	b.content = spliced

	for _, a := range b.anchors {
		a.adjust(r, uint32(len(newText)))
	}

	for _, fn := range b.post {
		fn(edit)
	}
	return nil
}

func (b *Buffer) addAnchor(a *Anchor) {
	b.anchors = append(b.anchors, a)
}

func (b *Buffer) removeAnchor(a *Anchor) {
	for i, other := range b.anchors {
		if other == a {
			b.anchors = append(b.anchors[:i], b.anchors[i+1:]...)
			return
		}
	}
}

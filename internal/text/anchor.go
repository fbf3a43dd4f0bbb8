package text

// Anchor is a self-adjusting range bound to a buffer. Both boundaries
// are greedy: text inserted exactly at an edge is absorbed into the
// anchor instead of falling outside it. An anchor becomes invalid when
// an edit removes or replaces its content wholesale; invalid anchors
// never become valid again.
//
// Anchors expose only their current range and validity, never raw
// offsets that could go stale.
type Anchor struct {
	buffer   *Buffer
	start    uint32
	end      uint32
	valid    bool
	disposed bool
}

// NewAnchor creates a greedy anchor over r. The range is clamped to
// the buffer.
func (b *Buffer) NewAnchor(r Range) *Anchor {
	if r.End > b.Len() {
		r.End = b.Len()
	}
	if r.Start > r.End {
		r.Start = r.End
	}
	a := &Anchor{buffer: b, start: r.Start, end: r.End, valid: true}
	b.addAnchor(a)
	return a
}

// Buffer returns the buffer the anchor is bound to.
func (a *Anchor) Buffer() *Buffer {
	return a.buffer
}

// Valid reports whether the anchor still tracks live content.
func (a *Anchor) Valid() bool {
	return a.valid && !a.disposed
}

// Range returns the anchor's current range; ok is false once the
// anchor has been invalidated or disposed.
func (a *Anchor) Range() (Range, bool) {
	if !a.Valid() {
		return Range{}, false
	}
	return Range{Start: a.start, End: a.end}, true
}

// Text returns the buffer content currently covered by the anchor.
func (a *Anchor) Text() string {
	r, ok := a.Range()
	if !ok {
		return ""
	}
	return a.buffer.Slice(r)
}

// Dispose releases the anchor back to its buffer. Safe to call more
// than once.
func (a *Anchor) Dispose() {
	if a.disposed {
		return
	}
	a.disposed = true
	a.valid = false
	a.buffer.removeAnchor(a)
}

// adjust recomputes the anchor bounds for an edit replacing old with
// n bytes of new text.
func (a *Anchor) adjust(old Range, n uint32) {
	if !a.valid {
		return
	}
	delta := int64(n) - int64(old.Len())

	// Pure insertion.
	if old.Empty() {
		off := old.Start
		switch {
		case off < a.start:
			a.start = shift(a.start, delta)
			a.end = shift(a.end, delta)
		case off <= a.end:
			// At either edge or inside: greedy, absorb the text.
			a.end = shift(a.end, delta)
		}
		return
	}

	switch {
	case old.End < a.start:
		// Entirely before.
		a.start = shift(a.start, delta)
		a.end = shift(a.end, delta)
	case old.Start > a.end:
		// Entirely after.
	case old.Start <= a.start && old.End >= a.end:
		// The edit swallows the anchored content.
		if old.Start == a.start && old.End == a.end && n > 0 {
			// Exact replacement: the anchor survives over the new text.
			a.end = a.start + n
		} else {
			a.valid = false
		}
	case old.Start < a.start:
		// Overlaps the head: surviving content starts after the
		// inserted text.
		a.start = old.Start + n
		a.end = shift(a.end, delta)
	case old.End > a.end:
		// Overlaps the tail: greedy, keep the inserted text.
		a.end = old.Start + n
	default:
		// Strictly inside (boundaries included on at most one side).
		a.end = shift(a.end, delta)
	}
}

func shift(off uint32, delta int64) uint32 {
	v := int64(off) + delta
	if v < 0 {
		return 0
	}
	return uint32(v)
}

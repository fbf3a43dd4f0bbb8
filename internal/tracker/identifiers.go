package tracker

import (
	"unicode"
	"unicode/utf8"

	"sigtrack/internal/text"
)

// historySize bounds the recent-identifier history.
const historySize = 5

type identEntry struct {
	buffer *text.Buffer
	anchor *text.Anchor
}

// identifierHistory remembers where the last few identifiers were
// typed, most recent last. Each entry covers one maximal run of
// identifier characters typed as a unit; the ranges are greedy anchors
// so they stay aligned with the text as the run keeps growing. Only
// entries for the buffer currently being edited are kept.
type identifierHistory struct {
	entries []identEntry
}

// Record feeds one applied edit into the history. Must run after the
// edit (anchors already adjusted).
func (h *identifierHistory) Record(ev text.Edit) {
	// A different buffer invalidates the whole history.
	if len(h.entries) > 0 && h.entries[len(h.entries)-1].buffer != ev.Buffer {
		h.Clear()
	}

	if ev.New == "" || !isIdentifier(ev.New) {
		// Non-identifier text typed at the newest run's edge got
		// absorbed by its greedy anchor; trim the run back.
		h.trimLast()
		return
	}

	// Typing that lands inside or at the edge of the latest entry is
	// the same identifier run still growing; its greedy anchor has
	// already absorbed the text.
	if len(h.entries) > 0 {
		last := h.entries[len(h.entries)-1]
		if r, ok := last.anchor.Range(); ok && r.ContainsOffset(ev.Range.Start) && isIdentifier(last.anchor.Text()) {
			return
		}
	}

	inserted := text.Range{
		Start: ev.Range.Start,
		End:   ev.Range.Start + uint32(len(ev.New)),
	}
	h.entries = append(h.entries, identEntry{
		buffer: ev.Buffer,
		anchor: ev.Buffer.NewAnchor(inserted),
	})
	if len(h.entries) > historySize {
		h.entries[0].anchor.Dispose()
		h.entries = h.entries[1:]
	}
}

// trimLast shrinks the newest entry to the maximal identifier prefix
// of the text its anchor covers. Entries left empty are dropped.
func (h *identifierHistory) trimLast() {
	if len(h.entries) == 0 {
		return
	}
	last := h.entries[len(h.entries)-1]
	r, ok := last.anchor.Range()
	if !ok {
		return
	}
	covered := last.anchor.Text()
	if isIdentifier(covered) {
		return
	}
	n := uint32(0)
	for _, c := range covered {
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			break
		}
		n += uint32(utf8.RuneLen(c))
	}
	last.anchor.Dispose()
	if n == 0 {
		h.entries = h.entries[:len(h.entries)-1]
		return
	}
	h.entries[len(h.entries)-1].anchor = last.buffer.NewAnchor(text.Range{
		Start: r.Start,
		End:   r.Start + n,
	})
}

// FreshlyTyped reports whether the declaration's name was itself just
// typed, with every identifier typed after it still inside the
// signature range. That pattern means a brand-new declaration is being
// authored rather than an existing one refactored.
func (h *identifierHistory) FreshlyTyped(buf *text.Buffer, nameRange, signatureRange text.Range) bool {
	nameIdx := -1
	for i, e := range h.entries {
		if e.buffer != buf {
			continue
		}
		if r, ok := e.anchor.Range(); ok && r == nameRange {
			nameIdx = i
		}
	}
	if nameIdx < 0 {
		return false
	}
	for _, e := range h.entries[nameIdx+1:] {
		if e.buffer != buf {
			continue
		}
		r, ok := e.anchor.Range()
		if !ok || !signatureRange.ContainsRange(r) {
			return false
		}
	}
	return true
}

// Clear disposes every entry.
func (h *identifierHistory) Clear() {
	for _, e := range h.entries {
		e.anchor.Dispose()
	}
	h.entries = nil
}

// isIdentifier reports whether s is a non-empty run of identifier
// characters. Digits count everywhere: the fragment may continue an
// identifier already in the buffer.
func isIdentifier(s string) bool {
	for _, r := range s {
		if r == utf8.RuneError {
			return false
		}
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

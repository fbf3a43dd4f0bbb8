// Package editor models the view layer the tracker consults: which
// buffers are shown on screen, and whether a live-template (snippet)
// session is active in a view. Tracking is meaningless for off-screen
// buffers and must not fire on templated insertions.
package editor

import (
	"sigtrack/internal/text"
)

// Editor is one view onto a buffer.
type Editor struct {
	buffer  *text.Buffer
	snippet bool
}

func (e *Editor) Buffer() *text.Buffer {
	return e.buffer
}

// SnippetActive reports whether a live-template session is attached to
// this view.
func (e *Editor) SnippetActive() bool {
	return e.snippet
}

// SetSnippetActive marks a live-template session as started or ended.
func (e *Editor) SetSnippetActive(active bool) {
	e.snippet = active
}

// Registry tracks the open editors of one session.
type Registry struct {
	editors []*Editor
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Open attaches a new editor to buf.
func (r *Registry) Open(buf *text.Buffer) *Editor {
	e := &Editor{buffer: buf}
	r.editors = append(r.editors, e)
	return e
}

// Close detaches an editor.
func (r *Registry) Close(e *Editor) {
	for i, other := range r.editors {
		if other == e {
			r.editors = append(r.editors[:i], r.editors[i+1:]...)
			return
		}
	}
}

// EditorsFor returns the editors currently showing buf.
func (r *Registry) EditorsFor(buf *text.Buffer) []*Editor {
	var out []*Editor
	for _, e := range r.editors {
		if e.buffer == buf {
			out = append(out, e)
		}
	}
	return out
}

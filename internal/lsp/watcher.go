package lsp

import (
	"sigtrack/internal/lang"
)

// Notification methods pushed to the client as tracking progresses.
const (
	MethodEditingStarted = "sigtrack/editingStarted"
	MethodNextSignature  = "sigtrack/nextSignature"
	MethodInconsistent   = "sigtrack/inconsistentState"
	MethodReset          = "sigtrack/reset"
)

// SignatureParams is the payload of editingStarted and nextSignature
// notifications.
type SignatureParams struct {
	URI         string `json:"uri"`
	Declaration string `json:"declaration"`
	Signature   string `json:"signature"`
}

// The server is the tracker's watcher: events are forwarded to the
// client and recorded in the journal of the document being handled.

func (s *Server) EditingStarted(decl lang.Declaration, provider lang.Provider) {
	s.notifySignature(MethodEditingStarted, decl, provider)
	if s.active != nil && s.active.journal != nil {
		s.active.journal.EditingStarted(decl, provider)
	}
}

func (s *Server) NextSignature(decl lang.Declaration, provider lang.Provider) {
	s.notifySignature(MethodNextSignature, decl, provider)
	if s.active != nil && s.active.journal != nil {
		s.active.journal.NextSignature(decl, provider)
	}
}

func (s *Server) InconsistentState() {
	if s.ctx != nil {
		s.ctx.Notify(MethodInconsistent, nil)
	}
	if s.active != nil && s.active.journal != nil {
		s.active.journal.InconsistentState()
	}
}

func (s *Server) Reset() {
	if s.ctx != nil {
		s.ctx.Notify(MethodReset, nil)
	}
	if s.active != nil && s.active.journal != nil {
		s.active.journal.Reset()
	}
}

func (s *Server) notifySignature(method string, decl lang.Declaration, provider lang.Provider) {
	if s.ctx == nil || s.active == nil {
		return
	}
	src := s.active.buffer.Bytes()
	params := SignatureParams{
		URI:         s.active.buffer.URI(),
		Declaration: decl.Name(src),
	}
	if sigRange, ok := provider.SignatureRange(decl, src); ok {
		params.Signature = s.active.buffer.Slice(sigRange)
	}
	s.ctx.Notify(method, params)
}

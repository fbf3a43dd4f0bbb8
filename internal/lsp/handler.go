package lsp

import (
	"fmt"

	"github.com/tliron/commonlog"
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"sigtrack/internal/journal"
	"sigtrack/internal/lang"
	"sigtrack/internal/text"
)

var log = commonlog.GetLogger("sigtrack.lsp")

func (s *Server) initialize(
	context *glsp.Context,
	params *protocol.InitializeParams,
) (any, error) {
	capabilities := s.handler.CreateServerCapabilities()
	syncKind := protocol.TextDocumentSyncKindIncremental
	capabilities.TextDocumentSync = &protocol.TextDocumentSyncOptions{
		OpenClose: &protocol.True,
		Change:    &syncKind,
	}
	capabilities.ExecuteCommandProvider = &protocol.ExecuteCommandOptions{
		Commands: []string{CommandReset, CommandSuppress},
	}

	return protocol.InitializeResult{
		Capabilities: capabilities,
		ServerInfo: &protocol.InitializeResultServerInfo{
			Name:    lsName,
			Version: &version,
		},
	}, nil
}

func (s *Server) initialized(
	context *glsp.Context,
	params *protocol.InitializedParams,
) error {
	log.Info("server initialized")
	return nil
}

func (s *Server) shutdown(context *glsp.Context) error {
	log.Info("server shutting down")
	s.tracker.Dispose()
	s.sync.Close()
	protocol.SetTraceValue(protocol.TraceValueOff)
	return nil
}

func (s *Server) setTrace(context *glsp.Context, params *protocol.SetTraceParams) error {
	protocol.SetTraceValue(params.Value)
	return nil
}

func (s *Server) textDocumentDidOpen(
	context *glsp.Context,
	params *protocol.DidOpenTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	if _, exists := s.docs[uri]; exists {
		return fmt.Errorf("document already open: %s", uri)
	}
	languageID := params.TextDocument.LanguageID
	provider, ok := lang.For(languageID)
	if !ok {
		log.Debugf("ignoring %s: unsupported language %q", uri, languageID)
		return nil
	}

	buf := text.NewBuffer(uri, params.TextDocument.Text)
	if err := s.sync.Track(buf, provider.Sitter()); err != nil {
		return err
	}

	doc := &document{
		buffer: buf,
		editor: s.views.Open(buf),
	}
	if s.store != nil {
		doc.journal = journal.NewJournal(s.store, buf, nil)
	}
	s.docs[uri] = doc
	s.tracker.Observe(buf, languageID)

	log.Debugf("opened %s (%s, %d bytes)", uri, languageID, buf.Len())
	return nil
}

func (s *Server) textDocumentDidChange(
	context *glsp.Context,
	params *protocol.DidChangeTextDocumentParams,
) error {
	doc, exists := s.docs[params.TextDocument.URI]
	if !exists {
		return nil
	}
	s.ctx = context
	s.active = doc
	defer func() { s.active = nil }()

	buf := doc.buffer
	buf.BeginTransaction()
	defer buf.EndTransaction()

	for _, change := range params.ContentChanges {
		switch contentChange := change.(type) {
		case protocol.TextDocumentContentChangeEventWhole:
			if err := buf.Replace(text.Range{Start: 0, End: buf.Len()}, contentChange.Text); err != nil {
				return err
			}

		case protocol.TextDocumentContentChangeEvent:
			if contentChange.Range == nil {
				continue
			}
			r := text.Range{
				Start: positionToOffset(buf.Bytes(), contentChange.Range.Start),
				End:   positionToOffset(buf.Bytes(), contentChange.Range.End),
			}
			if err := buf.Replace(r, contentChange.Text); err != nil {
				return err
			}
		}
	}

	// The commit barrier: reconciliation scheduled by the tracker runs
	// here, against a tree consistent with the batch's last edit.
	return s.sync.CommitAll()
}

func (s *Server) textDocumentDidSave(
	context *glsp.Context,
	params *protocol.DidSaveTextDocumentParams,
) error {
	return nil
}

func (s *Server) textDocumentDidClose(
	context *glsp.Context,
	params *protocol.DidCloseTextDocumentParams,
) error {
	uri := params.TextDocument.URI
	doc, exists := s.docs[uri]
	if !exists {
		return nil
	}
	s.ctx = context
	s.active = doc
	defer func() { s.active = nil }()

	s.tracker.Forget(doc.buffer)
	s.sync.Release(doc.buffer)
	s.views.Close(doc.editor)
	delete(s.docs, uri)

	log.Debugf("closed %s", uri)
	return nil
}

func (s *Server) executeCommand(
	context *glsp.Context,
	params *protocol.ExecuteCommandParams,
) (any, error) {
	s.ctx = context
	// Commands act on the live tracking session; journal against its
	// document.
	if buf := s.tracker.TrackedBuffer(); buf != nil {
		if doc, exists := s.docs[buf.URI()]; exists {
			s.active = doc
			defer func() { s.active = nil }()
		}
	}
	switch params.Command {
	case CommandReset:
		s.tracker.Reset()
		return nil, nil
	case CommandSuppress:
		s.tracker.SuppressForCurrentDeclaration()
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

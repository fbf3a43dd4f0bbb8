// Package lsp hosts the tracker behind a language server: didOpen
// creates a buffer and starts tree synchronization, each didChange
// runs as one edit transaction, and watcher events go out to the
// client as sigtrack/* notifications.
package lsp

import (
	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
	"github.com/tliron/glsp/server"

	"sigtrack/internal/editor"
	"sigtrack/internal/journal"
	"sigtrack/internal/text"
	"sigtrack/internal/tracker"
	"sigtrack/internal/treesync"
)

const lsName = "sigtrack"

var version = "0.1.0"

// Commands accepted via workspace/executeCommand.
const (
	CommandReset    = "sigtrack.reset"
	CommandSuppress = "sigtrack.suppress"
)

type document struct {
	buffer  *text.Buffer
	editor  *editor.Editor
	journal *journal.Journal
}

// Server wires buffers, the synchronizer and the tracker into a glsp
// session.
type Server struct {
	handler *protocol.Handler
	sync    *treesync.Synchronizer
	views   *editor.Registry
	tracker *tracker.Tracker
	store   *journal.Store // optional

	docs map[string]*document
	// ctx and active are set at the top of each handler so watcher
	// callbacks fired during handling can notify the client and the
	// journal.
	ctx    *glsp.Context
	active *document
}

// NewServer creates the language server. store may be nil to disable
// journaling.
func NewServer(store *journal.Store) (*server.Server, error) {
	s := &Server{
		sync:  treesync.NewSynchronizer(),
		views: editor.NewRegistry(),
		store: store,
		docs:  make(map[string]*document),
	}

	s.tracker = tracker.New(s.sync, s.views, s)
	if err := s.tracker.Attach(); err != nil {
		return nil, err
	}

	s.handler = &protocol.Handler{
		Initialize:              s.initialize,
		Initialized:             s.initialized,
		TextDocumentDidOpen:     s.textDocumentDidOpen,
		TextDocumentDidChange:   s.textDocumentDidChange,
		TextDocumentDidSave:     s.textDocumentDidSave,
		TextDocumentDidClose:    s.textDocumentDidClose,
		WorkspaceExecuteCommand: s.executeCommand,
		SetTrace:                s.setTrace,
		Shutdown:                s.shutdown,
	}

	return server.NewServer(s.handler, lsName, false), nil
}

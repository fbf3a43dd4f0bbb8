// Package journal persists watcher lifecycle events to sqlite so that
// tracking sessions can be inspected after the fact.
package journal

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"sigtrack/internal/lang"
	"sigtrack/internal/text"
	"sigtrack/internal/tracker"
)

var ErrNotFound = fmt.Errorf("session not found")

// Event kinds, one per watcher callback.
const (
	KindEditingStarted    = "editingStarted"
	KindNextSignature     = "nextSignature"
	KindInconsistentState = "inconsistentState"
	KindReset             = "reset"
)

// Event is one recorded watcher callback.
type Event struct {
	Session     string
	URI         string
	Kind        string
	Declaration string
	RecordedAt  int64
}

// Store is a schema-versioned sqlite event store.
type Store struct {
	db *sql.DB
}

func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec(`
        PRAGMA foreign_keys = ON;
        PRAGMA journal_mode = WAL;
    `); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set PRAGMA: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends one event.
func (s *Store) Record(ev Event) error {
	if ev.RecordedAt == 0 {
		ev.RecordedAt = time.Now().Unix()
	}
	_, err := s.db.Exec(`
        INSERT INTO events (session, uri, kind, declaration, recorded_at)
        VALUES (?, ?, ?, ?, ?)`,
		ev.Session, ev.URI, ev.Kind, ev.Declaration, ev.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

// SessionEvents returns a session's events in insertion order.
func (s *Store) SessionEvents(session string) ([]Event, error) {
	rows, err := s.db.Query(`
        SELECT session, uri, kind, declaration, recorded_at
        FROM events WHERE session = ? ORDER BY id`,
		session,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, ErrNotFound
	}
	return events, nil
}

// RecentEvents returns the latest n events, newest last.
func (s *Store) RecentEvents(n int) ([]Event, error) {
	rows, err := s.db.Query(`
        SELECT session, uri, kind, declaration, recorded_at FROM (
            SELECT id, session, uri, kind, declaration, recorded_at
            FROM events ORDER BY id DESC LIMIT ?
        ) ORDER BY id`,
		n,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.Session, &ev.URI, &ev.Kind, &ev.Declaration, &ev.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating events: %w", err)
	}
	return events, nil
}

// Journal wraps a Watcher and records every callback under one session
// id per tracking lifetime.
type Journal struct {
	store   *Store
	next    tracker.Watcher
	buffer  *text.Buffer
	session string
}

// NewJournal creates a journaling watcher in front of next. next may
// be nil.
func NewJournal(store *Store, buffer *text.Buffer, next tracker.Watcher) *Journal {
	return &Journal{store: store, next: next, buffer: buffer}
}

func (j *Journal) record(kind, declaration string) {
	if j.session == "" {
		j.session = uuid.NewString()
	}
	if err := j.store.Record(Event{
		Session:     j.session,
		URI:         j.buffer.URI(),
		Kind:        kind,
		Declaration: declaration,
	}); err != nil {
		// Journaling never interferes with tracking.
		return
	}
}

func (j *Journal) EditingStarted(decl lang.Declaration, provider lang.Provider) {
	j.record(KindEditingStarted, decl.Name(j.buffer.Bytes()))
	if j.next != nil {
		j.next.EditingStarted(decl, provider)
	}
}

func (j *Journal) NextSignature(decl lang.Declaration, provider lang.Provider) {
	j.record(KindNextSignature, decl.Name(j.buffer.Bytes()))
	if j.next != nil {
		j.next.NextSignature(decl, provider)
	}
}

func (j *Journal) InconsistentState() {
	j.record(KindInconsistentState, "")
	if j.next != nil {
		j.next.InconsistentState()
	}
}

func (j *Journal) Reset() {
	j.record(KindReset, "")
	// A reset ends the session; the next editingStarted opens a new one.
	j.session = ""
	if j.next != nil {
		j.next.Reset()
	}
}

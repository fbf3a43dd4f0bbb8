package tracker

import (
	"sigtrack/internal/lang"
)

// Watcher receives the tracking lifecycle. Callbacks are push-only and
// run on the session's event stream.
//
// EditingStarted fires once when a signature edit begins on a
// declaration. NextSignature fires after each committed batch of edits
// that still resolves cleanly to the tracked signature.
// InconsistentState fires when the tracked region is syntactically
// broken mid-edit; the session stays alive. Reset fires when tracking
// ends for any reason.
type Watcher interface {
	EditingStarted(decl lang.Declaration, provider lang.Provider)
	NextSignature(decl lang.Declaration, provider lang.Provider)
	InconsistentState()
	Reset()
}

// WatcherFuncs adapts plain functions to the Watcher interface. Nil
// fields are skipped.
type WatcherFuncs struct {
	OnEditingStarted    func(decl lang.Declaration, provider lang.Provider)
	OnNextSignature     func(decl lang.Declaration, provider lang.Provider)
	OnInconsistentState func()
	OnReset             func()
}

func (w WatcherFuncs) EditingStarted(decl lang.Declaration, provider lang.Provider) {
	if w.OnEditingStarted != nil {
		w.OnEditingStarted(decl, provider)
	}
}

func (w WatcherFuncs) NextSignature(decl lang.Declaration, provider lang.Provider) {
	if w.OnNextSignature != nil {
		w.OnNextSignature(decl, provider)
	}
}

func (w WatcherFuncs) InconsistentState() {
	if w.OnInconsistentState != nil {
		w.OnInconsistentState()
	}
}

func (w WatcherFuncs) Reset() {
	if w.OnReset != nil {
		w.OnReset()
	}
}

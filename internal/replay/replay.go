// Package replay drives a full tracking session from a YAML edit
// script: a buffer, a synchronizer and a tracker are wired exactly as
// the LSP host wires them, the scripted edits are applied, and the
// watcher events come back as an ordered log.
package replay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"sigtrack/internal/editor"
	"sigtrack/internal/lang"
	"sigtrack/internal/text"
	"sigtrack/internal/tracker"
	"sigtrack/internal/treesync"
)

// Script is one scripted editing session.
type Script struct {
	Language string `yaml:"language"`
	URI      string `yaml:"uri"`
	Content  string `yaml:"content"`
	Steps    []Step `yaml:"steps"`
}

// Step is one scripted action. Edit steps begin a fresh transaction
// unless SameTransaction is set.
type Step struct {
	// Op is one of insert, delete, replace, commit, reset, suppress.
	Op              string `yaml:"op"`
	At              uint32 `yaml:"at,omitempty"`
	End             uint32 `yaml:"end,omitempty"`
	Text            string `yaml:"text,omitempty"`
	SameTransaction bool   `yaml:"sameTransaction,omitempty"`
}

// Load reads a script file.
func Load(path string) (Script, error) {
	var script Script
	data, err := os.ReadFile(path)
	if err != nil {
		return script, fmt.Errorf("failed to read script: %w", err)
	}
	if err := yaml.Unmarshal(data, &script); err != nil {
		return script, fmt.Errorf("failed to parse script: %w", err)
	}
	if script.Language == "" {
		return script, fmt.Errorf("script has no language")
	}
	if script.URI == "" {
		script.URI = "replay:buffer"
	}
	return script, nil
}

// Run executes the script and returns the watcher event log.
func Run(script Script) ([]string, error) {
	provider, ok := lang.For(script.Language)
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", script.Language)
	}

	var events []string
	logEvent := func(format string, args ...any) {
		events = append(events, fmt.Sprintf(format, args...))
	}

	buf := text.NewBuffer(script.URI, script.Content)
	sync := treesync.NewSynchronizer()
	defer sync.Close()
	views := editor.NewRegistry()

	watcher := tracker.WatcherFuncs{
		OnEditingStarted: func(decl lang.Declaration, _ lang.Provider) {
			logEvent("editingStarted %s", decl.Name(buf.Bytes()))
		},
		OnNextSignature: func(decl lang.Declaration, _ lang.Provider) {
			logEvent("nextSignature %s", decl.Name(buf.Bytes()))
		},
		OnInconsistentState: func() { logEvent("inconsistentState") },
		OnReset:             func() { logEvent("reset") },
	}

	tr := tracker.New(sync, views, watcher)
	if err := tr.Attach(); err != nil {
		return nil, err
	}
	defer tr.Dispose()

	// Synchronizer listeners must register before the tracker's so
	// tree events precede text hooks.
	if err := sync.Track(buf, provider.Sitter()); err != nil {
		return nil, err
	}
	views.Open(buf)
	tr.Observe(buf, script.Language)

	for i, step := range script.Steps {
		if err := runStep(buf, sync, tr, step); err != nil {
			return events, fmt.Errorf("step %d (%s): %w", i, step.Op, err)
		}
	}
	if err := sync.CommitAll(); err != nil {
		return events, err
	}
	buf.EndTransaction()
	return events, nil
}

func runStep(buf *text.Buffer, sync *treesync.Synchronizer, tr *tracker.Tracker, step Step) error {
	edit := func(r text.Range, newText string) error {
		if !step.SameTransaction || buf.Transaction() == nil {
			buf.BeginTransaction()
		}
		return buf.Replace(r, newText)
	}

	switch step.Op {
	case "insert":
		return edit(text.Range{Start: step.At, End: step.At}, step.Text)
	case "delete":
		return edit(text.NewRange(step.At, step.End), "")
	case "replace":
		return edit(text.NewRange(step.At, step.End), step.Text)
	case "commit":
		return sync.CommitAll()
	case "reset":
		tr.Reset()
		return nil
	case "suppress":
		tr.SuppressForCurrentDeclaration()
		return nil
	default:
		return fmt.Errorf("unknown op %q", step.Op)
	}
}

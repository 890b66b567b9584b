// Package presentation turns orchestrator events into what a user sees.
package presentation

import (
	"sync"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

// Icon is the status glyph shown next to the label.
type Icon string

const (
	IconNone    Icon = "none"
	IconSpinner Icon = "spinner"
	IconCheck   Icon = "check"
	IconAlert   Icon = "alert"
)

// Tone is the colour family of the status line.
type Tone string

const (
	ToneMuted Tone = "muted"
	ToneBusy  Tone = "busy"
	ToneOK    Tone = "ok"
	ToneError Tone = "error"
)

// View is the derived presentation of a run state.
type View struct {
	State domain.RunState
	Label string
	Icon  Icon
	Tone  Tone
	Busy  bool
}

// Derive maps a run state and the rewriting flag to its view.
func Derive(state domain.RunState, rewriting bool) View {
	switch state {
	case domain.StateQueued:
		return View{State: state, Label: "Queued", Icon: IconSpinner, Tone: ToneBusy, Busy: true}
	case domain.StateRunning:
		return View{State: state, Label: "Processing…", Icon: IconSpinner, Tone: ToneBusy, Busy: true}
	case domain.StateCompleted:
		if rewriting {
			return View{State: state, Label: "Completed ingestion, generating guide…", Icon: IconSpinner, Tone: ToneBusy, Busy: true}
		}
		return View{State: state, Label: "Completed", Icon: IconCheck, Tone: ToneOK}
	case domain.StateFailed:
		return View{State: state, Label: "Failed", Icon: IconAlert, Tone: ToneError}
	default:
		return View{State: domain.StateIdle, Label: "Not started", Icon: IconNone, Tone: ToneMuted}
	}
}

// Snapshot is a consistent copy of the machine's state.
type Snapshot struct {
	View        View
	RunID       string
	JobID       string
	MarkdownURL string
	Rewriting   bool
	Guide       *domain.Guide
	Err         error
}

// Machine folds orchestrator events into the latest presentation state.
type Machine struct {
	mu    sync.Mutex
	state domain.RunState
	snap  Snapshot
	// OnChange, if set, is called with every new snapshot outside the lock.
	OnChange func(Snapshot)
}

var _ ports.RunObserver = (*Machine)(nil)

// NewMachine starts in the idle state.
func NewMachine() *Machine {
	m := &Machine{state: domain.StateIdle}
	m.snap.View = Derive(domain.StateIdle, false)
	return m
}

// Observe applies an event.
func (m *Machine) Observe(ev domain.Event) {
	m.mu.Lock()
	if ev.RunID != m.snap.RunID {
		m.snap = Snapshot{RunID: ev.RunID}
	}
	m.state = ev.State
	if ev.JobID != "" {
		m.snap.JobID = ev.JobID
	}
	if ev.MarkdownURL != "" {
		m.snap.MarkdownURL = ev.MarkdownURL
	}
	if ev.Guide != nil {
		m.snap.Guide = ev.Guide
	}
	if ev.Err != nil {
		m.snap.Err = ev.Err
	}
	m.snap.Rewriting = ev.Rewriting
	m.snap.View = Derive(m.state, ev.Rewriting)
	out := m.snap
	hook := m.OnChange
	m.mu.Unlock()

	if hook != nil {
		hook(out)
	}
}

// Snapshot returns the current state.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

package domain

// RunState is the orchestrator's view of a run.
type RunState string

const (
	StateIdle      RunState = "idle"
	StateQueued    RunState = "queued"
	StateRunning   RunState = "running"
	StateCompleted RunState = "completed"
	StateFailed    RunState = "failed"
)

// StateFromStatus maps a backend status verbatim onto the run state.
func StateFromStatus(s JobStatus) RunState {
	switch s {
	case JobQueued:
		return StateQueued
	case JobRunning:
		return StateRunning
	case JobCompleted:
		return StateCompleted
	default:
		return StateFailed
	}
}

// Terminal reports whether the run has finished.
func (s RunState) Terminal() bool {
	return s == StateCompleted || s == StateFailed
}

// FileUpload is a document handed to a run.
type FileUpload struct {
	Name    string
	Size    int64
	Content []byte
}

// Guide is the rendered result of a run. It is never persisted.
type Guide struct {
	Markdown string   `json:"markdown,omitempty"`
	HTML     string   `json:"html"`
	Title    string   `json:"title,omitempty"`
	Outline  []string `json:"outline,omitempty"`
}

// Event is emitted by the orchestrator each time the run state changes.
type Event struct {
	RunID       string
	JobID       string
	State       RunState
	MarkdownURL string
	Rewriting   bool
	Guide       *Guide
	Err         error
}

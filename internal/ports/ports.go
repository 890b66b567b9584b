package ports

import (
	"context"
	"io"
	"time"

	"GuideBuilder/internal/domain"
)

// UploadOptions controls how long the backend keeps an uploaded file.
type UploadOptions struct {
	ExpiresInDays int
}

// StatusOptions selects optional sections of a status snapshot.
type StatusOptions struct {
	IncludeMarkdown     bool
	IncludeFileMetadata bool
}

// SubmitResult is the backend's acknowledgement of a submitted job.
type SubmitResult struct {
	JobID string `json:"job_id"`
}

// IngestionClient is the raw contract of the external ingestion backend.
type IngestionClient interface {
	UploadFile(ctx context.Context, r io.Reader, name string, opts UploadOptions) (domain.UploadReference, error)
	SubmitJob(ctx context.Context, in domain.JobInput) (SubmitResult, error)
	GetJobStatus(ctx context.Context, jobID string, opts StatusOptions) (domain.JobStatusSnapshot, error)
}

// IngestionService is the application-level view shared by the mock and the remote backend.
type IngestionService interface {
	Name() string
	UploadFile(ctx context.Context, r io.Reader, name string) (domain.UploadReference, error)
	StartJobFromFile(ctx context.Context, fileID string) (string, error)
	StartJobFromURLs(ctx context.Context, urls []string) (string, error)
	GetJobStatus(ctx context.Context, jobID string) (domain.Job, error)
}

// RunGateway starts runs and reports their job status.
type RunGateway interface {
	StartRun(ctx context.Context, file domain.FileUpload) (domain.RunTicket, error)
	RunStatus(ctx context.Context, jobID string) (domain.Job, error)
}

// ArtifactFetcher downloads a delivered artifact.
type ArtifactFetcher interface {
	FetchMarkdown(ctx context.Context, url string) (string, error)
}

// TextGenerator sends a single prompt to a hosted model and returns its text.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GuideRewriter turns delivered markdown into an HTML guide.
type GuideRewriter interface {
	Rewrite(ctx context.Context, markdown string) (domain.Guide, error)
}

// RunObserver receives orchestrator events in order.
type RunObserver interface {
	Observe(ev domain.Event)
}

// Clock abstracts wall time and cancellable waiting.
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

package ingestion

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

// DefaultMockMarkdownURL is attached to every completed mock job.
const DefaultMockMarkdownURL = "https://example.com/fake-guide.md"

// MockOptions tunes the elapsed-time thresholds of the mock service.
type MockOptions struct {
	// QueuedFor is the elapsed time up to which a job stays queued.
	QueuedFor time.Duration
	// RunningUntil is the elapsed time up to which a job stays running.
	RunningUntil time.Duration
	MarkdownURL  string
	Now          func() time.Time
}

type mockJob struct {
	createdAt time.Time
	fileID    string
}

// MockService fakes the ingestion backend in memory. Status derives from elapsed time only.
type MockService struct {
	opts MockOptions

	mu   sync.RWMutex
	jobs map[string]mockJob
}

var _ ports.IngestionService = (*MockService)(nil)

// NewMockService builds a mock with 2s/5s thresholds unless overridden.
func NewMockService(opts MockOptions) *MockService {
	if opts.QueuedFor <= 0 {
		opts.QueuedFor = 2 * time.Second
	}
	if opts.RunningUntil <= 0 {
		opts.RunningUntil = 5 * time.Second
	}
	if opts.MarkdownURL == "" {
		opts.MarkdownURL = DefaultMockMarkdownURL
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &MockService{opts: opts, jobs: make(map[string]mockJob)}
}

// Name identifies the backend in logs and health output.
func (m *MockService) Name() string {
	return "mock"
}

// UploadFile drains the reader and hands out a fresh file id.
func (m *MockService) UploadFile(ctx context.Context, r io.Reader, name string) (domain.UploadReference, error) {
	size, err := io.Copy(io.Discard, r)
	if err != nil {
		return domain.UploadReference{}, fmt.Errorf("read upload: %w", err)
	}
	return domain.UploadReference{
		ID:            "file_" + uuid.NewString(),
		FileName:      name,
		Size:          size,
		ExpiresInDays: 7,
	}, nil
}

// StartJobFromFile records a new queued job.
func (m *MockService) StartJobFromFile(ctx context.Context, fileID string) (string, error) {
	return m.create(fileID), nil
}

// StartJobFromURLs records a new queued job; the urls are not fetched.
func (m *MockService) StartJobFromURLs(ctx context.Context, urls []string) (string, error) {
	if len(urls) == 0 {
		return "", domain.ValidationError("submit job", "url connector requires at least one url")
	}
	return m.create(""), nil
}

func (m *MockService) create(fileID string) string {
	now := m.opts.Now()
	jobID := fmt.Sprintf("mock_%d_%s", now.UnixMilli(), randomHex(6))

	m.mu.Lock()
	m.jobs[jobID] = mockJob{createdAt: now, fileID: fileID}
	m.mu.Unlock()
	return jobID
}

// GetJobStatus derives the status from elapsed time. Unknown ids report failed, never an error.
func (m *MockService) GetJobStatus(ctx context.Context, jobID string) (domain.Job, error) {
	m.mu.RLock()
	job, ok := m.jobs[jobID]
	m.mu.RUnlock()
	if !ok {
		return domain.Job{ID: jobID, Status: domain.JobFailed}, nil
	}

	status := m.statusAt(m.opts.Now().Sub(job.createdAt))
	out := domain.Job{ID: jobID, Status: status}
	if status == domain.JobCompleted {
		out.MarkdownURL = m.opts.MarkdownURL
	}
	return out, nil
}

func (m *MockService) statusAt(age time.Duration) domain.JobStatus {
	switch {
	case age > m.opts.RunningUntil:
		return domain.JobCompleted
	case age > m.opts.QueuedFor:
		return domain.JobRunning
	default:
		return domain.JobQueued
	}
}

func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Sprintf("%x", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

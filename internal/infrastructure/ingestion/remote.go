package ingestion

import (
	"context"
	"io"
	"log/slog"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

// RemoteOptions holds the submission defaults used against the hosted backend.
type RemoteOptions struct {
	UploadExpiryDays    int
	OutputExpiryMinutes int
}

// RemoteService adapts the raw ingestion client to the application service port.
type RemoteService struct {
	client ports.IngestionClient
	opts   RemoteOptions
	logger *slog.Logger
}

var _ ports.IngestionService = (*RemoteService)(nil)

// NewRemoteService wraps client; zero options fall back to 7 days and 120 minutes.
func NewRemoteService(client ports.IngestionClient, opts RemoteOptions, logger *slog.Logger) *RemoteService {
	if opts.UploadExpiryDays <= 0 {
		opts.UploadExpiryDays = 7
	}
	if opts.OutputExpiryMinutes <= 0 {
		opts.OutputExpiryMinutes = 120
	}
	return &RemoteService{client: client, opts: opts, logger: logger}
}

// Name identifies the backend in logs and health output.
func (s *RemoteService) Name() string {
	return "remote"
}

// UploadFile stores the document with the configured expiry.
func (s *RemoteService) UploadFile(ctx context.Context, r io.Reader, name string) (domain.UploadReference, error) {
	ref, err := s.client.UploadFile(ctx, r, name, ports.UploadOptions{ExpiresInDays: s.opts.UploadExpiryDays})
	if err != nil {
		return domain.UploadReference{}, err
	}
	s.debug("file uploaded", "file_id", ref.ID, "name", name)
	return ref, nil
}

// StartJobFromFile submits a file_upload job for a previously uploaded file.
func (s *RemoteService) StartJobFromFile(ctx context.Context, fileID string) (string, error) {
	return s.submit(ctx, domain.FileUploadConnector(fileID))
}

// StartJobFromURLs submits a url job for remote documents.
func (s *RemoteService) StartJobFromURLs(ctx context.Context, urls []string) (string, error) {
	return s.submit(ctx, domain.URLConnector(urls...))
}

func (s *RemoteService) submit(ctx context.Context, connector domain.Connector) (string, error) {
	res, err := s.client.SubmitJob(ctx, domain.JobInput{
		Connector: connector,
		Output:    domain.SignedURLOutput(s.opts.OutputExpiryMinutes),
	})
	if err != nil {
		return "", err
	}
	s.debug("job submitted", "job_id", res.JobID, "connector", connector.Type)
	return res.JobID, nil
}

// GetJobStatus maps the backend snapshot onto a job, resolving the first markdown delivery.
func (s *RemoteService) GetJobStatus(ctx context.Context, jobID string) (domain.Job, error) {
	snap, err := s.client.GetJobStatus(ctx, jobID, ports.StatusOptions{
		IncludeMarkdown:     false,
		IncludeFileMetadata: true,
	})
	if err != nil {
		return domain.Job{}, err
	}
	return JobFromSnapshot(jobID, snap), nil
}

// JobFromSnapshot converts a raw snapshot into the application job view.
func JobFromSnapshot(jobID string, snap domain.JobStatusSnapshot) domain.Job {
	status, ok := domain.ParseJobStatus(snap.Status)
	if !ok {
		status = domain.JobFailed
	}
	job := domain.Job{ID: jobID, Status: status}
	switch status {
	case domain.JobCompleted:
		job.MarkdownURL = snap.Delivery.FirstMarkdownURL()
	case domain.JobFailed:
		job.Error = snap.FailureDetail()
	}
	return job
}

func (s *RemoteService) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}

package usecase

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

// DefaultUploadName is used when a run is started without a file name.
const DefaultUploadName = "uploaded-document.pdf"

// RunService starts ingestion runs and reports their status over any IngestionService.
type RunService struct {
	ingestion ports.IngestionService
	logger    *slog.Logger
}

var _ ports.RunGateway = (*RunService)(nil)

// NewRunService wires the chosen ingestion backend.
func NewRunService(ingestion ports.IngestionService, logger *slog.Logger) *RunService {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunService{ingestion: ingestion, logger: logger}
}

// Backend names the ingestion implementation in use.
func (s *RunService) Backend() string {
	return s.ingestion.Name()
}

// StartRun uploads the document and submits a job for it.
func (s *RunService) StartRun(ctx context.Context, file domain.FileUpload) (domain.RunTicket, error) {
	if file.Content == nil {
		return domain.RunTicket{}, domain.ValidationError("start run", "No file uploaded.")
	}
	name := strings.TrimSpace(file.Name)
	if name == "" {
		name = DefaultUploadName
	}

	ref, err := s.ingestion.UploadFile(ctx, bytes.NewReader(file.Content), name)
	if err != nil {
		return domain.RunTicket{}, fmt.Errorf("upload %s: %w", name, err)
	}

	jobID, err := s.ingestion.StartJobFromFile(ctx, ref.ID)
	if err != nil {
		return domain.RunTicket{}, fmt.Errorf("start job for %s: %w", ref.ID, err)
	}

	s.logger.Info("run started", "backend", s.ingestion.Name(), "job_id", jobID, "file_id", ref.ID, "file", name)
	return domain.RunTicket{JobID: jobID, FileID: ref.ID, FileName: name}, nil
}

// StartFromURLs submits a job that ingests remote documents.
func (s *RunService) StartFromURLs(ctx context.Context, urls []string) (string, error) {
	jobID, err := s.ingestion.StartJobFromURLs(ctx, urls)
	if err != nil {
		return "", fmt.Errorf("start url job: %w", err)
	}
	s.logger.Info("url job started", "backend", s.ingestion.Name(), "job_id", jobID, "urls", len(urls))
	return jobID, nil
}

// RunStatus reports the normalized job state.
func (s *RunService) RunStatus(ctx context.Context, jobID string) (domain.Job, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return domain.Job{}, domain.ValidationError("run status", "Missing jobId query parameter.")
	}
	job, err := s.ingestion.GetJobStatus(ctx, jobID)
	if err != nil {
		return domain.Job{}, fmt.Errorf("status of %s: %w", jobID, err)
	}
	return job, nil
}

package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

const defaultMaxUploadBytes = 50 << 20

// URLJobStarter submits ingestion jobs for remote documents.
type URLJobStarter interface {
	StartFromURLs(ctx context.Context, urls []string) (string, error)
}

// HandlerDeps wires the use cases behind the HTTP surface.
type HandlerDeps struct {
	Runs           ports.RunGateway
	URLJobs        URLJobStarter
	Rewriter       ports.GuideRewriter
	Backend        string
	SampleURL      string
	MaxUploadBytes int64
	Logger         *slog.Logger
}

// Handler serves the guide run endpoints.
type Handler struct {
	runs           ports.RunGateway
	urlJobs        URLJobStarter
	rewriter       ports.GuideRewriter
	backend        string
	sampleURL      string
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewHandler constructs the handler set.
func NewHandler(deps HandlerDeps) *Handler {
	if deps.MaxUploadBytes <= 0 {
		deps.MaxUploadBytes = defaultMaxUploadBytes
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Handler{
		runs:           deps.Runs,
		urlJobs:        deps.URLJobs,
		rewriter:       deps.Rewriter,
		backend:        deps.Backend,
		sampleURL:      deps.SampleURL,
		maxUploadBytes: deps.MaxUploadBytes,
		logger:         deps.Logger,
	}
}

// RunStartedResponse is returned by POST /api/runs.
type RunStartedResponse struct {
	OK       bool   `json:"ok"`
	JobID    string `json:"jobId"`
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

// RunStatusResponse is returned by GET /api/runs/status.
type RunStatusResponse struct {
	OK  bool       `json:"ok"`
	Job domain.Job `json:"job"`
}

// RewriteRequest is the body of POST /api/rewrite-guide.
type RewriteRequest struct {
	Markdown string `json:"markdown"`
}

// RewriteResponse is returned by POST /api/rewrite-guide.
type RewriteResponse struct {
	OK      bool     `json:"ok"`
	HTML    string   `json:"html"`
	Title   string   `json:"title,omitempty"`
	Outline []string `json:"outline,omitempty"`
}

// TestIngestResponse is returned by GET /api/test-ingest.
type TestIngestResponse struct {
	OK    bool   `json:"ok"`
	JobID string `json:"jobId"`
}

// ErrorResponse is the failure envelope of every endpoint.
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

// StartRun accepts a multipart upload and starts an ingestion run.
func (h *Handler) StartRun(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Error: "Uploaded file is too large."})
			return
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded."})
		return
	}

	f, err := header.Open()
	if err != nil {
		h.fail(c, "open upload", err)
		return
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		h.fail(c, "read upload", err)
		return
	}

	ticket, err := h.runs.StartRun(c.Request.Context(), domain.FileUpload{
		Name:    header.Filename,
		Size:    header.Size,
		Content: content,
	})
	if err != nil {
		h.fail(c, "start run", err)
		return
	}

	c.JSON(http.StatusOK, RunStartedResponse{
		OK:       true,
		JobID:    ticket.JobID,
		FileID:   ticket.FileID,
		FileName: ticket.FileName,
	})
}

// RunStatus reports the normalized status of a job.
func (h *Handler) RunStatus(c *gin.Context) {
	jobID := strings.TrimSpace(c.Query("jobId"))
	if jobID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Missing jobId query parameter."})
		return
	}

	job, err := h.runs.RunStatus(c.Request.Context(), jobID)
	if err != nil {
		h.fail(c, "run status", err)
		return
	}
	c.JSON(http.StatusOK, RunStatusResponse{OK: true, Job: job})
}

// RewriteGuide turns posted markdown into an HTML guide fragment.
func (h *Handler) RewriteGuide(c *gin.Context) {
	var req RewriteRequest
	// An unparsable body is reported like an empty one.
	_ = c.ShouldBindJSON(&req)

	guide, err := h.rewriter.Rewrite(c.Request.Context(), req.Markdown)
	if err != nil {
		h.fail(c, "rewrite guide", err)
		return
	}
	c.JSON(http.StatusOK, RewriteResponse{
		OK:      true,
		HTML:    guide.HTML,
		Title:   guide.Title,
		Outline: guide.Outline,
	})
}

// TestIngest submits a url-connector job for a sample document.
func (h *Handler) TestIngest(c *gin.Context) {
	if h.urlJobs == nil {
		c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "URL ingestion is not available."})
		return
	}
	target := strings.TrimSpace(c.Query("url"))
	if target == "" {
		target = h.sampleURL
	}
	if target == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No sample URL configured."})
		return
	}

	jobID, err := h.urlJobs.StartFromURLs(c.Request.Context(), []string{target})
	if err != nil {
		h.fail(c, "test ingest", err)
		return
	}
	c.JSON(http.StatusOK, TestIngestResponse{OK: true, JobID: jobID})
}

// Health reports liveness and the ingestion backend in use.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true, "ingestion": h.backend})
}

func (h *Handler) fail(c *gin.Context, op string, err error) {
	status := http.StatusInternalServerError
	message := err.Error()

	var de *domain.Error
	if errors.As(err, &de) && de.Kind == domain.KindValidation {
		status = http.StatusBadRequest
		message = de.Message
	}

	_ = c.Error(err)
	h.logger.Error(op, "error", err, "status", status)
	c.JSON(status, ErrorResponse{Error: message})
}

package ingestion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

const errorBodyLimit = 1024

// Client talks to the hosted data-ingestion REST API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ ports.IngestionClient = (*Client)(nil)

// NewClient creates a reusable HTTP client; a nil httpClient gets the given timeout.
func NewClient(baseURL, token string, timeout time.Duration, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// FileList is the response of the file listing endpoint.
type FileList struct {
	Files []domain.UploadReference `json:"files"`
}

// UploadFile stores a document with the backend and returns its reference.
func (c *Client) UploadFile(ctx context.Context, r io.Reader, name string, opts ports.UploadOptions) (domain.UploadReference, error) {
	const op = "upload file"
	if strings.TrimSpace(name) == "" {
		return domain.UploadReference{}, domain.ValidationError(op, "file name is required")
	}

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	part, err := form.CreateFormFile("file", name)
	if err != nil {
		return domain.UploadReference{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return domain.UploadReference{}, fmt.Errorf("copy file content: %w", err)
	}
	if opts.ExpiresInDays > 0 {
		if err := form.WriteField("expires_in_days", strconv.Itoa(opts.ExpiresInDays)); err != nil {
			return domain.UploadReference{}, fmt.Errorf("write expiry field: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return domain.UploadReference{}, fmt.Errorf("close multipart body: %w", err)
	}

	var ref domain.UploadReference
	if err := c.do(ctx, op, http.MethodPost, "/v1/files", form.FormDataContentType(), &body, &ref); err != nil {
		return domain.UploadReference{}, err
	}
	if ref.ID == "" {
		return domain.UploadReference{}, domain.ProtocolError(op, "response is missing id", nil)
	}
	if ref.FileName == "" {
		ref.FileName = name
	}
	ref.ExpiresInDays = opts.ExpiresInDays
	return ref, nil
}

// SubmitJob starts an ingestion job for the given input.
func (c *Client) SubmitJob(ctx context.Context, in domain.JobInput) (ports.SubmitResult, error) {
	const op = "submit job"
	if err := in.Validate(); err != nil {
		return ports.SubmitResult{}, err
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return ports.SubmitResult{}, fmt.Errorf("marshal job input: %w", err)
	}

	var res ports.SubmitResult
	if err := c.do(ctx, op, http.MethodPost, "/v1/jobs", "application/json", bytes.NewReader(payload), &res); err != nil {
		return ports.SubmitResult{}, err
	}
	if res.JobID == "" {
		return ports.SubmitResult{}, domain.ProtocolError(op, "response is missing job_id", nil)
	}
	return res, nil
}

// GetJobStatus fetches the current status snapshot of a job.
func (c *Client) GetJobStatus(ctx context.Context, jobID string, opts ports.StatusOptions) (domain.JobStatusSnapshot, error) {
	const op = "get job status"
	if strings.TrimSpace(jobID) == "" {
		return domain.JobStatusSnapshot{}, domain.ValidationError(op, "job id is required")
	}

	query := url.Values{}
	query.Set("include_markdown", strconv.FormatBool(opts.IncludeMarkdown))
	query.Set("include_file_metadata", strconv.FormatBool(opts.IncludeFileMetadata))
	path := "/v1/jobs/" + url.PathEscape(jobID) + "?" + query.Encode()

	var snap domain.JobStatusSnapshot
	if err := c.do(ctx, op, http.MethodGet, path, "", nil, &snap); err != nil {
		return domain.JobStatusSnapshot{}, err
	}
	if _, ok := domain.ParseJobStatus(snap.Status); !ok {
		return domain.JobStatusSnapshot{}, domain.ProtocolError(op, fmt.Sprintf("unknown job status %q", snap.Status), nil)
	}
	if snap.JobID == "" {
		snap.JobID = jobID
	}
	return snap, nil
}

// ListFiles returns the files currently stored with the backend.
func (c *Client) ListFiles(ctx context.Context) (FileList, error) {
	var list FileList
	if err := c.do(ctx, "list files", http.MethodGet, "/v1/files", "", nil, &list); err != nil {
		return FileList{}, err
	}
	return list, nil
}

func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, v any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.TransportError(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyLimit))
		var cause error
		if text := strings.TrimSpace(string(snippet)); text != "" {
			cause = errors.New(text)
		}
		return domain.TransportError(op, resp.StatusCode, cause)
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return domain.ProtocolError(op, "decode response", err)
	}
	return nil
}

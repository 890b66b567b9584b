// Package apiclient talks to a running GuideBuilder server.
package apiclient

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
	"strings"
	"time"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

// Client drives runs through the HTTP surface, as a browser would.
type Client struct {
	baseURL string
	http    *http.Client
}

var (
	_ ports.RunGateway    = (*Client)(nil)
	_ ports.GuideRewriter = (*Client)(nil)
)

type envelope struct {
	OK      bool       `json:"ok"`
	Error   string     `json:"error"`
	JobID   string     `json:"jobId"`
	FileID  string     `json:"fileId"`
	File    string     `json:"fileName"`
	Job     domain.Job `json:"job"`
	HTML    string     `json:"html"`
	Title   string     `json:"title"`
	Outline []string   `json:"outline"`
}

// New builds a client for baseURL; a nil httpClient gets a 60s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// StartRun posts the document to /api/runs.
func (c *Client) StartRun(ctx context.Context, file domain.FileUpload) (domain.RunTicket, error) {
	const op = "start run"

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", file.Name)
	if err != nil {
		return domain.RunTicket{}, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(file.Content); err != nil {
		return domain.RunTicket{}, fmt.Errorf("write form file: %w", err)
	}
	if err := w.Close(); err != nil {
		return domain.RunTicket{}, fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/runs", &buf)
	if err != nil {
		return domain.RunTicket{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	env, err := c.do(req, op)
	if err != nil {
		return domain.RunTicket{}, err
	}
	return domain.RunTicket{JobID: env.JobID, FileID: env.FileID, FileName: env.File}, nil
}

// RunStatus queries /api/runs/status.
func (c *Client) RunStatus(ctx context.Context, jobID string) (domain.Job, error) {
	const op = "run status"
	endpoint := c.baseURL + "/api/runs/status?jobId=" + url.QueryEscape(jobID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return domain.Job{}, fmt.Errorf("build request: %w", err)
	}

	env, err := c.do(req, op)
	if err != nil {
		return domain.Job{}, err
	}
	if _, ok := domain.ParseJobStatus(string(env.Job.Status)); !ok {
		return domain.Job{}, domain.ProtocolError(op, fmt.Sprintf("unknown status %q", env.Job.Status), nil)
	}
	return env.Job, nil
}

// Rewrite posts markdown to /api/rewrite-guide.
func (c *Client) Rewrite(ctx context.Context, markdown string) (domain.Guide, error) {
	const op = "rewrite guide"
	body, err := json.Marshal(map[string]string{"markdown": markdown})
	if err != nil {
		return domain.Guide{}, fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/rewrite-guide", bytes.NewReader(body))
	if err != nil {
		return domain.Guide{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	env, err := c.do(req, op)
	if err != nil {
		return domain.Guide{}, err
	}
	return domain.Guide{Markdown: markdown, HTML: env.HTML, Title: env.Title, Outline: env.Outline}, nil
}

func (c *Client) do(req *http.Request, op string) (envelope, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return envelope{}, domain.TransportError(op, 0, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return envelope{}, domain.TransportError(op, resp.StatusCode, err)
	}

	var env envelope
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &env); err != nil {
			return envelope{}, domain.ProtocolError(op, fmt.Sprintf("non-JSON response (status %d)", resp.StatusCode), err)
		}
	}

	if resp.StatusCode == http.StatusBadRequest {
		msg := env.Error
		if msg == "" {
			msg = "bad request"
		}
		return envelope{}, domain.ValidationError(op, msg)
	}
	if resp.StatusCode >= 300 || !env.OK {
		var cause error
		if env.Error != "" {
			cause = errors.New(env.Error)
		}
		return envelope{}, domain.TransportError(op, resp.StatusCode, cause)
	}
	return env, nil
}

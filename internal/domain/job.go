package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// JobStatus is the lifecycle state reported by the ingestion backend.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

var allowedTransitions = map[JobStatus]map[JobStatus]bool{
	JobQueued: {
		JobQueued:  true,
		JobRunning: true,
		JobFailed:  true,
	},
	JobRunning: {
		JobRunning:   true,
		JobCompleted: true,
		JobFailed:    true,
	},
	JobCompleted: {
		JobCompleted: true,
	},
	JobFailed: {
		JobFailed: true,
	},
}

// ParseJobStatus accepts the backend's status strings.
func ParseJobStatus(raw string) (JobStatus, bool) {
	status := JobStatus(raw)
	_, ok := allowedTransitions[status]
	return status, ok
}

// Terminal reports whether no further transitions can happen.
func (s JobStatus) Terminal() bool {
	return s == JobCompleted || s == JobFailed
}

// CanTransition reports whether a job may move from one status to another.
func CanTransition(from, to JobStatus) bool {
	next, ok := allowedTransitions[from]
	if !ok {
		return false
	}
	return next[to]
}

// Job is the application view of an ingestion job.
type Job struct {
	ID          string    `json:"jobId"`
	Status      JobStatus `json:"status"`
	MarkdownURL string    `json:"markdownUrl,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Advance applies a newly observed status, rejecting backward moves.
func (j *Job) Advance(next Job) error {
	if j.Status != "" && !CanTransition(j.Status, next.Status) {
		return fmt.Errorf("invalid job status transition: %q -> %q (job_id=%s)", j.Status, next.Status, j.ID)
	}
	j.Status = next.Status
	if next.MarkdownURL != "" {
		j.MarkdownURL = next.MarkdownURL
	}
	if next.Error != "" {
		j.Error = next.Error
	}
	return nil
}

// Delivery describes the artifacts produced for one ingested file.
type Delivery struct {
	MarkdownURL string `json:"markdown_delivery,omitempty"`
	JSONURL     string `json:"json_delivery,omitempty"`
}

// DeliveryMap maps an artifact key to its delivery descriptor.
type DeliveryMap map[string]Delivery

// FirstMarkdownURL returns the markdown URL of the first entry in key order.
func (d DeliveryMap) FirstMarkdownURL() string {
	if len(d) == 0 {
		return ""
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return d[keys[0]].MarkdownURL
}

// UploadReference is returned after the backend stores a file.
type UploadReference struct {
	ID            string     `json:"id"`
	FileName      string     `json:"filename,omitempty"`
	Size          int64      `json:"size,omitempty"`
	ExpiresInDays int        `json:"expiresInDays,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// FileMetadata is the per-file information included in status snapshots.
type FileMetadata struct {
	ID       string `json:"id"`
	FileName string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
}

// JobStatusSnapshot is the raw status response of the ingestion backend.
type JobStatusSnapshot struct {
	JobID    string         `json:"job_id"`
	Status   string         `json:"status"`
	Delivery DeliveryMap    `json:"delivery,omitempty"`
	Markdown string         `json:"markdown,omitempty"`
	Files    []FileMetadata `json:"files,omitempty"`
	Err      any            `json:"error,omitempty"`
	Errs     any            `json:"errors,omitempty"`
}

// FailureDetail extracts a human readable reason from error, then errors.
func (s JobStatusSnapshot) FailureDetail() string {
	for _, v := range []any{s.Err, s.Errs} {
		if detail := describe(v); detail != "" {
			return detail
		}
	}
	return "Unknown error"
}

func describe(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case map[string]any:
		for _, key := range []string{"message", "detail", "code"} {
			if msg, ok := val[key].(string); ok && msg != "" {
				return msg
			}
		}
		if len(val) == 0 {
			return ""
		}
		if raw, err := json.Marshal(val); err == nil {
			return string(raw)
		}
	case []any:
		if len(val) == 0 {
			return ""
		}
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if d := describe(item); d != "" {
				parts = append(parts, d)
			}
		}
		if len(parts) > 0 {
			return strings.Join(parts, "; ")
		}
	}
	return fmt.Sprint(v)
}

// RunTicket is what a caller gets back after starting a run.
type RunTicket struct {
	JobID    string `json:"jobId"`
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

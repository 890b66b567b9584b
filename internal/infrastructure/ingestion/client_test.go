package ingestion

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/ports"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL+"/", "secret", 5*time.Second, nil)
}

func TestClientUploadFile(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/files" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file part: %v", err)
			http.Error(w, "bad", http.StatusBadRequest)
			return
		}
		content, _ := io.ReadAll(file)
		if header.Filename != "manual.pdf" || string(content) != "%PDF-1.7" {
			t.Errorf("unexpected part %s %q", header.Filename, content)
		}
		if got := r.FormValue("expires_in_days"); got != "7" {
			t.Errorf("unexpected expiry %q", got)
		}
		_, _ = w.Write([]byte(`{"id":"file_1","size":8}`))
	})

	ref, err := client.UploadFile(context.Background(), strings.NewReader("%PDF-1.7"), "manual.pdf", ports.UploadOptions{ExpiresInDays: 7})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if ref.ID != "file_1" || ref.FileName != "manual.pdf" || ref.ExpiresInDays != 7 {
		t.Fatalf("unexpected reference: %+v", ref)
	}
}

func TestClientUploadRequiresName(t *testing.T) {
	t.Parallel()

	client := NewClient("http://127.0.0.1:1", "", time.Second, nil)
	_, err := client.UploadFile(context.Background(), strings.NewReader("x"), " ", ports.UploadOptions{})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientSubmitJob(t *testing.T) {
	t.Parallel()

	var got domain.JobInput
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs" || r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected request %s %s", r.URL.Path, r.Header.Get("Content-Type"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_, _ = w.Write([]byte(`{"job_id":"job_9"}`))
	})

	res, err := client.SubmitJob(context.Background(), domain.JobInput{
		Connector: domain.URLConnector("https://example.com/a.pdf"),
		Output:    domain.SignedURLOutput(120),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if res.JobID != "job_9" {
		t.Fatalf("unexpected job id %q", res.JobID)
	}
	if got.Connector.Type != domain.ConnectorURL || got.Output.ExpiresMinutes != 120 {
		t.Fatalf("unexpected submitted input: %+v", got)
	}
}

func TestClientSubmitJobRejectsInvalidInputLocally(t *testing.T) {
	t.Parallel()

	called := false
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		called = true
	})
	_, err := client.SubmitJob(context.Background(), domain.JobInput{
		Connector: domain.FileUploadConnector(),
		Output:    domain.SignedURLOutput(0),
	})
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if called {
		t.Fatalf("invalid input must not reach the backend")
	}
}

func TestClientSubmitJobMissingJobID(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})
	_, err := client.SubmitJob(context.Background(), domain.JobInput{
		Connector: domain.FileUploadConnector("f"),
		Output:    domain.SignedURLOutput(0),
	})
	if !domain.IsKind(err, domain.KindProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

func TestClientGetJobStatus(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/jobs/job_1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("include_markdown") != "false" || q.Get("include_file_metadata") != "true" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"status":"completed","delivery":{"a.pdf":{"markdown_delivery":"https://cdn/a.md"}}}`))
	})

	snap, err := client.GetJobStatus(context.Background(), "job_1", ports.StatusOptions{IncludeFileMetadata: true})
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if snap.JobID != "job_1" || snap.Delivery.FirstMarkdownURL() != "https://cdn/a.md" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestClientGetJobStatusErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		status int
		body   string
		kind   domain.ErrorKind
	}{
		{"unknown status", http.StatusOK, `{"status":"paused"}`, domain.KindProtocol},
		{"not json", http.StatusOK, `<html>`, domain.KindProtocol},
		{"upstream error", http.StatusBadGateway, `gateway down`, domain.KindTransport},
		{"not found", http.StatusNotFound, ``, domain.KindTransport},
	}
	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			_, _ = w.Write([]byte(tc.body))
		})
		_, err := client.GetJobStatus(context.Background(), "job_1", ports.StatusOptions{})
		if !domain.IsKind(err, tc.kind) {
			t.Fatalf("%s: expected %s, got %v", tc.name, tc.kind, err)
		}
		if tc.kind == domain.KindTransport {
			var de *domain.Error
			if !errors.As(err, &de) || de.Status != tc.status {
				t.Fatalf("%s: status not carried: %v", tc.name, err)
			}
		}
	}

	client := NewClient("http://127.0.0.1:1", "", time.Second, nil)
	if _, err := client.GetJobStatus(context.Background(), "", ports.StatusOptions{}); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("blank job id should be a validation error, got %v", err)
	}
}

func TestClientListFiles(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"files":[{"id":"a"},{"id":"b"},{"id":"c"}]}`))
	})
	list, err := client.ListFiles(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list.Files) != 3 {
		t.Fatalf("unexpected files: %+v", list)
	}
}

package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/infrastructure/ingestion"
	"GuideBuilder/internal/logging"
	"GuideBuilder/internal/transport/httpapi"
	"GuideBuilder/internal/usecase"
)

type fixedGenerator struct{ reply string }

func (g fixedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.reply, nil
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	runs := usecase.NewRunService(ingestion.NewMockService(ingestion.MockOptions{}), logging.Discard())
	h := httpapi.NewHandler(httpapi.HandlerDeps{
		Runs:     runs,
		URLJobs:  runs,
		Rewriter: usecase.NewRewriter(fixedGenerator{reply: "<h1>Guide</h1>"}, usecase.RewriterOptions{}, logging.Discard()),
		Backend:  runs.Backend(),
		Logger:   logging.Discard(),
	})
	srv := httptest.NewServer(httpapi.NewServer(h, logging.Discard()))
	t.Cleanup(srv.Close)
	return srv
}

func TestClientRoundTrip(t *testing.T) {
	t.Parallel()

	srv := newAPI(t)
	client := New(srv.URL+"/", srv.Client())
	ctx := context.Background()

	ticket, err := client.StartRun(ctx, domain.FileUpload{Name: "sample.pdf", Content: []byte("%PDF")})
	if err != nil {
		t.Fatalf("StartRun returned error: %v", err)
	}
	if !strings.HasPrefix(ticket.JobID, "mock_") || ticket.FileName != "sample.pdf" {
		t.Fatalf("unexpected ticket: %+v", ticket)
	}

	job, err := client.RunStatus(ctx, ticket.JobID)
	if err != nil {
		t.Fatalf("RunStatus returned error: %v", err)
	}
	if job.ID != ticket.JobID || job.Status != domain.JobQueued {
		t.Fatalf("unexpected job: %+v", job)
	}

	unknown, err := client.RunStatus(ctx, "nope")
	if err != nil {
		t.Fatalf("RunStatus for unknown id returned error: %v", err)
	}
	if unknown.Status != domain.JobFailed {
		t.Fatalf("unknown id should be failed, got %s", unknown.Status)
	}

	guide, err := client.Rewrite(ctx, "# Guide")
	if err != nil {
		t.Fatalf("Rewrite returned error: %v", err)
	}
	if guide.HTML != "<h1>Guide</h1>" || guide.Title != "Guide" {
		t.Fatalf("unexpected guide: %+v", guide)
	}
}

func TestClientMapsValidationErrors(t *testing.T) {
	t.Parallel()

	srv := newAPI(t)
	client := New(srv.URL, srv.Client())

	_, err := client.Rewrite(context.Background(), "  ")
	if !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "markdown") {
		t.Fatalf("server message lost: %v", err)
	}
}

func TestClientMapsServerErrors(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"ok":false,"error":"ingestion down"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, srv.Client()).RunStatus(context.Background(), "job")
	if !domain.IsKind(err, domain.KindTransport) || !strings.Contains(err.Error(), "ingestion down") {
		t.Fatalf("unexpected error: %v", err)
	}

	html := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>oops</html>"))
	}))
	defer html.Close()

	_, err = New(html.URL, html.Client()).RunStatus(context.Background(), "job")
	if !domain.IsKind(err, domain.KindProtocol) {
		t.Fatalf("expected protocol error, got %v", err)
	}
}

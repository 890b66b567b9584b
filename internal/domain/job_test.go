package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCanTransition(t *testing.T) {
	t.Parallel()

	allowed := [][2]JobStatus{
		{JobQueued, JobQueued},
		{JobQueued, JobRunning},
		{JobQueued, JobFailed},
		{JobRunning, JobRunning},
		{JobRunning, JobCompleted},
		{JobRunning, JobFailed},
		{JobCompleted, JobCompleted},
		{JobFailed, JobFailed},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Fatalf("%s -> %s should be allowed", tr[0], tr[1])
		}
	}

	rejected := [][2]JobStatus{
		{JobRunning, JobQueued},
		{JobCompleted, JobRunning},
		{JobCompleted, JobFailed},
		{JobFailed, JobCompleted},
		{JobFailed, JobQueued},
		{JobStatus("bogus"), JobQueued},
	}
	for _, tr := range rejected {
		if CanTransition(tr[0], tr[1]) {
			t.Fatalf("%s -> %s should be rejected", tr[0], tr[1])
		}
	}
}

func TestJobAdvance(t *testing.T) {
	t.Parallel()

	job := Job{ID: "j", Status: JobQueued}
	if err := job.Advance(Job{Status: JobRunning}); err != nil {
		t.Fatalf("queued -> running: %v", err)
	}
	if err := job.Advance(Job{Status: JobCompleted, MarkdownURL: "https://example.com/a.md"}); err != nil {
		t.Fatalf("running -> completed: %v", err)
	}
	if err := job.Advance(Job{Status: JobRunning}); err == nil {
		t.Fatalf("completed -> running must fail")
	}
	if job.Status != JobCompleted || job.MarkdownURL != "https://example.com/a.md" {
		t.Fatalf("rejected transition must not mutate the job: %+v", job)
	}
}

func TestParseJobStatus(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"queued", "running", "completed", "failed"} {
		if _, ok := ParseJobStatus(raw); !ok {
			t.Fatalf("%q should parse", raw)
		}
	}
	if _, ok := ParseJobStatus("done"); ok {
		t.Fatalf("unknown status should not parse")
	}
	if !JobFailed.Terminal() || !JobCompleted.Terminal() || JobRunning.Terminal() {
		t.Fatalf("unexpected terminal classification")
	}
}

func TestFirstMarkdownURLUsesKeyOrder(t *testing.T) {
	t.Parallel()

	d := DeliveryMap{
		"zeta.pdf":  {MarkdownURL: "https://example.com/z.md"},
		"alpha.pdf": {MarkdownURL: "https://example.com/a.md"},
	}
	if got := d.FirstMarkdownURL(); got != "https://example.com/a.md" {
		t.Fatalf("unexpected url: %s", got)
	}
	if got := (DeliveryMap{}).FirstMarkdownURL(); got != "" {
		t.Fatalf("empty map should have no url, got %s", got)
	}
}

func TestFailureDetail(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"string error", `{"status":"failed","error":"bad file"}`, "bad file"},
		{"object error", `{"status":"failed","error":{"message":"timeout"}}`, "timeout"},
		{"errors list", `{"status":"failed","errors":[{"message":"a"},"b"]}`, "a; b"},
		{"error wins over errors", `{"status":"failed","error":"first","errors":["second"]}`, "first"},
		{"detail key", `{"status":"failed","error":{"detail":"unsupported format"}}`, "unsupported format"},
		{"code only", `{"status":"failed","error":{"code":"E42"}}`, "E42"},
		{"unknown object", `{"status":"failed","error":{"reason":42}}`, `{"reason":42}`},
		{"nothing", `{"status":"failed"}`, "Unknown error"},
		{"empty list", `{"status":"failed","errors":[]}`, "Unknown error"},
	}
	for _, tc := range cases {
		var snap JobStatusSnapshot
		if err := json.Unmarshal([]byte(tc.body), &snap); err != nil {
			t.Fatalf("%s: decode: %v", tc.name, err)
		}
		if got := snap.FailureDetail(); got != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.name, tc.want, got)
		}
	}
}

func TestJobInputValidate(t *testing.T) {
	t.Parallel()

	ok := JobInput{Connector: FileUploadConnector("f1"), Output: SignedURLOutput(120)}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid input rejected: %v", err)
	}

	raw, err := json.Marshal(ok)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(raw) != `{"connector":{"type":"file_upload","file_ids":["f1"]},"output":{"type":"s3-signed-url","expires_minutes":120}}` {
		t.Fatalf("unexpected wire form: %s", raw)
	}

	bad := []JobInput{
		{Connector: FileUploadConnector(), Output: SignedURLOutput(0)},
		{Connector: URLConnector(), Output: SignedURLOutput(0)},
		{Connector: Connector{Type: ConnectorURL, URLs: []string{"u"}, FileIDs: []string{"f"}}, Output: SignedURLOutput(0)},
		{Connector: Connector{Type: "ftp"}, Output: SignedURLOutput(0)},
		{Connector: URLConnector("u"), Output: Output{Type: "inline"}},
	}
	for i, in := range bad {
		if err := in.Validate(); !IsKind(err, KindValidation) {
			t.Fatalf("case %d: expected validation error, got %v", i, err)
		}
	}
}

func TestErrorKinds(t *testing.T) {
	t.Parallel()

	base := TransportError("get job status", 502, errors.New("bad gateway"))
	wrapped := fmt.Errorf("outer: %w", base)
	if KindOf(wrapped) != KindTransport || !IsKind(wrapped, KindTransport) {
		t.Fatalf("kind lost through wrapping")
	}
	if !strings.Contains(base.Error(), "upstream returned status 502") {
		t.Fatalf("unexpected message: %s", base.Error())
	}
	if IsKind(nil, KindTransport) || KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors have no kind")
	}

	failed := JobFailedError("job-1", "")
	if failed.Message != "Unknown error" {
		t.Fatalf("unexpected fallback detail: %s", failed.Message)
	}
	timeout := TimeoutError("job-1", 90*time.Second)
	if !strings.Contains(timeout.Error(), "1m30s") {
		t.Fatalf("unexpected timeout message: %s", timeout.Error())
	}
}

func TestStateFromStatus(t *testing.T) {
	t.Parallel()

	pairs := map[JobStatus]RunState{
		JobQueued:    StateQueued,
		JobRunning:   StateRunning,
		JobCompleted: StateCompleted,
		JobFailed:    StateFailed,
	}
	for status, state := range pairs {
		if got := StateFromStatus(status); got != state {
			t.Fatalf("%s: expected %s, got %s", status, state, got)
		}
	}
	if StateIdle.Terminal() || !StateFailed.Terminal() {
		t.Fatalf("unexpected terminal run states")
	}
}

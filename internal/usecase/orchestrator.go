package usecase

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/infrastructure/clock"
	"GuideBuilder/internal/ports"
)

// DefaultPollInterval separates two consecutive status fetches.
const DefaultPollInterval = 2 * time.Second

// OrchestratorDeps wires the driven adapters of a guide run.
type OrchestratorDeps struct {
	Runs      ports.RunGateway
	Fetcher   ports.ArtifactFetcher
	Rewriter  ports.GuideRewriter
	Clock     ports.Clock
	Observers []ports.RunObserver
	Logger    *slog.Logger
	// Interval is the delay between the end of one poll and the start of the next.
	Interval time.Duration
	// MaxWait of zero polls until a terminal status.
	MaxWait time.Duration
}

// Outcome is the final view of a run returned by Orchestrator.Run.
type Outcome struct {
	RunID       string
	JobID       string
	State       domain.RunState
	MarkdownURL string
	Guide       *domain.Guide
	Err         error
}

// Orchestrator drives one document through upload, polling, fetch and rewrite.
type Orchestrator struct {
	runs      ports.RunGateway
	fetcher   ports.ArtifactFetcher
	rewriter  ports.GuideRewriter
	clock     ports.Clock
	observers []ports.RunObserver
	logger    *slog.Logger
	interval  time.Duration
	maxWait   time.Duration

	mu        sync.Mutex
	entropy   *ulid.MonotonicEntropy
	rewritten map[string]bool
}

// NewOrchestrator constructs the run orchestrator.
func NewOrchestrator(deps OrchestratorDeps) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = DefaultPollInterval
	}
	return &Orchestrator{
		runs:      deps.Runs,
		fetcher:   deps.Fetcher,
		rewriter:  deps.Rewriter,
		clock:     deps.Clock,
		observers: deps.Observers,
		logger:    deps.Logger,
		interval:  deps.Interval,
		maxWait:   deps.MaxWait,
		entropy:   ulid.Monotonic(rand.Reader, 0),
		rewritten: make(map[string]bool),
	}
}

// Run executes a full guide run. Cancelling ctx stops the run at the next
// checkpoint; calls already in flight finish but their results are dropped and
// no further events are emitted. The returned error is ctx.Err() after
// cancellation, otherwise the same error as Outcome.Err.
func (o *Orchestrator) Run(ctx context.Context, file domain.FileUpload) (Outcome, error) {
	if o.runs == nil {
		return Outcome{State: domain.StateIdle}, fmt.Errorf("orchestrator: run gateway not configured")
	}

	out := Outcome{RunID: o.newRunID(), State: domain.StateIdle}
	logger := o.logger.With("run_id", out.RunID)
	calls := context.WithoutCancel(ctx)

	if err := ctx.Err(); err != nil {
		return out, err
	}

	ticket, err := o.runs.StartRun(calls, file)
	if cErr := ctx.Err(); cErr != nil {
		logger.Info("run cancelled during submit")
		return out, cErr
	}
	if err != nil {
		logger.Error("start run", "error", err)
		return o.fail(out, err)
	}

	out.JobID = ticket.JobID
	out.State = domain.StateQueued
	logger = logger.With("job_id", ticket.JobID)
	logger.Info("job submitted", "file", ticket.FileName, "file_id", ticket.FileID)
	o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State})

	return o.poll(ctx, calls, out, logger)
}

// Watch polls an already submitted job to completion.
func (o *Orchestrator) Watch(ctx context.Context, jobID string) (Outcome, error) {
	if o.runs == nil {
		return Outcome{JobID: jobID, State: domain.StateIdle}, fmt.Errorf("orchestrator: run gateway not configured")
	}
	out := Outcome{RunID: o.newRunID(), JobID: jobID, State: domain.StateQueued}
	if jobID == "" {
		return o.fail(out, domain.ValidationError("watch job", "job id is required"))
	}
	logger := o.logger.With("run_id", out.RunID, "job_id", jobID)
	return o.poll(ctx, context.WithoutCancel(ctx), out, logger)
}

func (o *Orchestrator) poll(ctx, calls context.Context, out Outcome, logger *slog.Logger) (Outcome, error) {
	started := o.clock.Now()
	current := domain.Job{ID: out.JobID, Status: domain.JobQueued}

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			logger.Info("run cancelled before poll", "attempt", attempt)
			return out, err
		}

		job, err := o.runs.RunStatus(calls, out.JobID)
		if cErr := ctx.Err(); cErr != nil {
			logger.Info("run cancelled during poll", "attempt", attempt)
			return out, cErr
		}
		if err != nil {
			logger.Error("poll status", "attempt", attempt, "error", err)
			return o.fail(out, err)
		}

		if advErr := current.Advance(job); advErr != nil {
			logger.Warn("non-monotonic status", "error", advErr)
			current = job
		}

		out.State = domain.StateFromStatus(job.Status)
		logger.Debug("status polled", "attempt", attempt, "status", job.Status)

		switch job.Status {
		case domain.JobCompleted:
			out.MarkdownURL = job.MarkdownURL
			return o.complete(ctx, calls, out, logger)
		case domain.JobFailed:
			logger.Warn("job failed", "detail", job.Error)
			return o.fail(out, domain.JobFailedError(out.JobID, job.Error))
		}

		o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State})

		if o.maxWait > 0 && o.clock.Now().Sub(started) >= o.maxWait {
			logger.Warn("poll timeout", "waited", o.maxWait)
			return o.fail(out, domain.TimeoutError(out.JobID, o.maxWait))
		}

		if err := o.clock.Sleep(ctx, o.interval); err != nil {
			logger.Info("run cancelled while waiting", "attempt", attempt)
			return out, err
		}
	}
}

func (o *Orchestrator) complete(ctx, calls context.Context, out Outcome, logger *slog.Logger) (Outcome, error) {
	if out.MarkdownURL == "" {
		logger.Info("job completed without markdown delivery")
		o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State})
		return out, nil
	}

	if !o.claimRewrite(out.JobID) {
		logger.Debug("guide already generated for job")
		o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State, MarkdownURL: out.MarkdownURL})
		return out, nil
	}

	o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State, MarkdownURL: out.MarkdownURL, Rewriting: true})

	guide, err := o.buildGuide(ctx, calls, out.MarkdownURL)
	if cErr := ctx.Err(); cErr != nil {
		o.releaseRewrite(out.JobID)
		logger.Info("run cancelled during guide generation")
		return out, cErr
	}
	if err != nil {
		o.releaseRewrite(out.JobID)
		logger.Error("generate guide", "error", err)
		out.Err = err
		o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State, MarkdownURL: out.MarkdownURL, Err: err})
		return out, err
	}

	out.Guide = &guide
	logger.Info("guide generated", "title", guide.Title, "sections", len(guide.Outline))
	o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State, MarkdownURL: out.MarkdownURL, Guide: out.Guide})
	return out, nil
}

func (o *Orchestrator) buildGuide(ctx, calls context.Context, markdownURL string) (domain.Guide, error) {
	if o.fetcher == nil || o.rewriter == nil {
		return domain.Guide{}, errors.New("guide generation not configured")
	}
	markdown, err := o.fetcher.FetchMarkdown(calls, markdownURL)
	if err != nil {
		return domain.Guide{}, fmt.Errorf("fetch markdown: %w", err)
	}
	if ctx.Err() != nil {
		return domain.Guide{}, ctx.Err()
	}
	return o.rewriter.Rewrite(calls, markdown)
}

func (o *Orchestrator) fail(out Outcome, err error) (Outcome, error) {
	out.State = domain.StateFailed
	out.Err = err
	o.emit(domain.Event{RunID: out.RunID, JobID: out.JobID, State: out.State, Err: err})
	return out, err
}

func (o *Orchestrator) emit(ev domain.Event) {
	for _, obs := range o.observers {
		if obs != nil {
			obs.Observe(ev)
		}
	}
}

func (o *Orchestrator) claimRewrite(jobID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.rewritten[jobID] {
		return false
	}
	o.rewritten[jobID] = true
	return true
}

// releaseRewrite lets a later observation of the job retry a failed generation.
func (o *Orchestrator) releaseRewrite(jobID string) {
	o.mu.Lock()
	delete(o.rewritten, jobID)
	o.mu.Unlock()
}

func (o *Orchestrator) newRunID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(o.clock.Now()), o.entropy).String()
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"GuideBuilder/internal/config"
	"GuideBuilder/internal/infrastructure/clock"
	"GuideBuilder/internal/infrastructure/delivery"
	"GuideBuilder/internal/infrastructure/ingestion"
	"GuideBuilder/internal/infrastructure/llm"
	"GuideBuilder/internal/logging"
	"GuideBuilder/internal/ports"
	"GuideBuilder/internal/transport/httpapi"
	"GuideBuilder/internal/usecase"
)

const shutdownTimeout = 10 * time.Second

// Application wires configs to use cases and the HTTP lifecycle.
type Application struct {
	cfg       config.Config
	logger    *slog.Logger
	ingestion ports.IngestionService
	runs      *usecase.RunService
	rewriter  *usecase.Rewriter
	fetcher   *delivery.Fetcher
	handler   http.Handler
}

// New builds the application. The ingestion backend is chosen once here.
func New(cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	ingest := NewIngestionService(cfg, baseLogger)
	runs := usecase.NewRunService(ingest, baseLogger.With("component", "runs"))
	rewriter := usecase.NewRewriter(
		llm.NewChatClient(cfg.OpenAI, nil),
		usecase.RewriterOptions{Sanitize: cfg.Rewrite.Sanitize},
		baseLogger.With("component", "rewriter"),
	)

	handler := httpapi.NewHandler(httpapi.HandlerDeps{
		Runs:           runs,
		URLJobs:        runs,
		Rewriter:       rewriter,
		Backend:        ingest.Name(),
		SampleURL:      cfg.Ingestion.SampleURL,
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		Logger:         baseLogger.With("component", "http"),
	})

	return &Application{
		cfg:       cfg,
		logger:    baseLogger,
		ingestion: ingest,
		runs:      runs,
		rewriter:  rewriter,
		fetcher:   delivery.NewFetcher(nil),
		handler:   httpapi.NewServer(handler, baseLogger.With("component", "http")),
	}, nil
}

// NewIngestionClient builds the raw client of the hosted ingestion API.
func NewIngestionClient(cfg config.Config) *ingestion.Client {
	return ingestion.NewClient(cfg.Ingestion.BaseURL, cfg.Ingestion.Token, cfg.Ingestion.Timeout, nil)
}

// NewIngestionService selects the remote or the in-memory backend from config.
func NewIngestionService(cfg config.Config, logger *slog.Logger) ports.IngestionService {
	if cfg.Ingestion.UseRemote {
		logger.Info("using remote ingestion", "base_url", cfg.Ingestion.BaseURL)
		return ingestion.NewRemoteService(
			NewIngestionClient(cfg),
			ingestion.RemoteOptions{
				UploadExpiryDays:    cfg.Ingestion.UploadExpiryDays,
				OutputExpiryMinutes: cfg.Ingestion.OutputExpiryMinutes,
			},
			logger.With("component", "ingestion.remote"),
		)
	}
	logger.Info("using mock ingestion")
	return ingestion.NewMockService(ingestion.MockOptions{
		QueuedFor:    cfg.Mock.QueuedFor,
		RunningUntil: cfg.Mock.RunningUntil,
		MarkdownURL:  cfg.Mock.MarkdownURL,
	})
}

// Handler exposes the HTTP surface, mainly for tests.
func (a *Application) Handler() http.Handler {
	return a.handler
}

// Backend names the ingestion backend in use.
func (a *Application) Backend() string {
	return a.ingestion.Name()
}

// Orchestrator builds an in-process orchestrator sharing the application's adapters.
func (a *Application) Orchestrator(observers ...ports.RunObserver) *usecase.Orchestrator {
	return usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Runs:      a.runs,
		Fetcher:   a.fetcher,
		Rewriter:  a.rewriter,
		Clock:     clock.System{},
		Observers: observers,
		Logger:    a.logger.With("component", "orchestrator"),
		Interval:  a.cfg.Poll.Interval,
		MaxWait:   a.cfg.Poll.MaxWait,
	})
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Server.Addr,
		Handler:      a.handler,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", srv.Addr, "ingestion", a.ingestion.Name())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	a.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"GuideBuilder/internal/app"
	"GuideBuilder/internal/config"
	"GuideBuilder/internal/domain"
	"GuideBuilder/internal/infrastructure/apiclient"
	"GuideBuilder/internal/infrastructure/clock"
	"GuideBuilder/internal/infrastructure/delivery"
	"GuideBuilder/internal/logging"
	"GuideBuilder/internal/ports"
	"GuideBuilder/internal/presentation"
	"GuideBuilder/internal/usecase"
)

var (
	runTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	runMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	runBusyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("75"))
	runOKStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	runErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
	runPanelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

type snapshotMsg presentation.Snapshot

type runDoneMsg struct {
	outcome usecase.Outcome
	err     error
}

type runModel struct {
	fileName string
	spinner  spinner.Model
	snap     presentation.Snapshot
	done     bool
	outcome  usecase.Outcome
	err      error
	cancel   context.CancelFunc
}

func newRunModel(fileName string, cancel context.CancelFunc) runModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runBusyStyle
	return runModel{
		fileName: fileName,
		spinner:  sp,
		snap:     presentation.Snapshot{View: presentation.Derive(domain.StateIdle, false)},
		cancel:   cancel,
	}
}

func (m runModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			if m.cancel != nil {
				m.cancel()
			}
			m.err = context.Canceled
			m.done = true
			return m, tea.Quit
		}
		return m, nil
	case snapshotMsg:
		m.snap = presentation.Snapshot(msg)
		return m, nil
	case runDoneMsg:
		m.outcome = msg.outcome
		m.err = msg.err
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m runModel) View() string {
	header := runTitleStyle.Render("GuideBuilder") + " " + runMutedStyle.Render(m.fileName)

	var status string
	view := m.snap.View
	switch view.Icon {
	case presentation.IconSpinner:
		status = m.spinner.View() + " " + toneStyle(view.Tone).Render(view.Label)
	case presentation.IconCheck:
		status = runOKStyle.Render("✓ " + view.Label)
	case presentation.IconAlert:
		status = runErrorStyle.Render("✗ " + view.Label)
	default:
		status = toneStyle(view.Tone).Render(view.Label)
	}

	lines := []string{status}
	if m.snap.JobID != "" {
		lines = append(lines, runMutedStyle.Render("job: "+m.snap.JobID))
	}
	if m.snap.MarkdownURL != "" {
		lines = append(lines, runMutedStyle.Render("markdown: "+m.snap.MarkdownURL))
	}
	if m.snap.Guide != nil {
		if m.snap.Guide.Title != "" {
			lines = append(lines, runOKStyle.Render(m.snap.Guide.Title))
		}
		for _, h := range m.snap.Guide.Outline {
			lines = append(lines, "  • "+h)
		}
	}
	if m.snap.Err != nil {
		lines = append(lines, runErrorStyle.Render(m.snap.Err.Error()))
	}

	footer := runMutedStyle.Render("q to cancel")
	if m.done {
		footer = ""
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, runPanelStyle.Render(strings.Join(lines, "\n")), footer) + "\n"
}

func toneStyle(t presentation.Tone) lipgloss.Style {
	switch t {
	case presentation.ToneBusy:
		return runBusyStyle
	case presentation.ToneOK:
		return runOKStyle
	case presentation.ToneError:
		return runErrorStyle
	default:
		return runMutedStyle
	}
}

func runGuide(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	server := fs.String("server", "", "base url of a running GuideBuilder server")
	jobID := fs.String("job", "", "follow an already submitted job instead of uploading a file")
	plain := fs.Bool("plain", false, "print one line per state change instead of the live view")
	outPath := fs.String("out", "", "write the generated HTML guide to this file")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	follow := strings.TrimSpace(*jobID)
	if fs.NArg() == 0 && follow == "" {
		return errors.New("usage: guidectl run [--server url] [--job id] [--plain] [--out guide.html] <file>")
	}

	title := follow
	var upload domain.FileUpload
	if follow == "" {
		path := fs.Arg(0)
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		upload = domain.FileUpload{Name: filepath.Base(path), Size: int64(len(content)), Content: content}
		title = upload.Name
	}

	live := !*plain && stdoutIsTTY()
	cfg := config.Load()
	var logOut io.Writer = os.Stderr
	if live {
		logOut = io.Discard
	}
	logger := logging.NewWithWriter(logOut, cfg.Logging.Level)

	machine := presentation.NewMachine()
	orch, err := buildOrchestrator(cfg, *server, machine, logger)
	if err != nil {
		return err
	}

	start := func(ctx context.Context) (usecase.Outcome, error) {
		if follow != "" {
			return orch.Watch(ctx, follow)
		}
		return orch.Run(ctx, upload)
	}

	var outcome usecase.Outcome
	if live {
		outcome, err = runLive(ctx, title, start, machine)
	} else {
		machine.OnChange = func(s presentation.Snapshot) {
			fmt.Fprintln(stdout, plainLine(s))
		}
		outcome, err = start(ctx)
	}
	if err != nil {
		return err
	}

	if outcome.Guide != nil && *outPath != "" {
		if err := os.WriteFile(*outPath, []byte(outcome.Guide.HTML), 0o644); err != nil {
			return fmt.Errorf("write guide: %w", err)
		}
		fmt.Fprintln(stdout, "Guide written to", *outPath)
	}
	return nil
}

func buildOrchestrator(cfg config.Config, server string, machine *presentation.Machine, logger *slog.Logger) (*usecase.Orchestrator, error) {
	if strings.TrimSpace(server) == "" {
		application, err := app.New(cfg, logger)
		if err != nil {
			return nil, err
		}
		return application.Orchestrator(machine), nil
	}

	api := apiclient.New(server, nil)
	return usecase.NewOrchestrator(usecase.OrchestratorDeps{
		Runs:      api,
		Fetcher:   delivery.NewFetcher(nil),
		Rewriter:  api,
		Clock:     clock.System{},
		Observers: []ports.RunObserver{machine},
		Logger:    logger.With("component", "orchestrator"),
		Interval:  cfg.Poll.Interval,
		MaxWait:   cfg.Poll.MaxWait,
	}), nil
}

func runLive(ctx context.Context, title string, start func(context.Context) (usecase.Outcome, error), machine *presentation.Machine) (usecase.Outcome, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newRunModel(title, cancel))
	machine.OnChange = func(s presentation.Snapshot) {
		p.Send(snapshotMsg(s))
	}
	go func() {
		outcome, err := start(ctx)
		p.Send(runDoneMsg{outcome: outcome, err: err})
	}()

	final, err := p.Run()
	if err != nil {
		return usecase.Outcome{}, err
	}
	m := final.(runModel)
	return m.outcome, m.err
}

func plainLine(s presentation.Snapshot) string {
	parts := []string{s.View.Label}
	if s.JobID != "" {
		parts = append(parts, "job="+s.JobID)
	}
	if s.MarkdownURL != "" && !s.View.Busy {
		parts = append(parts, "markdown="+s.MarkdownURL)
	}
	if s.Guide != nil && s.Guide.Title != "" {
		parts = append(parts, fmt.Sprintf("guide=%q", s.Guide.Title))
	}
	if s.Err != nil {
		parts = append(parts, "error="+s.Err.Error())
	}
	return strings.Join(parts, " ")
}

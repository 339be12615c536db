package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/meshkit-io/chisel/pipeline"
	"github.com/meshkit-io/chisel/types"
)

// Executor drives one request to its terminal report. Satisfied by
// pipeline.Orchestrator.
type Executor interface {
	Execute(ctx context.Context, req *types.EditRequest, progress pipeline.ProgressReporter) (*types.RunReport, error)
	OutputDir(runID string) string
}

// Config configures the interactive session.
type Config struct {
	Executor Executor
	// QueueDepth bounds queued requests; submissions beyond it are
	// rejected so one shared accelerator is not oversubscribed.
	QueueDepth int
	// OnComplete receives each terminal report (journal append, event
	// publish). Called from the worker goroutine.
	OnComplete func(report *types.RunReport, req *types.EditRequest)
}

type job struct {
	id  int
	req *types.EditRequest
}

// Worker-to-UI messages.
type jobStartedMsg struct{ id int }

type jobProgressMsg struct {
	id     int
	phase  pipeline.Phase
	detail string
}

type jobDoneMsg struct {
	id     int
	report *types.RunReport
	err    error
}

// progressFunc adapts a closure to pipeline.ProgressReporter.
type progressFunc func(phase pipeline.Phase, detail string)

func (f progressFunc) Report(phase pipeline.Phase, detail string) { f(phase, detail) }

// runState tracks the run currently on the accelerator.
type runState struct {
	id     int
	phase  pipeline.Phase
	detail string
}

// Model is the Bubble Tea model for an interactive session.
type Model struct {
	cfg    Config
	inputs []textinput.Model
	focus  int

	repaint bool
	formErr string

	queue   chan job
	events  chan tea.Msg
	nextJob int
	queued  int
	current *runState
	history []string

	spin     spinner.Model
	quitting bool
}

// New creates the session model and starts its single worker. One
// worker, deliberately: stages contend for one accelerator, so queued
// jobs run strictly in submission order.
func New(cfg Config) *Model {
	if cfg.QueueDepth <= 0 {
		cfg.QueueDepth = 4
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ActiveStyle

	m := &Model{
		cfg:     cfg,
		inputs:  newInputs(),
		queue:   make(chan job, cfg.QueueDepth),
		events:  make(chan tea.Msg, 16),
		nextJob: 1,
		spin:    sp,
	}
	go m.work()
	return m
}

// work consumes the job queue. Runs outside the Bubble Tea loop; all
// UI state changes travel through the events channel.
func (m *Model) work() {
	for j := range m.queue {
		m.events <- jobStartedMsg{id: j.id}

		reporter := progressFunc(func(phase pipeline.Phase, detail string) {
			m.events <- jobProgressMsg{id: j.id, phase: phase, detail: detail}
		})

		report, err := m.cfg.Executor.Execute(context.Background(), j.req, reporter)
		if err == nil && m.cfg.OnComplete != nil {
			m.cfg.OnComplete(report, j.req)
		}
		m.events <- jobDoneMsg{id: j.id, report: report, err: err}
	}
}

// listen forwards one worker event into the update loop.
func (m *Model) listen() tea.Cmd {
	return func() tea.Msg { return <-m.events }
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, m.listen())
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "tab", "down":
			m.setFocus(m.focus + 1)
			return m, nil
		case "shift+tab", "up":
			m.setFocus(m.focus - 1)
			return m, nil
		case "ctrl+t":
			m.repaint = !m.repaint
			return m, nil
		case "enter":
			if m.focus == len(m.inputs)-1 {
				m.submit()
				return m, nil
			}
			m.setFocus(m.focus + 1)
			return m, nil
		case "ctrl+s":
			m.submit()
			return m, nil
		}

		var cmd tea.Cmd
		m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
		return m, cmd

	case jobStartedMsg:
		m.queued--
		m.current = &runState{id: msg.id, phase: pipeline.PhasePreparing}
		return m, m.listen()

	case jobProgressMsg:
		if m.current != nil && m.current.id == msg.id {
			m.current.phase = msg.phase
			m.current.detail = msg.detail
		}
		return m, m.listen()

	case jobDoneMsg:
		m.current = nil
		m.history = append(m.history, summarize(msg.id, msg.report, msg.err, m.cfg.Executor))
		return m, m.listen()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *Model) setFocus(i int) {
	m.inputs[m.focus].Blur()
	m.focus = (i + len(m.inputs)) % len(m.inputs)
	m.inputs[m.focus].Focus()
}

// submit validates the form and enqueues a run. A full queue rejects
// the submission instead of blocking the UI.
func (m *Model) submit() {
	values := make([]string, len(m.inputs))
	for i, in := range m.inputs {
		values[i] = in.Value()
	}

	req, err := buildRequest(values, m.repaint)
	if err != nil {
		m.formErr = err.Error()
		return
	}
	m.formErr = ""

	select {
	case m.queue <- job{id: m.nextJob, req: req}:
		m.nextJob++
		m.queued++
	default:
		m.formErr = fmt.Sprintf("queue full (%d pending), wait for a run to finish", cap(m.queue))
	}
}

func summarize(id int, report *types.RunReport, err error, ex Executor) string {
	if err != nil {
		return fmt.Sprintf("#%d %s %v", id, ErrorStyle.Render("error"), err)
	}
	status := StatusStyle(string(report.Status)).Render(string(report.Status))
	if report.Status != types.StatusOK {
		return fmt.Sprintf("#%d %s %s (%s)", id, status, report.Message, report.RunID)
	}
	return fmt.Sprintf("#%d %s %d artifacts in %s", id, status, len(report.ArtifactNames), ex.OutputDir(report.RunID))
}

// phaseOrder is the display order of progress checkpoints.
var phaseOrder = []pipeline.Phase{
	pipeline.PhasePreparing,
	pipeline.PhaseLaunching,
	pipeline.PhaseRunning,
	pipeline.PhaseCollecting,
	pipeline.PhaseDone,
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("chisel mesh edit"))
	b.WriteString("\n")

	specs := fieldSpecs()
	var form strings.Builder
	for i, in := range m.inputs {
		form.WriteString(LabelStyle.Render(specs[i].label + ":"))
		form.WriteString(" ")
		form.WriteString(in.View())
		form.WriteString("\n")
	}
	form.WriteString("\n")
	form.WriteString(LabelStyle.Render("texture repaint:"))
	form.WriteString(" ")
	if m.repaint {
		form.WriteString(SuccessStyle.Render("on"))
	} else {
		form.WriteString(MutedStyle.Render("off"))
	}
	b.WriteString(BoxStyle.Render(form.String()))
	b.WriteString("\n")

	if m.formErr != "" {
		b.WriteString(ErrorStyle.Render(m.formErr))
		b.WriteString("\n")
	}

	b.WriteString(m.statusView())

	for _, line := range m.history {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(HelpStyle.Render("tab/enter next field · ctrl+t repaint · ctrl+s submit · esc quit"))
	b.WriteString("\n")
	return b.String()
}

// statusView renders the five-phase checklist for the active run and
// the queue depth.
func (m *Model) statusView() string {
	var b strings.Builder
	if m.current != nil {
		b.WriteString(fmt.Sprintf("run #%d\n", m.current.id))
		for _, phase := range phaseOrder {
			switch {
			case phase == m.current.phase:
				b.WriteString(m.spin.View())
				b.WriteString(ActiveStyle.Render(string(phase)))
				if m.current.detail != "" {
					b.WriteString(MutedStyle.Render("  " + m.current.detail))
				}
			case phaseBefore(phase, m.current.phase):
				b.WriteString(SuccessStyle.Render("✓ " + string(phase)))
			default:
				b.WriteString(MutedStyle.Render("· " + string(phase)))
			}
			b.WriteString("\n")
		}
	}
	if m.queued > 0 {
		b.WriteString(MutedStyle.Render(fmt.Sprintf("%d queued", m.queued)))
		b.WriteString("\n")
	}
	return b.String()
}

func phaseBefore(a, b pipeline.Phase) bool {
	ai, bi := -1, -1
	for i, p := range phaseOrder {
		if p == a {
			ai = i
		}
		if p == b {
			bi = i
		}
	}
	return ai < bi
}

// Run starts the interactive session and blocks until the user quits.
func Run(cfg Config) error {
	p := tea.NewProgram(New(cfg), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Package ui renders pipeline progress with Bubble Tea.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"optdbg/internal/pipeline"
)

type progressModel struct {
	title   string
	events  <-chan pipeline.Event
	spinner spinner.Model
	prog    progress.Model
	items   []stageItem
	index   map[pipeline.Stage]int
	width   int
	done    bool
	failed  bool
}

type stageItem struct {
	stage  pipeline.Stage
	status pipeline.Status
	detail string
}

type eventMsg pipeline.Event
type doneMsg struct{}

// NewProgressModel returns a model with one row per pipeline stage. It
// quits when events is closed.
func NewProgressModel(title string, events <-chan pipeline.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 76

	items := make([]stageItem, len(pipeline.Stages))
	index := make(map[pipeline.Stage]int, len(pipeline.Stages))
	for i, st := range pipeline.Stages {
		items[i] = stageItem{stage: st, status: pipeline.StatusQueued}
		index[st] = i
	}
	return &progressModel{
		title:   title,
		events:  events,
		spinner: sp,
		prog:    prog,
		items:   items,
		index:   index,
		width:   80,
	}
}

func (m *progressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listenForEvent())
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		cmd := m.applyEvent(pipeline.Event(msg))
		return m, tea.Batch(cmd, m.listenForEvent())
	case doneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.prog.Width = msg.Width - 4
		}
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case progress.FrameMsg:
		pm, cmd := m.prog.Update(msg)
		m.prog = pm.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	header := m.title
	switch {
	case m.done && m.failed:
		header = "failed: " + header
	case m.done:
		header = "done: " + header
	default:
		header = m.spinner.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(header))
	b.WriteString("\n\n")

	detailWidth := max(m.width-12-12-6, 20)
	for _, item := range m.items {
		status := statusLabel(item.status)
		fmt.Fprintf(&b, "  %s %-10s %s\n",
			styleStatus(item.status).Render(fmt.Sprintf("%10s", status)),
			item.stage,
			truncate(item.detail, detailWidth))
	}

	b.WriteString("\n")
	if m.done && !m.failed {
		b.WriteString(m.prog.ViewAs(1.0))
	} else {
		b.WriteString(m.prog.View())
	}
	b.WriteString("\n")
	return b.String()
}

func (m *progressModel) listenForEvent() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return doneMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *progressModel) applyEvent(ev pipeline.Event) tea.Cmd {
	idx, ok := m.index[ev.Stage]
	if !ok {
		return nil
	}
	m.items[idx].status = ev.Status
	switch {
	case ev.Err != nil:
		m.items[idx].detail = ev.Err.Error()
		m.failed = true
	case ev.Status == pipeline.StatusDone && ev.Elapsed > 0:
		m.items[idx].detail = strings.TrimSpace(ev.Detail + " " + formatElapsed(ev))
	case ev.Detail != "":
		m.items[idx].detail = ev.Detail
	}
	return m.prog.SetPercent(m.percent())
}

// percent counts finished stages; a working stage counts as half.
func (m *progressModel) percent() float64 {
	total := 0.0
	for _, item := range m.items {
		switch item.status {
		case pipeline.StatusDone, pipeline.StatusSkipped, pipeline.StatusError:
			total += 1.0
		case pipeline.StatusWorking:
			total += 0.5
		}
	}
	return total / float64(len(m.items))
}

func formatElapsed(ev pipeline.Event) string {
	return fmt.Sprintf("(%.1fms)", float64(ev.Elapsed.Microseconds())/1000)
}

func statusLabel(status pipeline.Status) string {
	switch status {
	case pipeline.StatusWorking:
		return "running"
	case "":
		return "queued"
	default:
		return string(status)
	}
}

func styleStatus(status pipeline.Status) lipgloss.Style {
	switch status {
	case pipeline.StatusDone:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	case pipeline.StatusError:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	case pipeline.StatusWorking:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	case pipeline.StatusSkipped:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	default:
		return lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	}
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	// ширина хвоста входит в width
	return runewidth.Truncate(value, width, "...")
}

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"prockill/internal/cmdline"
	"prockill/internal/config"
	"prockill/internal/match"
)

const planTimeout = 10 * time.Second

// Controller defines the subset of app.App behaviour the TUI needs.
type Controller interface {
	Plan(context.Context, config.Configuration) ([]match.Candidate, error)
}

// Model is a read-only browser over the targets a configuration selects.
type Model struct {
	controller Controller
	cfg        config.Configuration

	list    list.Model
	targets []match.Candidate

	err     error
	loading bool

	width  int
	height int

	lastUpdated time.Time
}

// New constructs a TUI model with default styles.
func New(ctrl Controller, cfg config.Configuration) *Model {
	delegate := list.NewDefaultDelegate()
	lst := list.New([]list.Item{}, delegate, 0, 0)
	lst.Title = "Targets"
	lst.SetShowHelp(false)
	lst.SetFilteringEnabled(false)
	lst.DisableQuitKeybindings()

	return &Model{
		controller: ctrl,
		cfg:        cfg,
		list:       lst,
		loading:    true,
	}
}

// Run spins up the Bubble Tea program with sensible defaults.
func Run(ctrl Controller, cfg config.Configuration) error {
	m := New(ctrl, cfg)
	prog := tea.NewProgram(m, tea.WithAltScreen())
	_, err := prog.Run()
	return err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return loadTargetsCmd(m.controller, m.cfg)
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.height > 4 {
			m.list.SetSize(msg.Width, msg.Height-4)
		}

	case targetsLoadedMsg:
		m.loading = false
		m.err = nil
		m.targets = msg.targets
		items := make([]list.Item, 0, len(msg.targets))
		for _, target := range msg.targets {
			items = append(items, targetItem{Candidate: target})
		}
		m.list.SetItems(items)
		m.lastUpdated = time.Now()

	case errMsg:
		m.loading = false
		m.err = msg.err

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			m.loading = true
			return m, loadTargetsCmd(m.controller, m.cfg)
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	if m.cfg.DryRun {
		headerStyle = headerStyle.Foreground(lipgloss.Color("244"))
	}
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d targets, stop services: %s", len(m.targets), m.cfg.StopServices)))
	b.WriteByte('\n')

	if m.loading {
		b.WriteString("Loading targets…\n")
	} else if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
		b.WriteString(errStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteByte('\n')
	}

	if len(m.list.Items()) == 0 && !m.loading && m.err == nil {
		b.WriteString("No processes match the provided patterns.\n")
	} else {
		b.WriteString(m.list.View())
		b.WriteByte('\n')
	}

	if current := m.currentTarget(); current != nil {
		detail := fmt.Sprintf(
			"pid=%d\npath=%s\nargs=%s\nservice=%s",
			current.Process.PID,
			valueOrDash(current.Process.ExecutablePath),
			valueOrDash(current.Arguments),
			valueOrDash(serviceName(*current)),
		)
		detailStyle := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1).MarginBottom(1)
		b.WriteString(detailStyle.Render(detail))
		b.WriteByte('\n')
	}

	help := "Commands: q quit • r reload"
	if !m.lastUpdated.IsZero() {
		help += fmt.Sprintf(" • last update %s", m.lastUpdated.Format(time.Kitchen))
	}
	helpStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	b.WriteString(helpStyle.Render(help))

	return b.String()
}

// targetItem adapts match.Candidate to the bubbles list item interface.
type targetItem struct {
	Candidate match.Candidate
}

func (t targetItem) Title() string {
	kind := "process"
	if t.Candidate.IsService() {
		kind = "service " + t.Candidate.Service.Name
	}
	return fmt.Sprintf("[pid=%d] %s (%s)", t.Candidate.Process.PID, cmdline.FileName(t.Candidate.Process.ExecutablePath), kind)
}

func (t targetItem) Description() string {
	return fmt.Sprintf("path=%s | args=%s", t.Candidate.Process.ExecutablePath, t.Candidate.Arguments)
}

func (t targetItem) FilterValue() string {
	return fmt.Sprintf("%d %s %s", t.Candidate.Process.PID, t.Candidate.Process.ExecutablePath, t.Candidate.Arguments)
}

func (m *Model) currentTarget() *match.Candidate {
	if len(m.targets) == 0 {
		return nil
	}
	idx := m.list.Index()
	if idx < 0 || idx >= len(m.targets) {
		return nil
	}
	return &m.targets[idx]
}

func serviceName(c match.Candidate) string {
	if c.Service == nil {
		return ""
	}
	return c.Service.Name
}

func valueOrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

type targetsLoadedMsg struct {
	targets []match.Candidate
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func loadTargetsCmd(ctrl Controller, cfg config.Configuration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), planTimeout)
		defer cancel()
		targets, err := ctrl.Plan(ctx, cfg)
		if err != nil {
			return errMsg{err}
		}
		return targetsLoadedMsg{targets: targets}
	}
}

// Package tui is an interactive terminal front end for the brightness
// indicator, driven through the daemon's client API.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/jmylchreest/brightnessd/pkg/client"
)

const (
	// PollInterval is how often the status is re-read while idle.
	PollInterval = 2 * time.Second

	barWidth = 30

	increaseAction = "increase-brightness"
	decreaseAction = "decrease-brightness"
)

// Client is the part of client.ClientInterface the model drives.
type Client interface {
	Status() (client.Status, error)
	Refresh() error
	SetLevel(level int) error
	Invoke(name string) error
}

type statusMsg client.Status

type errMsg struct{ err error }

type tickMsg time.Time

// Model is the bubbletea model for the brightness TUI.
type Model struct {
	client  Client
	status  client.Status
	loaded  bool
	err     error
	spinner spinner.Model
	help    help.Model
	width   int
}

// New creates a Model that talks to c.
func New(c Client) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorPrimary)

	return Model{
		client:  c,
		spinner: sp,
		help:    help.New(),
	}
}

// Init fetches the first status and starts polling.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.fetch(), poll())
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Up):
			return m, m.act(func() error { return m.client.Invoke(increaseAction) })
		case key.Matches(msg, keys.Down):
			return m, m.act(func() error { return m.client.Invoke(decreaseAction) })
		case key.Matches(msg, keys.Preset):
			level := levelFromKey(msg.String())
			return m, m.act(func() error { return m.client.SetLevel(level) })
		case key.Matches(msg, keys.Refresh):
			return m, m.act(m.client.Refresh)
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
		return m, nil

	case statusMsg:
		m.status = client.Status(msg)
		m.loaded = true
		m.err = nil
		return m, nil

	case errMsg:
		m.err = msg.err
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.fetch(), poll())

	case spinner.TickMsg:
		if m.loaded {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(styleTitle.Render("☀ Brightness"))
	b.WriteString("\n")

	switch {
	case !m.loaded && m.err == nil:
		b.WriteString(stylePanel.Render(m.spinner.View() + " Connecting to brightnessd..."))
	case !m.loaded:
		b.WriteString(stylePanel.Render(styleMuted.Render("no reading yet")))
	default:
		b.WriteString(stylePanel.Render(renderBar(m.status) + " " + styleLevel.Render(levelText(m.status))))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(styleError.Render("Error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status.Dragging {
		b.WriteString(styleMuted.Render("slider held, updates paused"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(keys))
	return b.String()
}

// act runs fn and then re-reads the status.
func (m Model) act(fn func() error) tea.Cmd {
	c := m.client
	return func() tea.Msg {
		if err := fn(); err != nil {
			return errMsg{err}
		}
		s, err := c.Status()
		if err != nil {
			return errMsg{err}
		}
		return statusMsg(s)
	}
}

func (m Model) fetch() tea.Cmd {
	return m.act(func() error { return nil })
}

func poll() tea.Cmd {
	return tea.Tick(PollInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func levelText(s client.Status) string {
	if !s.Known {
		return "--"
	}
	return fmt.Sprintf("%d%%", s.Level)
}

// renderBar draws the slider position, brighter segments towards the top.
func renderBar(s client.Status) string {
	lit := int(s.Slider*barWidth + 0.5)
	if !s.Known {
		lit = 0
	}
	lit = min(max(lit, 0), barWidth)

	var b strings.Builder
	for i := range barWidth {
		switch {
		case i >= lit:
			b.WriteString(styleEmpty.Render("─"))
		case i < barWidth/2:
			b.WriteString(styleDim.Render("█"))
		default:
			b.WriteString(styleLit.Render("█"))
		}
	}
	return b.String()
}

package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/songreq/internal/formatter"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/tasks"
)

const (
	DefaultRefreshInterval = 3 * time.Second
	volumeStep             = 5
)

// Model represents the dashboard state.
type Model struct {
	ctx      context.Context
	player   services.Player
	engine   *tasks.StatusEngine
	interval time.Duration
	width    int
	height   int
	queue    list.Model
	status   *tasks.DumpResult
	message  string
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a dashboard that sends commands to player and refreshes through engine.
func NewModel(ctx context.Context, player services.Player, engine *tasks.StatusEngine, interval time.Duration) *Model {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}

	queue := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	queue.Title = "Queue"
	queue.SetShowHelp(false)
	queue.SetFilteringEnabled(false)
	queue.DisableQuitKeybindings()

	return &Model{
		ctx:      ctx,
		player:   player,
		engine:   engine,
		interval: interval,
		queue:    queue,
		help:     help.New(),
		keys:     newKeyMap(),
	}
}

// Init fetches the player state and starts the refresh ticker.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.refresh(), m.tick())
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.queue.SetSize(msg.Width-4, max(msg.Height-10, 3))
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case Msg:
		switch msg.kind {
		case MsgStatusFetched:
			data := msg.data.(statusData)
			m.err = data.err
			if data.result != nil {
				m.status = data.result
				cmd := m.queue.SetItems(queueItems(data.result.Queue, data.result.NowPlaying))
				return m, cmd
			}
			return m, nil

		case MsgCommandDone:
			data := msg.data.(commandData)
			if data.err != nil {
				m.message = styles.err.Render(fmt.Sprintf("%s failed: %v", data.description, data.err))
				return m, nil
			}
			m.message = styles.ok.Render(data.description)
			return m, m.refresh()

		case MsgTick:
			return m, tea.Batch(m.refresh(), m.tick())
		}
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

// View renders the dashboard.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("songreq dashboard"))
	b.WriteString("\n")
	b.WriteString(m.renderConnection())
	b.WriteString("\n")
	b.WriteString(m.renderNowPlaying())
	b.WriteString("\n\n")
	b.WriteString(m.queue.View())
	b.WriteString("\n")
	if m.message != "" {
		b.WriteString(m.message)
		b.WriteString("\n")
	}
	b.WriteString(m.help.ShortHelpView(m.keys.ShortHelp()))
	return b.String()
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.refresh):
		return m, m.refresh()
	case key.Matches(msg, m.keys.toggle):
		return m, m.transport(services.ActionTogglePlay, "Toggled playback")
	case key.Matches(msg, m.keys.next):
		return m, m.transport(services.ActionNext, "Skipped to next song")
	case key.Matches(msg, m.keys.previous):
		return m, m.transport(services.ActionPrevious, "Back to previous song")
	case key.Matches(msg, m.keys.remove):
		selected, ok := m.queue.SelectedItem().(queueItem)
		if !ok {
			return m, nil
		}
		return m, m.remove(selected.item.Index, selected.item.Title)
	case key.Matches(msg, m.keys.volUp):
		return m, m.changeVolume(volumeStep)
	case key.Matches(msg, m.keys.volDown):
		return m, m.changeVolume(-volumeStep)
	}

	var cmd tea.Cmd
	m.queue, cmd = m.queue.Update(msg)
	return m, cmd
}

func (m *Model) renderConnection() string {
	switch {
	case m.err != nil:
		return styles.err.Render(fmt.Sprintf("● error: %v", m.err))
	case m.status == nil:
		return styles.help.Render("● connecting...")
	case !m.status.Reachable:
		return styles.err.Render(fmt.Sprintf("● player unreachable at %s", m.status.BaseURL))
	default:
		return styles.ok.Render("● player connected")
	}
}

func (m *Model) renderNowPlaying() string {
	if m.status == nil || m.status.NowPlaying.Song == nil {
		return styles.help.Render("Nothing playing")
	}

	np := m.status.NowPlaying
	icon := "▶"
	if np.IsPaused {
		icon = "⏸"
	}
	line := fmt.Sprintf("%s %s - %s  %s", icon, np.Song.Title, np.Song.Artist, formatter.Progress(np))
	if m.status.Volume != nil {
		vol := fmt.Sprintf("vol %d%%", m.status.Volume.State)
		if m.status.Volume.IsMuted {
			vol += " (muted)"
		}
		line += "  " + styles.As(vol, lipgloss.Color("#626262"))
	}
	return line
}

func (m *Model) currentVolume() (int, bool) {
	if m.status == nil || m.status.Volume == nil {
		return 0, false
	}
	return m.status.Volume.State, true
}

func (m *Model) refresh() tea.Cmd {
	return func() tea.Msg {
		result, err := m.engine.Dump(m.ctx, nil)
		return statusFetchedMsg(result, err)
	}
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m *Model) transport(action services.Action, description string) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg(description, m.player.Transport(m.ctx, action))
	}
}

func (m *Model) remove(index int, title string) tea.Cmd {
	return func() tea.Msg {
		return commandDoneMsg(fmt.Sprintf("Removed %q", title), m.player.RemoveAt(m.ctx, index))
	}
}

func (m *Model) changeVolume(delta int) tea.Cmd {
	current, ok := m.currentVolume()
	if !ok {
		m.message = styles.warn.Render("Volume unknown, refresh first")
		return nil
	}

	target := min(max(current+delta, 0), 100)
	if target == current {
		return nil
	}
	return func() tea.Msg {
		return commandDoneMsg(fmt.Sprintf("Volume %d%%", target), m.player.SetVolume(m.ctx, target))
	}
}

package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/tasks"
	tu "github.com/desertthunder/songreq/internal/testing"
)

func newTestModel(t *testing.T) (*Model, *tu.MockPlayer) {
	t.Helper()

	player := tu.NewMockPlayer(
		models.Song{VideoID: "a", Title: "Alpha", Artist: "One", Duration: "3:00"},
		models.Song{VideoID: "b", Title: "Beta", Artist: "Two", AlbumName: "LP"},
	)
	player.NowPlaying = models.NowPlaying{Song: &models.Song{VideoID: "a", Title: "Alpha", Artist: "One"}, ElapsedSeconds: 65, SongDuration: 180}

	m := NewModel(context.Background(), player, tasks.NewStatusEngine(player), 0)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return m, player
}

// run executes cmd and feeds the resulting message back into the model.
func run(t *testing.T, m *Model, cmd tea.Cmd) tea.Cmd {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	_, next := m.Update(cmd())
	return next
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModel(t *testing.T) {
	t.Run("refresh loads the queue", func(t *testing.T) {
		m, _ := newTestModel(t)
		run(t, m, m.refresh())

		if m.status == nil || !m.status.Reachable {
			t.Fatalf("expected a reachable status, got %+v", m.status)
		}
		if got := len(m.queue.Items()); got != 2 {
			t.Errorf("expected 2 queue items, got %d", got)
		}

		view := m.View()
		for _, want := range []string{"player connected", "Alpha - One", "1:05 / 3:00", "vol 50%"} {
			if !strings.Contains(view, want) {
				t.Errorf("expected view to contain %q", want)
			}
		}
	})

	t.Run("unreachable player", func(t *testing.T) {
		m, player := newTestModel(t)
		player.SetReachable(false)
		run(t, m, m.refresh())

		if !strings.Contains(m.View(), "player unreachable") {
			t.Errorf("expected unreachable banner, got:\n%s", m.View())
		}
		if !strings.Contains(m.View(), "Nothing playing") {
			t.Error("expected empty now playing line")
		}
	})

	t.Run("transport keys", func(t *testing.T) {
		m, player := newTestModel(t)

		tests := []struct {
			msg  tea.KeyMsg
			want services.Action
		}{
			{tea.KeyMsg{Type: tea.KeySpace}, services.ActionTogglePlay},
			{keyRunes("n"), services.ActionNext},
			{keyRunes("p"), services.ActionPrevious},
		}

		for _, tt := range tests {
			_, cmd := m.Update(tt.msg)
			run(t, m, cmd)
		}

		if len(player.Actions) != 3 {
			t.Fatalf("expected 3 actions, got %v", player.Actions)
		}
		for i, tt := range tests {
			if player.Actions[i] != tt.want {
				t.Errorf("action %d: expected %s, got %s", i, tt.want, player.Actions[i])
			}
		}
	})

	t.Run("remove selected song", func(t *testing.T) {
		m, player := newTestModel(t)
		run(t, m, m.refresh())

		_, cmd := m.Update(keyRunes("d"))
		run(t, m, cmd)

		queue := player.GetQueue(context.Background())
		if len(queue) != 1 || queue[0].VideoID != "b" {
			t.Errorf("expected only b left, got %+v", queue)
		}
		if !strings.Contains(m.message, `Removed "Alpha"`) {
			t.Errorf("unexpected message %q", m.message)
		}
	})

	t.Run("volume keys clamp to 0..100", func(t *testing.T) {
		m, player := newTestModel(t)
		player.Volume.State = 98
		run(t, m, m.refresh())

		_, cmd := m.Update(keyRunes("+"))
		run(t, m, cmd)
		if player.Volume.State != 100 {
			t.Errorf("expected volume 100, got %d", player.Volume.State)
		}

		m.status.Volume.State = 100
		if _, cmd := m.Update(keyRunes("+")); cmd != nil {
			t.Error("expected no command at max volume")
		}

		_, cmd = m.Update(keyRunes("-"))
		run(t, m, cmd)
		if player.Volume.State != 95 {
			t.Errorf("expected volume 95, got %d", player.Volume.State)
		}
	})

	t.Run("volume before the first refresh", func(t *testing.T) {
		m, _ := newTestModel(t)
		if _, cmd := m.Update(keyRunes("+")); cmd != nil {
			t.Error("expected no command without a known volume")
		}
		if !strings.Contains(m.message, "Volume unknown") {
			t.Errorf("unexpected message %q", m.message)
		}
	})

	t.Run("failed command", func(t *testing.T) {
		m, player := newTestModel(t)
		player.Err = errors.New("boom")

		_, cmd := m.Update(keyRunes("n"))
		if next := run(t, m, cmd); next != nil {
			t.Error("expected no refresh after a failed command")
		}
		if !strings.Contains(m.message, "failed: boom") {
			t.Errorf("unexpected message %q", m.message)
		}
	})

	t.Run("quit", func(t *testing.T) {
		m, _ := newTestModel(t)
		_, cmd := m.Update(keyRunes("q"))
		if cmd == nil {
			t.Fatal("expected quit command")
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Error("expected tea.QuitMsg")
		}
	})
}

func TestQueueItem(t *testing.T) {
	items := queueItems([]models.QueueItem{
		{Song: models.Song{VideoID: "a", Title: "Alpha", Artist: "One", Duration: "3:00"}, Index: 0},
		{Song: models.Song{VideoID: "b", Title: "Beta", Artist: "Two", AlbumName: "LP"}, Index: 1},
	}, models.NowPlaying{Song: &models.Song{VideoID: "b"}})

	first := items[0].(queueItem)
	if first.Title() != "  1. Alpha" || first.Description() != "One • 3:00" {
		t.Errorf("unexpected first item: %q / %q", first.Title(), first.Description())
	}

	second := items[1].(queueItem)
	if second.Title() != "▶ 2. Beta" || second.Description() != "Two • LP" {
		t.Errorf("unexpected second item: %q / %q", second.Title(), second.Description())
	}
	if second.FilterValue() != "Beta" {
		t.Errorf("unexpected filter value %q", second.FilterValue())
	}
}

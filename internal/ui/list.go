package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/songreq/internal/models"
)

var _ list.Item = queueItem{}

// queueItem wraps [models.QueueItem] to implement [list.Item].
type queueItem struct {
	item    models.QueueItem
	playing bool
}

func (i queueItem) FilterValue() string { return i.item.Title }
func (i queueItem) Title() string {
	marker := "  "
	if i.playing {
		marker = "▶ "
	}
	return fmt.Sprintf("%s%d. %s", marker, i.item.Index+1, i.item.Title)
}
func (i queueItem) Description() string {
	parts := []string{i.item.Artist}
	if i.item.AlbumName != "" {
		parts = append(parts, i.item.AlbumName)
	}
	if i.item.Duration != "" {
		parts = append(parts, i.item.Duration)
	}
	return strings.Join(parts, " • ")
}

// queueItems converts the queue to list items, marking the song that is playing.
func queueItems(queue []models.QueueItem, np models.NowPlaying) []list.Item {
	items := make([]list.Item, len(queue))
	for i, q := range queue {
		items[i] = queueItem{item: q, playing: np.Song != nil && np.Song.VideoID == q.VideoID}
	}
	return items
}

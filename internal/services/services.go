// package services defines the HTTP clients for the player's REST API and the song search proxy
package services

import (
	"context"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/samber/lo"
)

// Player is the set of player capabilities the rest of the module depends on.
//
// [PlayerClient] implements it against the player's local REST API.
type Player interface {
	GetQueue(ctx context.Context) []models.QueueItem
	GetNowPlaying(ctx context.Context) models.NowPlaying
	Enqueue(ctx context.Context, videoID string) error
	RemoveAt(ctx context.Context, index int) error
	SeekTo(ctx context.Context, seconds int) error
	GetVolume(ctx context.Context) (models.Volume, error)
	SetVolume(ctx context.Context, volume int) error
	Transport(ctx context.Context, action Action) error
	IsReachable(ctx context.Context) bool
}

// Searcher finds songs by free-text query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.SearchResult, error)
}

// Action is a transport control understood by the player.
type Action string

const (
	ActionPlay       Action = "play"
	ActionPause      Action = "pause"
	ActionNext       Action = "next"
	ActionPrevious   Action = "previous"
	ActionTogglePlay Action = "toggle-play"
)

// Actions lists every supported [Action].
var Actions = []Action{ActionPlay, ActionPause, ActionNext, ActionPrevious, ActionTogglePlay}

// Valid reports whether a is a supported transport action.
func (a Action) Valid() bool {
	return lo.Contains(Actions, a)
}

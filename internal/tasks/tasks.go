package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
)

// EndpointResult records a player read that failed during a dump.
type EndpointResult struct {
	Endpoint string `json:"endpoint"`
	Error    string `json:"error"`
}

// DumpResult is a point-in-time copy of the player's state.
type DumpResult struct {
	BaseURL    string             `json:"baseUrl,omitempty"`
	Reachable  bool               `json:"reachable"`
	NowPlaying models.NowPlaying  `json:"nowPlaying"`
	Queue      []models.QueueItem `json:"queue"`
	Volume     *models.Volume     `json:"volume,omitempty"`
	Errors     []EndpointResult   `json:"errors,omitempty"`
	FetchedAt  time.Time          `json:"fetchedAt"`
}

type dumpOperation struct {
	name    string
	phase   Phase
	message string
	run     func(ctx context.Context, result *DumpResult) error
}

// baseURLer is implemented by player clients that know where they point.
type baseURLer interface {
	BaseURL() string
}

// StatusEngine collects player state for the CLI and the dashboard.
type StatusEngine struct {
	player services.Player
}

// NewStatusEngine creates a [StatusEngine] reading from player.
func NewStatusEngine(player services.Player) *StatusEngine {
	return &StatusEngine{player: player}
}

// sendProgress sends a progress update through the channel without blocking.
func (e *StatusEngine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Dump probes the player and, when it answers, reads now playing, the queue and the volume.
func (e *StatusEngine) Dump(ctx context.Context, progress chan<- ProgressUpdate) (*DumpResult, error) {
	if e.player == nil {
		return nil, fmt.Errorf("%w: player client not initialized", shared.ErrServiceUnavailable)
	}

	result := &DumpResult{Queue: []models.QueueItem{}}
	if b, ok := e.player.(baseURLer); ok {
		result.BaseURL = b.BaseURL()
	}

	ops := []dumpOperation{
		{name: "probe", phase: ProbePlayer, message: "Checking player connection...", run: e.probe},
		{name: "song", phase: FetchNowPlaying, message: "Fetching current song...", run: e.nowPlaying},
		{name: "queue", phase: FetchQueue, message: "Fetching queue...", run: e.queue},
		{name: "volume", phase: FetchVolume, message: "Fetching volume...", run: e.volume},
	}
	total := len(ops)

	for i, op := range ops {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		e.sendProgress(progress, operationUpdate(op, i+1, total))
		if err := op.run(ctx, result); err != nil {
			result.Errors = append(result.Errors, EndpointResult{Endpoint: op.name, Error: err.Error()})
		}

		if op.phase == ProbePlayer && !result.Reachable {
			e.sendProgress(progress, unreachableUpdate(i+1, total, result.BaseURL))
			break
		}
	}

	result.FetchedAt = time.Now()
	e.sendProgress(progress, completeUpdate(total, result))
	return result, nil
}

func (e *StatusEngine) probe(ctx context.Context, result *DumpResult) error {
	result.Reachable = e.player.IsReachable(ctx)
	if !result.Reachable {
		return shared.ErrPlayerUnavailable
	}
	return nil
}

func (e *StatusEngine) nowPlaying(ctx context.Context, result *DumpResult) error {
	result.NowPlaying = e.player.GetNowPlaying(ctx)
	return nil
}

func (e *StatusEngine) queue(ctx context.Context, result *DumpResult) error {
	result.Queue = e.player.GetQueue(ctx)
	return nil
}

func (e *StatusEngine) volume(ctx context.Context, result *DumpResult) error {
	vol, err := e.player.GetVolume(ctx)
	if err != nil {
		return err
	}
	result.Volume = &vol
	return nil
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/songreq/internal/formatter"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
	"github.com/desertthunder/songreq/internal/tasks"
	"github.com/samber/lo"
	"github.com/urfave/cli/v3"
)

// rawQueuer is implemented by player clients that can return the undecoded queue.
type rawQueuer interface {
	RawQueue(ctx context.Context) (json.RawMessage, error)
}

// PlayerQueue prints the queue in the requested format.
func (r *Runner) PlayerQueue(ctx context.Context, cmd *cli.Command) error {
	queue := r.player.GetQueue(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(queue, true)
	}

	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	np := r.player.GetNowPlaying(ctx)

	if path := cmd.String("output"); path != "" {
		if err := formatter.WriteQueueExport(path, format, np, queue); err != nil {
			return err
		}
		r.logger.Info("queue exported", "path", path, "format", format, "songs", len(queue))
		return nil
	}

	data, err := formatter.Render(format, np, queue)
	if err != nil {
		return err
	}
	_, err = r.output.Write(data)
	return err
}

// PlayerNow prints the current song.
func (r *Runner) PlayerNow(ctx context.Context, cmd *cli.Command) error {
	np := r.player.GetNowPlaying(ctx)
	if cmd.Bool("json") {
		return r.writeJSON(np, true)
	}

	if np.Song == nil {
		return r.writePlain("Nothing playing\n")
	}

	state := "Playing"
	if np.IsPaused {
		state = "Paused"
	}
	r.writePlain("%s: %s - %s\n", state, np.Song.Artist, np.Song.Title)
	if np.Song.AlbumName != "" {
		r.writePlain("Album:   %s\n", np.Song.AlbumName)
	}
	r.writePlain("Time:    %s\n", formatter.Progress(np))
	r.writePlain("VideoID: %s\n", np.Song.VideoID)
	return nil
}

// PlayerAdd appends a song to the queue.
func (r *Runner) PlayerAdd(ctx context.Context, cmd *cli.Command) error {
	videoID, err := shared.RequireVideoID(cmd.StringArg("videoId"))
	if err != nil {
		return err
	}

	if err := r.player.Enqueue(ctx, videoID); err != nil {
		return err
	}
	return r.writePlain("✓ Added %s to the queue\n", videoID)
}

// PlayerRemove removes the song at a queue index.
func (r *Runner) PlayerRemove(ctx context.Context, cmd *cli.Command) error {
	index, err := intArg(cmd, "index")
	if err != nil {
		return err
	}

	if err := r.player.RemoveAt(ctx, index); err != nil {
		return err
	}
	return r.writePlain("✓ Removed queue entry %d\n", index)
}

// PlayerControl sends a transport action.
func (r *Runner) PlayerControl(ctx context.Context, cmd *cli.Command) error {
	action := services.Action(strings.ToLower(strings.TrimSpace(cmd.StringArg("action"))))
	if action == "" {
		return fmt.Errorf("%w: action is required (%s)", shared.ErrMissingArgument, joinActions())
	}

	if err := r.player.Transport(ctx, action); err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", action)
}

// PlayerVolume prints the volume, or sets it when a level is given.
func (r *Runner) PlayerVolume(ctx context.Context, cmd *cli.Command) error {
	if cmd.StringArg("level") == "" {
		vol, err := r.player.GetVolume(ctx)
		if err != nil {
			return err
		}
		muted := ""
		if vol.IsMuted {
			muted = " (muted)"
		}
		return r.writePlain("Volume: %d%%%s\n", vol.State, muted)
	}

	level, err := intArg(cmd, "level")
	if err != nil {
		return err
	}
	if err := r.player.SetVolume(ctx, level); err != nil {
		return err
	}
	return r.writePlain("✓ Volume set to %d%%\n", level)
}

// PlayerSeek seeks the current song.
func (r *Runner) PlayerSeek(ctx context.Context, cmd *cli.Command) error {
	seconds, err := intArg(cmd, "seconds")
	if err != nil {
		return err
	}

	if err := r.player.SeekTo(ctx, seconds); err != nil {
		return err
	}
	return r.writePlain("✓ Seeked to %ds\n", seconds)
}

// PlayerStatus reports whether the player answers.
func (r *Runner) PlayerStatus(ctx context.Context, cmd *cli.Command) error {
	if !r.player.IsReachable(ctx) {
		r.writePlain("✗ Player unreachable at %s\n", r.config.Player.BaseURL)
		return fmt.Errorf("%w: no answer from %s", shared.ErrPlayerUnavailable, r.config.Player.BaseURL)
	}
	return r.writePlain("✓ Player connected at %s\n", r.config.Player.BaseURL)
}

// PlayerDump collects the full player state and prints it as JSON.
func (r *Runner) PlayerDump(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("dumping player state")

	progress := make(chan tasks.ProgressUpdate, 10)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()

	result, err := r.engine.Dump(ctx, progress)
	close(progress)
	<-done
	if err != nil {
		return fmt.Errorf("dump failed: %w", err)
	}

	if path := cmd.String("save"); path != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal dump: %w", err)
		}
		if err := writeFile(path, data); err != nil {
			return err
		}
		r.logger.Info("dump saved", "path", path)
	}
	return r.writeJSON(result, cmd.Bool("pretty"))
}

// PlayerRaw prints the player's queue payload as returned by the player.
func (r *Runner) PlayerRaw(ctx context.Context, cmd *cli.Command) error {
	raw, ok := r.player.(rawQueuer)
	if !ok {
		return fmt.Errorf("%w: player client cannot return raw payloads", shared.ErrServiceUnavailable)
	}

	data, err := raw.RawQueue(ctx)
	if err != nil {
		return err
	}
	return r.writeJSON(data, true)
}

func intArg(cmd *cli.Command, name string) (int, error) {
	raw := strings.TrimSpace(cmd.StringArg(name))
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", shared.ErrMissingArgument, name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer, got %q", shared.ErrInvalidArgument, name, raw)
	}
	return n, nil
}

func joinActions() string {
	return strings.Join(lo.Map(services.Actions, func(a services.Action, _ int) string { return string(a) }), ", ")
}

package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/desertthunder/songreq/internal/formatter"
	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/recommend"
	"github.com/desertthunder/songreq/internal/repositories"
	"github.com/desertthunder/songreq/internal/services"
	"github.com/desertthunder/songreq/internal/shared"
	"github.com/urfave/cli/v3"
)

// Search queries the search proxy and optionally enqueues the top hit.
func (r *Runner) Search(ctx context.Context, cmd *cli.Command) error {
	query := strings.TrimSpace(cmd.StringArg("query"))
	if query == "" {
		return fmt.Errorf("%w: query is required", shared.ErrMissingArgument)
	}

	limit := int(cmd.Int("limit"))
	if limit <= 0 {
		limit = r.config.Search.Limit
	}

	results, err := r.search.Search(ctx, query, limit)
	if err != nil {
		return err
	}

	if cmd.Bool("enqueue") {
		if len(results) == 0 {
			return fmt.Errorf("%w: no results for %q", shared.ErrInvalidArgument, query)
		}
		top := results[0]
		if err := r.player.Enqueue(ctx, top.VideoID); err != nil {
			return err
		}
		r.logger.Info("enqueued top result", "videoId", top.VideoID, "title", top.Title)
	}

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	songs := make([]models.Song, len(results))
	for i, res := range results {
		songs[i] = res.Song()
	}
	_, err = r.output.Write(formatter.SongsToText(fmt.Sprintf("Results for %q", query), songs))
	return err
}

// UserList prints every stored nickname.
func (r *Runner) UserList(ctx context.Context, cmd *cli.Command) error {
	return r.withUsers(func(users *repositories.UserRepository) error {
		names, err := users.Nicknames()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return r.writePlain("No listeners yet\n")
		}
		for _, name := range names {
			r.writePlain("%s\n", name)
		}
		return nil
	})
}

// UserHistory prints a listener's history.
func (r *Runner) UserHistory(ctx context.Context, cmd *cli.Command) error {
	return r.withUsers(func(users *repositories.UserRepository) error {
		songs, err := users.History(cmd.StringArg("nickname"))
		if err != nil {
			return err
		}
		return r.writeSongs(cmd, "History", songs)
	})
}

// UserLikes prints a listener's liked songs.
func (r *Runner) UserLikes(ctx context.Context, cmd *cli.Command) error {
	return r.withUsers(func(users *repositories.UserRepository) error {
		songs, err := users.Likes(cmd.StringArg("nickname"))
		if err != nil {
			return err
		}
		return r.writeSongs(cmd, "Likes", songs)
	})
}

// UserLike adds a song to a listener's likes.
func (r *Runner) UserLike(ctx context.Context, cmd *cli.Command) error {
	song := models.Song{
		VideoID: cmd.StringArg("videoId"),
		Title:   cmd.String("title"),
		Artist:  cmd.String("artist"),
	}

	return r.withUsers(func(users *repositories.UserRepository) error {
		added, err := users.AddLike(cmd.StringArg("nickname"), song)
		if err != nil {
			return err
		}
		if !added {
			return r.writePlain("Already liked\n")
		}
		return r.writePlain("✓ Liked %s\n", song.VideoID)
	})
}

// UserUnlike removes a song from a listener's likes.
func (r *Runner) UserUnlike(ctx context.Context, cmd *cli.Command) error {
	return r.withUsers(func(users *repositories.UserRepository) error {
		removed, err := users.RemoveLike(cmd.StringArg("nickname"), cmd.StringArg("videoId"))
		if err != nil {
			return err
		}
		if !removed {
			return r.writePlain("Not liked\n")
		}
		return r.writePlain("✓ Removed like\n")
	})
}

// UserClear clears a listener's history.
func (r *Runner) UserClear(ctx context.Context, cmd *cli.Command) error {
	return r.withUsers(func(users *repositories.UserRepository) error {
		n, err := users.ClearHistory(cmd.StringArg("nickname"))
		if err != nil {
			return err
		}
		return r.writePlain("✓ Cleared %d history entries\n", n)
	})
}

// UserRecommend prints recommendations for a listener.
func (r *Runner) UserRecommend(ctx context.Context, cmd *cli.Command) error {
	return r.withUsers(func(users *repositories.UserRepository) error {
		profile, err := users.Load(cmd.StringArg("nickname"))
		if err != nil {
			return err
		}
		if profile.IsEmpty() {
			r.logger.Warn("listener has no history or likes", "nickname", profile.Nickname)
		}

		engine := recommend.New(services.SearchSongs(r.search), recommend.WithLogger(r.logger))
		return r.writeSongs(cmd, "Recommendations", engine.Recommend(ctx, profile.History, profile.Likes))
	})
}

func (r *Runner) writeSongs(cmd *cli.Command, title string, songs []models.Song) error {
	if cmd.Bool("json") {
		return r.writeJSON(songs, true)
	}
	_, err := r.output.Write(formatter.SongsToText(title, songs))
	return err
}

// Package recommend blends a listener's history and likes into a diversified list of
// songs they have not heard yet.
//
// Seed artists come from recent history first, then from recent likes. Each seed is
// searched separately and the per-artist results are interleaved round-robin so one
// prolific artist cannot fill consecutive slots.
package recommend

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/shared"
	"github.com/samber/lo"
)

const (
	MaxSeeds           = 4
	HistoryWindow      = 30
	LikesWindow        = 50
	PerArtistLimit     = 10
	MaxRecommendations = 12
)

// SearchFunc finds up to limit songs by artist.
type SearchFunc func(ctx context.Context, artist string, limit int) ([]models.Song, error)

// ShuffleFunc permutes n elements through swap, with the signature of [rand.Shuffle].
type ShuffleFunc func(n int, swap func(i, j int))

// Engine produces recommendations using an injected search capability.
type Engine struct {
	search  SearchFunc
	shuffle ShuffleFunc
	logger  *log.Logger
}

// Option configures an [Engine].
type Option func(*Engine)

// WithShuffle replaces the random shuffle, e.g. with a no-op for deterministic output.
func WithShuffle(shuffle ShuffleFunc) Option {
	return func(e *Engine) {
		if shuffle != nil {
			e.shuffle = shuffle
		}
	}
}

// WithLogger sets the logger used to report failed searches.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// NoShuffle leaves elements in place.
func NoShuffle(int, func(i, j int)) {}

// New creates an [Engine] that searches with search.
func New(search SearchFunc, opts ...Option) *Engine {
	e := &Engine{
		search:  search,
		shuffle: rand.Shuffle,
		logger:  shared.NewLogger(nil),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = shared.WithLogger(e.logger, "component", "recommend")
	return e
}

// Recommend returns up to [MaxRecommendations] songs whose videoIds appear in neither
// history nor likes. history is most-recent-first and likes is in insertion order.
//
// It never fails: a failed search contributes nothing and the rest still merge.
func (e *Engine) Recommend(ctx context.Context, history, likes []models.Song) []models.Song {
	if len(history) == 0 && len(likes) == 0 {
		return []models.Song{}
	}

	seeds := SeedArtists(history, likes)
	if len(seeds) == 0 {
		return []models.Song{}
	}
	e.shuffle(len(seeds), func(i, j int) { seeds[i], seeds[j] = seeds[j], seeds[i] })

	excluded := lo.Associate(append(lo.Map(history, songID), lo.Map(likes, songID)...), func(id string) (string, struct{}) {
		return id, struct{}{}
	})

	buckets := e.searchAll(ctx, seeds, excluded)
	return merge(buckets, MaxRecommendations)
}

// searchAll searches every seed concurrently, then shuffles each bucket. Buckets keep the order of seeds.
func (e *Engine) searchAll(ctx context.Context, seeds []string, excluded map[string]struct{}) [][]models.Song {
	buckets := make([][]models.Song, len(seeds))

	var wg sync.WaitGroup
	for i, artist := range seeds {
		wg.Add(1)
		go func() {
			defer wg.Done()

			songs, err := e.search(ctx, artist, PerArtistLimit)
			if err != nil {
				if !errors.Is(err, shared.ErrUpstreamSearch) {
					err = errors.Join(shared.ErrUpstreamSearch, err)
				}
				e.logger.Warn("search failed, skipping artist", "artist", artist, "error", err)
				return
			}

			buckets[i] = lo.Filter(songs, func(s models.Song, _ int) bool {
				_, seen := excluded[s.VideoID]
				return s.VideoID != "" && !seen
			})
		}()
	}
	wg.Wait()

	// Shuffle runs on this goroutine in seed order so a seeded source stays deterministic.
	for _, bucket := range buckets {
		e.shuffle(len(bucket), func(i, j int) { bucket[i], bucket[j] = bucket[j], bucket[i] })
	}
	return buckets
}

// SeedArtists collects up to [MaxSeeds] distinct, trimmed artist names: first from the
// newest [HistoryWindow] history entries, then from the newest [LikesWindow] likes.
func SeedArtists(history, likes []models.Song) []string {
	candidates := make([]string, 0, min(len(history), HistoryWindow)+min(len(likes), LikesWindow))

	for _, s := range history[:min(len(history), HistoryWindow)] {
		candidates = append(candidates, s.Artist)
	}
	for i := len(likes) - 1; i >= max(0, len(likes)-LikesWindow); i-- {
		candidates = append(candidates, likes[i].Artist)
	}

	names := lo.Uniq(lo.FilterMap(candidates, func(a string, _ int) (string, bool) {
		a = strings.TrimSpace(a)
		return a, a != ""
	}))
	if len(names) > MaxSeeds {
		names = names[:MaxSeeds]
	}
	return names
}

// merge interleaves buckets round-robin, dropping videoIds already emitted, until limit
// songs are collected or every bucket is exhausted.
func merge(buckets [][]models.Song, limit int) []models.Song {
	out := make([]models.Song, 0, limit)
	emitted := make(map[string]struct{})
	pos := make([]int, len(buckets))

	for len(out) < limit {
		progressed := false
		for i, bucket := range buckets {
			if pos[i] >= len(bucket) {
				continue
			}
			song := bucket[pos[i]]
			pos[i]++
			progressed = true

			if _, dup := emitted[song.VideoID]; dup {
				continue
			}
			emitted[song.VideoID] = struct{}{}
			out = append(out, song)
			if len(out) == limit {
				break
			}
		}
		if !progressed {
			break
		}
	}

	return out
}

func songID(s models.Song, _ int) string {
	return s.VideoID
}

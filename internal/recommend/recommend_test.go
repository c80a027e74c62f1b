package recommend

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/shared"
)

func song(id, artist string) models.Song {
	return models.Song{VideoID: id, Artist: artist}
}

// fakeSearch serves fixed results per artist and records the calls it receives.
type fakeSearch struct {
	mu      sync.Mutex
	results map[string][]models.Song
	fail    map[string]bool
	calls   map[string]int
}

func (f *fakeSearch) search(_ context.Context, artist string, limit int) ([]models.Song, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[artist]++
	if limit != PerArtistLimit {
		return nil, fmt.Errorf("unexpected limit %d", limit)
	}
	if f.fail[artist] {
		return nil, fmt.Errorf("%w: upstream down", shared.ErrUpstreamSearch)
	}
	return append([]models.Song(nil), f.results[artist]...), nil
}

func newEngine(f *fakeSearch, opts ...Option) *Engine {
	opts = append([]Option{WithLogger(shared.NewLogger(io.Discard))}, opts...)
	return New(f.search, opts...)
}

func ids(songs []models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.VideoID
	}
	return out
}

func TestRecommend(t *testing.T) {
	ctx := context.Background()

	t.Run("empty history and likes", func(t *testing.T) {
		f := &fakeSearch{}
		got := newEngine(f).Recommend(ctx, nil, nil)
		if got == nil || len(got) != 0 {
			t.Errorf("expected empty non-nil result, got %#v", got)
		}
		if len(f.calls) != 0 {
			t.Error("expected no searches")
		}
	})

	t.Run("no usable artists", func(t *testing.T) {
		f := &fakeSearch{}
		got := newEngine(f).Recommend(ctx, []models.Song{song("a", "  ")}, []models.Song{song("b", "")})
		if len(got) != 0 {
			t.Errorf("expected empty result, got %v", ids(got))
		}
	})

	t.Run("excluded songs are dropped", func(t *testing.T) {
		f := &fakeSearch{results: map[string][]models.Song{
			"X": {song("a1", "X"), song("a3", "X")},
			"Y": {song("a2", "Y")},
		}}
		history := []models.Song{song("a1", "X"), song("a2", "Y")}

		got := newEngine(f).Recommend(ctx, history, nil)
		if len(got) != 1 || got[0].VideoID != "a3" {
			t.Errorf("expected exactly [a3], got %v", ids(got))
		}
	})

	t.Run("likes are excluded too", func(t *testing.T) {
		f := &fakeSearch{results: map[string][]models.Song{
			"X": {song("liked", "X"), song("fresh", "X"), song("", "X")},
		}}
		got := newEngine(f).Recommend(ctx, nil, []models.Song{song("liked", "X")})
		if len(got) != 1 || got[0].VideoID != "fresh" {
			t.Errorf("expected [fresh], got %v", ids(got))
		}
	})

	t.Run("round robin interleaves artists", func(t *testing.T) {
		f := &fakeSearch{results: map[string][]models.Song{
			"A": {song("a1", "A"), song("a2", "A"), song("a3", "A"), song("a4", "A")},
			"B": {song("b1", "B")},
			"C": {song("c1", "C"), song("c2", "C")},
		}}
		history := []models.Song{song("h1", "A"), song("h2", "B"), song("h3", "C")}

		got := ids(newEngine(f, WithShuffle(NoShuffle)).Recommend(ctx, history, nil))
		want := []string{"a1", "b1", "c1", "a2", "c2", "a3", "a4"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("duplicates across artists are emitted once", func(t *testing.T) {
		f := &fakeSearch{results: map[string][]models.Song{
			"A": {song("shared", "A"), song("a1", "A")},
			"B": {song("shared", "B"), song("b1", "B")},
		}}
		history := []models.Song{song("h1", "A"), song("h2", "B")}

		got := ids(newEngine(f, WithShuffle(NoShuffle)).Recommend(ctx, history, nil))
		want := []string{"shared", "a1", "b1"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("output is capped", func(t *testing.T) {
		results := map[string][]models.Song{}
		var history []models.Song
		for _, artist := range []string{"A", "B", "C", "D"} {
			history = append(history, song("h-"+artist, artist))
			for i := range PerArtistLimit {
				results[artist] = append(results[artist], song(fmt.Sprintf("%s-%d", artist, i), artist))
			}
		}

		got := newEngine(&fakeSearch{results: results}).Recommend(ctx, history, nil)
		if len(got) != MaxRecommendations {
			t.Errorf("expected %d recommendations, got %d", MaxRecommendations, len(got))
		}
	})

	t.Run("failed search does not abort the others", func(t *testing.T) {
		f := &fakeSearch{
			results: map[string][]models.Song{"B": {song("b1", "B")}},
			fail:    map[string]bool{"A": true},
		}
		history := []models.Song{song("h1", "A"), song("h2", "B")}

		got := newEngine(f).Recommend(ctx, history, nil)
		if len(got) != 1 || got[0].VideoID != "b1" {
			t.Errorf("expected [b1], got %v", ids(got))
		}
	})

	t.Run("every search failing yields empty", func(t *testing.T) {
		f := &fakeSearch{fail: map[string]bool{"A": true}}
		got := newEngine(f).Recommend(ctx, []models.Song{song("h1", "A")}, nil)
		if len(got) != 0 {
			t.Errorf("expected empty result, got %v", ids(got))
		}
	})

	t.Run("one search per seed", func(t *testing.T) {
		f := &fakeSearch{}
		history := []models.Song{song("1", "A"), song("2", "A"), song("3", "B"), song("4", "C"), song("5", "D"), song("6", "E")}
		newEngine(f).Recommend(ctx, history, nil)

		if len(f.calls) != MaxSeeds {
			t.Errorf("expected %d seeds searched, got %v", MaxSeeds, f.calls)
		}
		for artist, n := range f.calls {
			if n != 1 {
				t.Errorf("artist %s searched %d times", artist, n)
			}
		}
		if f.calls["E"] != 0 {
			t.Error("fifth artist should not be a seed")
		}
	})

	t.Run("seeded shuffle is deterministic", func(t *testing.T) {
		f := &fakeSearch{results: map[string][]models.Song{}}
		history := []models.Song{song("h1", "A"), song("h2", "B"), song("h3", "C"), song("h4", "D")}
		for _, artist := range []string{"A", "B", "C", "D"} {
			for n := range 6 {
				id := fmt.Sprintf("%s%d", artist, n)
				f.results[artist] = append(f.results[artist], song(id, artist))
			}
		}

		run := func() string {
			rng := rand.New(rand.NewPCG(1, 2))
			return strings.Join(ids(newEngine(f, WithShuffle(rng.Shuffle)).Recommend(ctx, history, nil)), ",")
		}

		want := run()
		for range 50 {
			if got := run(); got != want {
				t.Fatalf("expected identical output for the same seed, got %s then %s", want, got)
			}
		}
	})
}

func TestSeedArtists(t *testing.T) {
	t.Run("history first then likes newest first", func(t *testing.T) {
		history := []models.Song{song("1", " A "), song("2", "A"), song("3", "B")}
		likes := []models.Song{song("4", "Old"), song("5", "B"), song("6", "New")}

		got := SeedArtists(history, likes)
		want := []string{"A", "B", "New", "Old"}
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Errorf("expected %v, got %v", want, got)
		}
	})

	t.Run("case sensitive", func(t *testing.T) {
		got := SeedArtists([]models.Song{song("1", "abba"), song("2", "ABBA")}, nil)
		if len(got) != 2 {
			t.Errorf("expected 2 seeds, got %v", got)
		}
	})

	t.Run("history window", func(t *testing.T) {
		history := make([]models.Song, 0, HistoryWindow+1)
		for i := range HistoryWindow {
			history = append(history, song(fmt.Sprint(i), "Same"))
		}
		history = append(history, song("late", "Outside"))

		got := SeedArtists(history, nil)
		if len(got) != 1 || got[0] != "Same" {
			t.Errorf("expected only Same, got %v", got)
		}
	})

	t.Run("likes window", func(t *testing.T) {
		likes := []models.Song{song("first", "Ancient")}
		for i := range LikesWindow {
			likes = append(likes, song(fmt.Sprint(i), "Recent"))
		}

		got := SeedArtists(nil, likes)
		if len(got) != 1 || got[0] != "Recent" {
			t.Errorf("expected only Recent, got %v", got)
		}
	})
}

func TestMerge(t *testing.T) {
	t.Run("empty buckets", func(t *testing.T) {
		if got := merge([][]models.Song{nil, {}}, MaxRecommendations); len(got) != 0 {
			t.Errorf("expected empty, got %v", ids(got))
		}
	})

	t.Run("limit stops mid round", func(t *testing.T) {
		buckets := [][]models.Song{{song("a", "")}, {song("b", "")}, {song("c", "")}}
		got := ids(merge(buckets, 2))
		if fmt.Sprint(got) != "[a b]" {
			t.Errorf("expected [a b], got %v", got)
		}
	})
}

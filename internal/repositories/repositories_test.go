package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func song(id string) models.Song {
	return models.Song{VideoID: id, Title: "Title " + id, Artist: "Artist " + id, Duration: "3:00"}
}

func videoIDs(songs []models.Song) []string {
	out := make([]string, len(songs))
	for i, s := range songs {
		out[i] = s.VideoID
	}
	return out
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "history")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "missing"); err == nil {
		t.Error("expected error for unknown sequence table")
	}
}

func TestUserRepository(t *testing.T) {
	t.Run("Load unknown nickname", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		profile, err := repo.Load("nobody")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !profile.IsEmpty() || profile.Nickname != "nobody" {
			t.Errorf("expected empty profile, got %+v", profile)
		}
		if profile.History == nil || profile.Likes == nil {
			t.Error("expected non-nil empty lists")
		}
	})

	t.Run("AppendHistory prepends and dedupes", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		for _, id := range []string{"a", "b", "c", "a"} {
			if err := repo.AppendHistory("alice", song(id)); err != nil {
				t.Fatalf("failed to append %s: %v", id, err)
			}
		}

		history, err := repo.History("alice")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := fmt.Sprint(videoIDs(history)); got != "[a c b]" {
			t.Errorf("expected [a c b], got %s", got)
		}
		if history[0].Title != "Title a" || history[0].Duration != "3:00" {
			t.Errorf("song fields not persisted: %+v", history[0])
		}
	})

	t.Run("AppendHistory caps at HistoryLimit", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		for i := range HistoryLimit + 5 {
			if err := repo.AppendHistory("bob", song(fmt.Sprintf("v%03d", i))); err != nil {
				t.Fatalf("failed to append: %v", err)
			}
		}

		history, err := repo.History("bob")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(history) != HistoryLimit {
			t.Fatalf("expected %d entries, got %d", HistoryLimit, len(history))
		}
		if history[0].VideoID != fmt.Sprintf("v%03d", HistoryLimit+4) {
			t.Errorf("expected newest first, got %s", history[0].VideoID)
		}
		if last := history[len(history)-1].VideoID; last != "v005" {
			t.Errorf("expected oldest kept entry v005, got %s", last)
		}
	})

	t.Run("nicknames are isolated and case sensitive", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		if err := repo.AppendHistory("Alice", song("x")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if err := repo.AppendHistory(" alice ", song("y")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		upper, _ := repo.History("Alice")
		lower, _ := repo.History("alice")
		if len(upper) != 1 || upper[0].VideoID != "x" || len(lower) != 1 || lower[0].VideoID != "y" {
			t.Errorf("unexpected histories %v / %v", videoIDs(upper), videoIDs(lower))
		}

		nicknames, err := repo.Nicknames()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(nicknames) != 2 {
			t.Errorf("expected 2 nicknames, got %v", nicknames)
		}
	})

	t.Run("likes keep insertion order and dedupe", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		for _, id := range []string{"a", "b", "a", "c"} {
			if _, err := repo.AddLike("carol", song(id)); err != nil {
				t.Fatalf("failed to like %s: %v", id, err)
			}
		}

		added, err := repo.AddLike("carol", song("b"))
		if err != nil || added {
			t.Errorf("expected duplicate like to be ignored, got added=%v err=%v", added, err)
		}

		likes, _ := repo.Likes("carol")
		if got := fmt.Sprint(videoIDs(likes)); got != "[a b c]" {
			t.Errorf("expected [a b c], got %s", got)
		}

		removed, err := repo.RemoveLike("carol", "b")
		if err != nil || !removed {
			t.Fatalf("expected like to be removed, got removed=%v err=%v", removed, err)
		}
		removed, _ = repo.RemoveLike("carol", "b")
		if removed {
			t.Error("second removal should report false")
		}

		likes, _ = repo.Likes("carol")
		if got := fmt.Sprint(videoIDs(likes)); got != "[a c]" {
			t.Errorf("expected [a c], got %s", got)
		}
	})

	t.Run("history removal and clear", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))
		for _, id := range []string{"a", "b", "c"} {
			repo.AppendHistory("dave", song(id))
		}
		repo.AddLike("dave", song("z"))

		removed, err := repo.RemoveHistoryItem("dave", "b")
		if err != nil || !removed {
			t.Fatalf("expected removal, got removed=%v err=%v", removed, err)
		}

		n, err := repo.ClearHistory("dave")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 2 {
			t.Errorf("expected 2 cleared entries, got %d", n)
		}

		profile, _ := repo.Load("dave")
		if len(profile.History) != 0 || len(profile.Likes) != 1 {
			t.Errorf("clear should keep likes, got %+v", profile)
		}
	})

	t.Run("validation", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		calls := map[string]func() error{
			"Load blank":         func() error { _, err := repo.Load(" "); return err },
			"AppendHistory nick": func() error { return repo.AppendHistory("", song("a")) },
			"AppendHistory id":   func() error { return repo.AppendHistory("eve", song(" ")) },
			"AddLike id":         func() error { _, err := repo.AddLike("eve", models.Song{}); return err },
			"RemoveLike id":      func() error { _, err := repo.RemoveLike("eve", ""); return err },
			"RemoveHistory nick": func() error { _, err := repo.RemoveHistoryItem("", "a"); return err },
			"ClearHistory nick":  func() error { _, err := repo.ClearHistory(""); return err },
		}

		for name, call := range calls {
			t.Run(name, func(t *testing.T) {
				if err := call(); !errors.Is(err, shared.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
			})
		}
	})

	t.Run("concurrent appends", func(t *testing.T) {
		repo := NewUserRepository(setupTestDB(t))

		var wg sync.WaitGroup
		for i := range 20 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := repo.AppendHistory("frank", song(fmt.Sprintf("v%d", i%5))); err != nil {
					t.Errorf("append failed: %v", err)
				}
			}()
		}
		wg.Wait()

		history, _ := repo.History("frank")
		if len(history) != 5 {
			t.Errorf("expected 5 unique entries, got %d", len(history))
		}
	})
}

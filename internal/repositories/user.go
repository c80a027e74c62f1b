package repositories

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/songreq/internal/models"
	"github.com/desertthunder/songreq/internal/shared"
)

// HistoryLimit is the maximum number of history entries kept per nickname.
const HistoryLimit = 200

const (
	historyTable = "history"
	likesTable   = "likes"
)

// UserRepository persists listener history and likes.
type UserRepository struct {
	db *sql.DB
	mu sync.Mutex
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Load returns the profile for nickname. Unknown nicknames yield an empty profile.
func (r *UserRepository) Load(nickname string) (models.UserProfile, error) {
	nickname, err := shared.RequireNickname(nickname)
	if err != nil {
		return models.UserProfile{}, err
	}

	history, err := r.History(nickname)
	if err != nil {
		return models.UserProfile{}, err
	}

	likes, err := r.Likes(nickname)
	if err != nil {
		return models.UserProfile{}, err
	}

	return models.UserProfile{Nickname: nickname, History: history, Likes: likes}, nil
}

// History returns the nickname's history, most recent first.
func (r *UserRepository) History(nickname string) ([]models.Song, error) {
	nickname, err := shared.RequireNickname(nickname)
	if err != nil {
		return nil, err
	}
	return r.songs(historyTable, nickname, "DESC")
}

// Likes returns the nickname's liked songs in the order they were liked.
func (r *UserRepository) Likes(nickname string) ([]models.Song, error) {
	nickname, err := shared.RequireNickname(nickname)
	if err != nil {
		return nil, err
	}
	return r.songs(likesTable, nickname, "ASC")
}

// Nicknames lists every nickname with a stored profile, most recently active first.
func (r *UserRepository) Nicknames() ([]string, error) {
	rows, err := r.db.Query(`SELECT nickname FROM users ORDER BY updated_at DESC, nickname ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	nicknames := []string{}
	for rows.Next() {
		var nickname string
		if err := rows.Scan(&nickname); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		nicknames = append(nicknames, nickname)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return nicknames, nil
}

// AppendHistory records song as the nickname's most recent play.
//
// An existing entry with the same videoId is replaced, and entries beyond [HistoryLimit] are dropped.
func (r *UserRepository) AppendHistory(nickname string, song models.Song) error {
	nickname, song, err := validate(nickname, song)
	if err != nil {
		return err
	}

	return r.withTx(func(tx *sql.Tx) error {
		if err := touchUser(tx, nickname); err != nil {
			return err
		}

		if _, err := tx.Exec(`DELETE FROM history WHERE nickname = ? AND video_id = ?`, nickname, song.VideoID); err != nil {
			return fmt.Errorf("failed to remove previous history entry: %w", err)
		}

		if err := insertSong(tx, historyTable, nickname, song); err != nil {
			return err
		}

		query := `
			DELETE FROM history
			WHERE nickname = ? AND id NOT IN (
				SELECT id FROM history WHERE nickname = ? ORDER BY sequence DESC LIMIT ?
			)
		`
		if _, err := tx.Exec(query, nickname, nickname, HistoryLimit); err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
		return nil
	})
}

// AddLike appends song to the nickname's likes. It reports false when the song was already liked.
func (r *UserRepository) AddLike(nickname string, song models.Song) (bool, error) {
	nickname, song, err := validate(nickname, song)
	if err != nil {
		return false, err
	}

	added := false
	err = r.withTx(func(tx *sql.Tx) error {
		var exists bool
		query := `SELECT EXISTS (SELECT 1 FROM likes WHERE nickname = ? AND video_id = ?)`
		if err := tx.QueryRow(query, nickname, song.VideoID).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check likes: %w", err)
		}
		if exists {
			return nil
		}

		if err := touchUser(tx, nickname); err != nil {
			return err
		}
		if err := insertSong(tx, likesTable, nickname, song); err != nil {
			return err
		}
		added = true
		return nil
	})

	return added, err
}

// RemoveLike deletes videoID from the nickname's likes. It reports whether a row was removed.
func (r *UserRepository) RemoveLike(nickname, videoID string) (bool, error) {
	return r.removeSong(likesTable, nickname, videoID)
}

// RemoveHistoryItem deletes videoID from the nickname's history. It reports whether a row was removed.
func (r *UserRepository) RemoveHistoryItem(nickname, videoID string) (bool, error) {
	return r.removeSong(historyTable, nickname, videoID)
}

// ClearHistory deletes the nickname's whole history and returns the number of removed entries.
func (r *UserRepository) ClearHistory(nickname string) (int, error) {
	nickname, err := shared.RequireNickname(nickname)
	if err != nil {
		return 0, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.Exec(`DELETE FROM history WHERE nickname = ?`, nickname)
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return int(rows), nil
}

func (r *UserRepository) removeSong(table, nickname, videoID string) (bool, error) {
	nickname, err := shared.RequireNickname(nickname)
	if err != nil {
		return false, err
	}
	videoID, err = shared.RequireVideoID(videoID)
	if err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	query := fmt.Sprintf(`DELETE FROM %s WHERE nickname = ? AND video_id = ?`, table)
	result, err := r.db.Exec(query, nickname, videoID)
	if err != nil {
		return false, fmt.Errorf("failed to delete from %s: %w", table, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows > 0, nil
}

func (r *UserRepository) songs(table, nickname, order string) ([]models.Song, error) {
	query := fmt.Sprintf(`
		SELECT video_id, title, artist, duration, thumbnail, album_name
		FROM %s
		WHERE nickname = ?
		ORDER BY sequence %s
	`, table, order)

	rows, err := r.db.Query(query, nickname)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", table, err)
	}
	defer rows.Close()

	songs := []models.Song{}
	for rows.Next() {
		var s models.Song
		if err := rows.Scan(&s.VideoID, &s.Title, &s.Artist, &s.Duration, &s.Thumbnail, &s.AlbumName); err != nil {
			return nil, fmt.Errorf("failed to scan %s entry: %w", table, err)
		}
		songs = append(songs, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return songs, nil
}

// withTx runs fn in a transaction while holding the write lock.
func (r *UserRepository) withTx(fn func(tx *sql.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func validate(nickname string, song models.Song) (string, models.Song, error) {
	nickname, err := shared.RequireNickname(nickname)
	if err != nil {
		return "", song, err
	}
	song.VideoID, err = shared.RequireVideoID(song.VideoID)
	if err != nil {
		return "", song, err
	}
	return nickname, song, nil
}

func touchUser(tx *sql.Tx, nickname string) error {
	now := time.Now().UTC()
	query := `
		INSERT INTO users (nickname, created_at, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (nickname) DO UPDATE SET updated_at = excluded.updated_at
	`
	if _, err := tx.Exec(query, nickname, now, now); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

func insertSong(tx *sql.Tx, table, nickname string, song models.Song) error {
	sequence, err := NextSequence(tx, table)
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, sequence, nickname, video_id, title, artist, duration, thumbnail, album_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, table)

	_, err = tx.Exec(query, shared.GenerateID(), sequence, nickname,
		song.VideoID, song.Title, song.Artist, song.Duration, song.Thumbnail, song.AlbumName, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert into %s: %w", table, err)
	}
	return nil
}

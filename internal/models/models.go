package models

import (
	"encoding/json"
	"strings"
)

// Song is a flat, display-ready track. VideoID is its identity; every other
// field is denormalized and may be stale or empty.
type Song struct {
	VideoID   string `json:"videoId"`
	Title     string `json:"title"`
	Artist    string `json:"artist"`
	Duration  string `json:"duration"`
	Thumbnail string `json:"thumbnail"`
	AlbumName string `json:"albumName,omitempty"`
}

// QueueItem is a [Song] at a position in the player's current queue.
type QueueItem struct {
	Song
	Index int `json:"index"`
}

// NowPlaying describes the player's current track. A nil Song means nothing is loaded.
type NowPlaying struct {
	Song           *Song
	IsPaused       bool
	ElapsedSeconds float64
	SongDuration   float64
}

// MarshalJSON flattens the song into the top level object and emits
// {"videoId": null} when nothing is loaded.
func (n NowPlaying) MarshalJSON() ([]byte, error) {
	if n.Song == nil {
		return json.Marshal(struct {
			VideoID *string `json:"videoId"`
		}{})
	}

	return json.Marshal(struct {
		Song
		IsPaused       bool    `json:"isPaused"`
		ElapsedSeconds float64 `json:"elapsedSeconds"`
		SongDuration   float64 `json:"songDuration"`
	}{*n.Song, n.IsPaused, n.ElapsedSeconds, n.SongDuration})
}

// Volume is the player's volume state.
type Volume struct {
	State   int  `json:"state"`
	IsMuted bool `json:"isMuted"`
}

// Thumbnail is a single image entry in a search result.
type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SearchResult is a song returned by the search provider.
type SearchResult struct {
	VideoID    string      `json:"videoId"`
	Title      string      `json:"title"`
	Artists    []string    `json:"artists"`
	Album      string      `json:"album"`
	Duration   string      `json:"duration"`
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// Song converts the result into a [Song], joining artist names and keeping the
// largest thumbnail.
func (r SearchResult) Song() Song {
	song := Song{
		VideoID:   r.VideoID,
		Title:     r.Title,
		Artist:    strings.Join(r.Artists, ", "),
		Duration:  r.Duration,
		AlbumName: r.Album,
	}
	if n := len(r.Thumbnails); n > 0 {
		song.Thumbnail = r.Thumbnails[n-1].URL
	}
	return song
}

// UserProfile is a nickname's listening history (most recent first) and liked songs (insertion order).
type UserProfile struct {
	Nickname string `json:"nickname"`
	History  []Song `json:"history"`
	Likes    []Song `json:"likes"`
}

// IsEmpty reports whether the profile carries no listening signal.
func (p UserProfile) IsEmpty() bool {
	return len(p.History) == 0 && len(p.Likes) == 0
}

// Package models defines the domain types exchanged between the player integration layer and its consumers.
//
// Player data:
//   - [Song] : flat track record, identified by VideoID
//   - [QueueItem] : a Song with its position in the player's queue
//   - [NowPlaying] : the current track plus transport state; a nil Song means nothing is loaded
//   - [Volume] : volume level and mute flag
//
// Search data:
//   - [SearchResult] : a search provider hit, convertible to a Song via [SearchResult.Song]
//
// User data:
//   - [UserProfile] : per-nickname history (most recent first, capped) and likes (insertion order)
//
// JSON field names follow the browser client's contract (videoId, albumName, isPaused...).
package models

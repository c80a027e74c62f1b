// Package repositories implements SQLite persistence for listener profiles.
//
// A profile is keyed by nickname (case-sensitive, trimmed) and holds two song lists:
//   - history: most-recent-first, one row per videoId, capped at [HistoryLimit]
//   - likes: insertion order, one row per videoId
//
// Rows carry a UUID primary key and a per-table sequence number from [NextSequence].
// Ordering always uses the sequence, never created_at.
//
// [UserRepository] serializes its writes with a mutex and runs each write in a single
// transaction, so concurrent requests for the same nickname cannot interleave a
// dedupe with an insert.
package repositories

// Package services implements the HTTP clients that talk to processes outside songreq.
//
// # Player
//
// [PlayerClient] wraps the desktop player's REST API (default http://localhost:26538/api/v1).
// Each call issues exactly one request bounded by a context timeout (10s for data, 3s for
// the reachability probe) and never retries.
//
// Reads expect 200, writes expect 204. Any other status, a timeout or a connection failure
// is reported as [shared.ErrPlayerUnavailable]; the transport error is logged but never
// returned raw. GetQueue and GetNowPlaying degrade to an empty queue and an empty
// [models.NowPlaying] instead of failing.
//
// Invalid input (negative index or seconds, volume outside 0..100, unknown action, empty
// videoId) fails with [shared.ErrValidation] before any request is made.
//
// # Search
//
// [SearchService] queries the ytmusicapi proxy at GET /api/search with filter=songs.
// Failures are reported as [shared.ErrUpstreamSearch].
package services

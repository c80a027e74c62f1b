// Package server exposes the song request HTTP API used by the browser client and the player plugin.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [BasicRouter] wraps [http.ServeMux] method patterns, so handlers read path parameters through
// [http.Request.PathValue]. [Middleware] wraps the whole mux in reverse order (last added executes first).
//
// # Middleware
//
//   - [Recover] turns handler panics into 500 responses
//   - [RequestID] tags each request with an X-Request-ID
//   - [Logging] writes one line per request
//   - [CORS] answers preflights and allows origins matching the configured glob patterns
//   - [ClientLimiter] throttles enqueue requests per client
//
// # API
//
// [API] binds the player, search, user and monitor collaborators to JSON routes. Errors are
// mapped to statuses by [StatusFor] and always rendered as {"error": "..."}.
//
// [StatusStream] pushes the connection state and the current song over a websocket at /ws.
package server

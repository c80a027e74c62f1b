// Package monitor tracks whether the desktop player is reachable and requests an
// auto-shutdown when it never shows up.
//
// # State machine
//
// A [Monitor] starts in [Unknown]. A successful probe moves it to [Connected] from any
// state; a failed probe while Connected moves it to [Disconnected]. A failed probe in
// any other state changes nothing.
//
// # Auto-shutdown
//
// [Monitor.Start] arms a one-shot deadline (300s by default). The first successful probe
// cancels it for good: a later disconnect is logged but never re-arms it. When the
// deadline fires while the player is not Connected, a grace timer (1s) is armed and, when
// it fires, the channel returned by [Monitor.ShutdownRequested] is closed. The monitor
// never exits the process itself; the owner of the channel decides how to shut down.
//
// # Concurrency
//
// One goroutine polls the [Prober]. State, timers and the shutdown channel are guarded by
// a single mutex. Timer callbacks carry a generation token and do nothing when the token
// no longer matches, so a callback racing with [Monitor.Stop] or with a successful probe
// is a no-op. Stop is idempotent and safe to call from any goroutine.
package monitor

package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ProbePlayer Phase = iota
	FetchNowPlaying
	FetchQueue
	FetchVolume
	DumpComplete
)

func (p Phase) String() string {
	switch p {
	case ProbePlayer:
		return "probe_player"
	case FetchNowPlaying:
		return "fetch_now_playing"
	case FetchQueue:
		return "fetch_queue"
	case FetchVolume:
		return "fetch_volume"
	case DumpComplete:
		return "dump_complete"
	default:
		return ""
	}
}

func operationUpdate(op dumpOperation, step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   op.phase,
		Step:    step,
		Total:   total,
		Message: op.message,
	}
}

func unreachableUpdate(step, total int, baseURL string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProbePlayer,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Player is not reachable at %s", baseURL),
	}
}

func completeUpdate(total int, result *DumpResult) ProgressUpdate {
	msg := fmt.Sprintf("Collected %d queued songs", len(result.Queue))
	if n := len(result.Errors); n > 0 {
		msg = fmt.Sprintf("%s (%d failed reads)", msg, n)
	}
	return ProgressUpdate{
		Phase:   DumpComplete,
		Step:    total,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}

//go:build windows

package shared

import "os"

// TerminationSignals lists the signals that trigger a graceful shutdown.
func TerminationSignals() []os.Signal {
	return []os.Signal{os.Interrupt}
}

// Package ui implements the terminal dashboard using bubbletea's Elm architecture.
//
// The dashboard shows the player connection, the current song with its progress and volume,
// and the queue as a [list.Model]. It refreshes on a fixed interval through [tasks.StatusEngine]
// and after every command it sends.
//
// Keys: space toggles playback, n/p skip, d removes the selected song, +/- change the volume,
// r refreshes and q quits. Help is rendered with charmbracelet/bubbles/help.
package ui

package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/songreq/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgStatusFetched MsgKind = iota
	MsgCommandDone
	MsgTick
)

type statusData struct {
	result *tasks.DumpResult
	err    error
}

type commandData struct {
	description string
	err         error
}

// statusFetchedMsg is the constructor for [MsgStatusFetched]
func statusFetchedMsg(result *tasks.DumpResult, err error) Msg {
	return Msg{kind: MsgStatusFetched, data: statusData{result, err}}
}

// commandDoneMsg is the constructor for [MsgCommandDone]
func commandDoneMsg(description string, err error) Msg {
	return Msg{kind: MsgCommandDone, data: commandData{description, err}}
}

// tickMsg is the constructor for [MsgTick]
func tickMsg(t time.Time) Msg {
	return Msg{kind: MsgTick, data: t}
}

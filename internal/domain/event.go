package domain

import "time"

// EventKind classifies a history entry.
type EventKind string

const (
	EventLaunch     EventKind = "launch"
	EventSkip       EventKind = "skip"
	EventStop       EventKind = "stop"
	EventWake       EventKind = "wake"
	EventRegenerate EventKind = "regenerate"
	EventFailure    EventKind = "failure"
)

// Event is one row of the launch history.
type Event struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Widget    string    `json:"widget,omitempty"`
	PID       int       `json:"pid,omitempty"`
	Detail    string    `json:"detail,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ProcessInfo describes a running widget process.
type ProcessInfo struct {
	PID     int32  `json:"pid"`
	Program string `json:"program"`
	Cmdline string `json:"cmdline"`
}

package focus

import (
	"time"

	"github.com/verte-zerg/studo/internal/model"
)

// EventType defines the type of engine event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventTick        EventType = "tick"
	EventComplete    EventType = "complete"
	EventLogged      EventType = "logged"
	EventError       EventType = "error"
)

// Completion notifications shown to the user.
const (
	WorkCompleteMessage  = "Focus session complete! Take a break."
	BreakCompleteMessage = "Break over! Ready to focus?"
)

// State is a point-in-time view of the engine.
type State struct {
	Mode           model.Mode
	TimeLeft       int
	Active         bool
	Progress       float64
	SelectedTaskID string
}

// Event represents an engine update for observers.
type Event struct {
	Type    EventType
	State   State
	Record  *model.SessionRecord
	Message string
	At      time.Time

	seq uint64
}

func completionMessage(mode model.Mode) string {
	if mode == model.ModeWork {
		return WorkCompleteMessage
	}
	return BreakCompleteMessage
}

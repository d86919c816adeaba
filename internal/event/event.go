package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeRunStarted      Type = "run.started"
	TypeRenameProposed  Type = "rename.proposed"
	TypeRenameCompleted Type = "rename.completed"
	TypeRunFinished     Type = "run.finished"
)

type Event struct {
	ID        string `json:"id"`
	Type      Type   `json:"type"`
	RunID     string `json:"run_id"`
	Payload   any    `json:"payload"`
	Timestamp string `json:"timestamp"`
}

// New stamps an event for runID.
func New(eventType Type, runID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		RunID:     runID,
		Payload:   payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func()) // Returns channel and unsubscribe function
}

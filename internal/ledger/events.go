package ledger

import (
	"time"

	"github.com/google/uuid"
)

// EventKind names a successful state transition.
type EventKind string

const (
	EventBooked   EventKind = "booked"
	EventApproved EventKind = "approved"
	EventRevoked  EventKind = "revoked"
	EventLeft     EventKind = "left"
)

// Event describes one committed transition.
type Event struct {
	ID       uuid.UUID `json:"id"`
	Kind     EventKind `json:"kind"`
	Sender   Address   `json:"sender"`
	Owner    Address   `json:"owner"`
	Delegate *Address  `json:"delegate,omitempty"`
	Value    Wei       `json:"value_wei"`
	At       time.Time `json:"at"`
}

// Observer receives events in commit order. Observe is called with the
// ledger lock held and must not block or call back into the ledger.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

package tap

import (
	"time"

	"tapgate/internal/person"
)

// State is the presence state a tap resolves to.
type State string

const (
	StateIn    State = "IN"
	StateOut   State = "OUT"
	StateError State = "ERROR"
)

// Toggle returns the opposite presence state.
func (s State) Toggle() State {
	if s == StateIn {
		return StateOut
	}
	return StateIn
}

// Event is one recorded tap. Rows are append-only; Deleted exists in the
// table but is never set by this service.
type Event struct {
	ID         string      `json:"id"`
	PersonID   int64       `json:"person_id,omitempty"`
	PersonType person.Type `json:"person_type,omitempty"`
	RFID       string      `json:"rfid"`
	State      State       `json:"state"`
	Success    bool        `json:"success"`
	CreatedBy  *int64      `json:"created_by,omitempty"`
	Deleted    bool        `json:"-"`
	OccurredAt time.Time   `json:"occurred_at"`
}

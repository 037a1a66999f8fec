package notify

import (
	"fmt"
	"time"

	"tapgate/internal/person"
	"tapgate/internal/phone"
	"tapgate/internal/tap"
)

// Message is one queued SMS-style notification. Receiver stays empty when
// no contact number is on file; the outbox keeps the row anyway so the
// dashboard can show what would have been sent.
type Message struct {
	ID        string    `json:"id"`
	Body      string    `json:"body"`
	Receiver  string    `json:"receiver,omitempty"`
	RFID      string    `json:"rfid"`
	State     tap.State `json:"state"`
	School    string    `json:"school"`
	Sent      bool      `json:"sent"`
	CreatedAt time.Time `json:"created_at"`
}

// Builder renders notification texts and resolves destination numbers.
// UsePrimary consults the student's designated primary contact before
// falling back to the mother, father, guardian priority order.
type Builder struct {
	School     string
	UsePrimary bool
}

// Build renders the message for an accepted tap at the given time.
// Teachers get a tap confirmation with no receiver; students get an
// arrival/departure sentence addressed to a guardian.
func (b Builder) Build(p person.Person, state tap.State, at time.Time) Message {
	clock := at.Format("03:04 PM")
	msg := Message{
		RFID:      p.RFID,
		State:     state,
		School:    b.School,
		CreatedAt: at,
	}
	if p.Type == person.TypeTeacher {
		msg.Body = fmt.Sprintf("%s: Teacher %s tapped %s at %s", b.School, p.FirstName, state, clock)
		return msg
	}
	where := "inside"
	if state == tap.StateOut {
		where = "outside"
	}
	msg.Body = fmt.Sprintf("%s: Your student %s is already %s the school campus at %s",
		b.School, p.FirstName, where, clock)
	msg.Receiver = b.receiver(p.Contacts)
	return msg
}

// receiver picks the first contact number on file and formats it for
// dialing. The priority-order fallback always applies; the primary
// designation only reorders it.
func (b Builder) receiver(c person.Contacts) string {
	if b.UsePrimary {
		if raw := primaryNumber(c); raw != "" {
			return phone.FormatTo63(raw)
		}
	}
	for _, raw := range []string{c.Mother, c.Father, c.Guardian} {
		if raw != "" {
			return phone.FormatTo63(raw)
		}
	}
	return ""
}

func primaryNumber(c person.Contacts) string {
	switch c.Primary {
	case "mother":
		return c.Mother
	case "father":
		return c.Father
	case "guardian":
		return c.Guardian
	}
	return ""
}

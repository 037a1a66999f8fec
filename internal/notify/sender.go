package notify

import (
	"context"
	"log"
)

// Sender hands a rendered message to a delivery channel. Actual SMS
// delivery lives outside this service; LogSender is the only bundled
// implementation.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// LogSender writes messages to the application log instead of a gateway.
type LogSender struct{}

// Send logs the message and reports success.
func (LogSender) Send(_ context.Context, msg Message) error {
	if msg.Receiver == "" {
		log.Printf("notify (no receiver on file): %s", msg.Body)
		return nil
	}
	log.Printf("notify %s: %s", msg.Receiver, msg.Body)
	return nil
}

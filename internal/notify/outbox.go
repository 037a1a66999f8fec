package notify

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Outbox persists messages awaiting delivery. Rows are written unsent;
// the worker flips them after handing the message to a sender.
type Outbox struct {
	db      *sql.DB
	timeout time.Duration
}

// NewOutbox creates an outbox with a per-call timeout.
func NewOutbox(db *sql.DB, timeout time.Duration) *Outbox {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Outbox{db: db, timeout: timeout}
}

// Insert writes a new message, filling id and timestamp when unset.
func (o *Outbox) Insert(ctx context.Context, msg Message) (Message, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	var receiver sql.NullString
	if msg.Receiver != "" {
		receiver = sql.NullString{String: msg.Receiver, Valid: true}
	}
	_, err := o.db.ExecContext(ctx, `
		INSERT INTO messages (id, body, receiver, rfid, state, school, sent, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7)
	`, msg.ID, msg.Body, receiver, msg.RFID, msg.State, msg.School, msg.CreatedAt)
	if err != nil {
		return Message{}, err
	}
	return msg, nil
}

// Get returns a message by id.
func (o *Outbox) Get(ctx context.Context, id string) (Message, error) {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	row := o.db.QueryRowContext(ctx, `
		SELECT id, body, COALESCE(receiver, ''), rfid, state, school, sent, created_at
		FROM messages WHERE id = $1
	`, id)
	var msg Message
	if err := row.Scan(&msg.ID, &msg.Body, &msg.Receiver, &msg.RFID,
		&msg.State, &msg.School, &msg.Sent, &msg.CreatedAt); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// MarkSent records the delivery outcome for a message.
func (o *Outbox) MarkSent(ctx context.Context, id string, sent bool) error {
	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()
	_, err := o.db.ExecContext(ctx, `UPDATE messages SET sent = $2 WHERE id = $1`, id, sent)
	return err
}

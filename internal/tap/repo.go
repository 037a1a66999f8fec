package tap

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"tapgate/internal/person"
)

// Store persists tap events in Postgres. The same table serves as both
// the attendance history and the debounce "last tap" source.
type Store struct {
	db      *sql.DB
	timeout time.Duration
}

// NewStore creates a store with a per-call timeout.
func NewStore(db *sql.DB, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Store{db: db, timeout: timeout}
}

// LastAccepted returns the most recent accepted (success, not deleted)
// event for a person, or nil when the person has never tapped.
func (s *Store) LastAccepted(ctx context.Context, personID int64, personType person.Type) (*Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, person_id, person_type, rfid, state, success, created_by, deleted, occurred_at
		FROM tap_events
		WHERE person_id = $1 AND person_type = $2 AND success AND NOT deleted
		ORDER BY occurred_at DESC
		LIMIT 1
	`, personID, personType)
	evt, err := scanEvent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return evt, nil
}

// Insert writes a new event, filling id and timestamp when unset.
func (s *Store) Insert(ctx context.Context, evt Event) (Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if evt.ID == "" {
		evt.ID = uuid.NewString()
	}
	if evt.OccurredAt.IsZero() {
		evt.OccurredAt = time.Now().UTC()
	}
	var personID, createdBy sql.NullInt64
	var personType sql.NullString
	if evt.PersonID != 0 {
		personID = sql.NullInt64{Int64: evt.PersonID, Valid: true}
	}
	if evt.PersonType != "" {
		personType = sql.NullString{String: string(evt.PersonType), Valid: true}
	}
	if evt.CreatedBy != nil {
		createdBy = sql.NullInt64{Int64: *evt.CreatedBy, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tap_events (id, person_id, person_type, rfid, state, success, created_by, deleted, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE, $8)
	`, evt.ID, personID, personType, evt.RFID, evt.State, evt.Success, createdBy, evt.OccurredAt)
	if err != nil {
		return Event{}, err
	}
	return evt, nil
}

// Recent returns the latest accepted events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, person_id, person_type, rfid, state, success, created_by, deleted, occurred_at
		FROM tap_events
		WHERE success AND NOT deleted
		ORDER BY occurred_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var events []Event
	for rows.Next() {
		evt, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, *evt)
	}
	return events, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*Event, error) {
	var evt Event
	var personID, createdBy sql.NullInt64
	var personType sql.NullString
	if err := row.Scan(&evt.ID, &personID, &personType, &evt.RFID, &evt.State,
		&evt.Success, &createdBy, &evt.Deleted, &evt.OccurredAt); err != nil {
		return nil, err
	}
	evt.PersonID = personID.Int64
	evt.PersonType = person.Type(personType.String)
	if createdBy.Valid {
		evt.CreatedBy = &createdBy.Int64
	}
	return &evt, nil
}

package auditlog

import (
	"context"
	"database/sql"
	"time"

	"tapgate/internal/person"
)

// Scan attempt statuses.
const (
	StatusSuccess     = "success"
	StatusDuplicate   = "duplicate"
	StatusNotFound    = "not_found"
	StatusRateLimited = "rate_limited"
	StatusError       = "error"
)

// Entry is one inbound scan attempt, recorded regardless of outcome.
type Entry struct {
	ID         int64       `json:"id"`
	RFID       string      `json:"rfid"`
	PersonID   int64       `json:"person_id,omitempty"`
	PersonType person.Type `json:"person_type,omitempty"`
	Status     string      `json:"status"`
	Message    string      `json:"message,omitempty"`
	Location   string      `json:"location,omitempty"`
	IP         string      `json:"ip_address,omitempty"`
	Method     string      `json:"method,omitempty"`
	ScannedAt  time.Time   `json:"scanned_at"`
}

// Store appends scan attempts to the scan_logs table. Writes are
// best-effort from the caller's side; this store only reports the error.
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

// Insert appends one attempt, filling the timestamp when unset.
func (s *Store) Insert(ctx context.Context, e Entry) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if e.ScannedAt.IsZero() {
		e.ScannedAt = time.Now().UTC()
	}
	var personID sql.NullInt64
	var personType sql.NullString
	if e.PersonID != 0 {
		personID = sql.NullInt64{Int64: e.PersonID, Valid: true}
	}
	if e.PersonType != "" {
		personType = sql.NullString{String: string(e.PersonType), Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_logs (rfid, person_id, person_type, status, message, location, ip_address, method, scanned_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.RFID, personID, personType, e.Status, e.Message, e.Location, e.IP, e.Method, e.ScannedAt)
	return err
}

// Recent returns the latest attempts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, rfid, COALESCE(person_id, 0), COALESCE(person_type, ''),
		       status, COALESCE(message, ''), COALESCE(location, ''),
		       COALESCE(ip_address, ''), COALESCE(method, ''), scanned_at
		FROM scan_logs
		ORDER BY scanned_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var entries []Entry
	for rows.Next() {
		var e Entry
		var ptype string
		if err := rows.Scan(&e.ID, &e.RFID, &e.PersonID, &ptype, &e.Status,
			&e.Message, &e.Location, &e.IP, &e.Method, &e.ScannedAt); err != nil {
			return nil, err
		}
		e.PersonType = person.Type(ptype)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

package person

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Store reads person records from Postgres. Lookups carry a bounded
// timeout so a slow database cannot stall the scan path.
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

// FindTeacherByRFID returns the teacher with an exact rfid match, or nil.
func (s *Store) FindTeacherByRFID(ctx context.Context, rfid string) (*Teacher, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, rfid, lastname, firstname, COALESCE(middlename, ''), COALESCE(photo_url, '')
		FROM teachers WHERE rfid = $1
	`, rfid)
	var t Teacher
	if err := row.Scan(&t.ID, &t.RFID, &t.LastName, &t.FirstName, &t.MiddleName, &t.PhotoURL); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

// FindStudentByRFID returns the student with an exact rfid match, or nil.
func (s *Store) FindStudentByRFID(ctx context.Context, rfid string) (*Student, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	row := s.db.QueryRowContext(ctx, `
		SELECT id, rfid, COALESCE(sid, ''), COALESCE(lrn, ''),
		       lastname, firstname, COALESCE(middlename, ''), COALESCE(suffix, ''),
		       COALESCE(level_name, ''), COALESCE(section_name, ''), COALESCE(gender, ''),
		       COALESCE(photo_url, ''),
		       COALESCE(mother_contact, ''), COALESCE(father_contact, ''),
		       COALESCE(guardian_contact, ''), COALESCE(primary_contact, '')
		FROM students WHERE rfid = $1
	`, rfid)
	var st Student
	if err := row.Scan(&st.ID, &st.RFID, &st.SID, &st.LRN,
		&st.LastName, &st.FirstName, &st.MiddleName, &st.Suffix,
		&st.LevelName, &st.SectionName, &st.Gender, &st.PhotoURL,
		&st.MotherContact, &st.FatherContact, &st.GuardianContact, &st.PrimaryContact); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &st, nil
}

package person

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// MaxRFIDLen bounds the accepted identifier length; readers emit short
// hex or decimal codes, anything longer is garbage input.
const MaxRFIDLen = 50

var (
	// ErrInvalidRFID marks malformed input, rejected before any lookup.
	ErrInvalidRFID = errors.New("rfid missing or malformed")
	// ErrNotFound marks a well-formed identifier no person record matches.
	ErrNotFound = errors.New("rfid not registered")
)

// Directory is the person lookup datastore.
type Directory interface {
	FindTeacherByRFID(ctx context.Context, rfid string) (*Teacher, error)
	FindStudentByRFID(ctx context.Context, rfid string) (*Student, error)
}

// Resolver matches a scanned code against the teacher directory first,
// then the student directory, and returns the normalized person.
type Resolver struct {
	dir       Directory
	photoBase string
}

// NewResolver creates a resolver. photoBase is the asset base URL teacher
// photo stems are resolved against; empty disables photo resolution.
func NewResolver(dir Directory, photoBase string) *Resolver {
	return &Resolver{dir: dir, photoBase: photoBase}
}

// Resolve validates and looks up a raw scan code. Returns ErrInvalidRFID
// for malformed input, ErrNotFound when neither category matches.
func (r *Resolver) Resolve(ctx context.Context, raw string) (Person, error) {
	rfid := strings.TrimSpace(raw)
	if rfid == "" || len(rfid) > MaxRFIDLen {
		return Person{}, ErrInvalidRFID
	}

	teacher, err := r.dir.FindTeacherByRFID(ctx, rfid)
	if err != nil {
		return Person{}, fmt.Errorf("teacher lookup: %w", err)
	}
	if teacher != nil {
		return teacher.Normalize(r.photoBase), nil
	}

	student, err := r.dir.FindStudentByRFID(ctx, rfid)
	if err != nil {
		return Person{}, fmt.Errorf("student lookup: %w", err)
	}
	if student != nil {
		return student.Normalize(), nil
	}
	return Person{}, ErrNotFound
}

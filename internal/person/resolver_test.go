package person

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDirectory struct {
	teacher        *Teacher
	student        *Student
	teacherErr     error
	studentErr     error
	studentLookups int
}

func (d *stubDirectory) FindTeacherByRFID(_ context.Context, _ string) (*Teacher, error) {
	return d.teacher, d.teacherErr
}

func (d *stubDirectory) FindStudentByRFID(_ context.Context, _ string) (*Student, error) {
	d.studentLookups++
	return d.student, d.studentErr
}

func TestResolveValidation(t *testing.T) {
	r := NewResolver(&stubDirectory{}, "")
	ctx := context.Background()

	for _, raw := range []string{"", "   ", strings.Repeat("A", MaxRFIDLen+1)} {
		_, err := r.Resolve(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidRFID)
	}
}

func TestResolveTrimsInput(t *testing.T) {
	dir := &stubDirectory{teacher: &Teacher{ID: 1, RFID: "T-1", FirstName: "Ana", LastName: "Cruz"}}
	r := NewResolver(dir, "")

	p, err := r.Resolve(context.Background(), "  T-1  ")
	require.NoError(t, err)
	assert.Equal(t, TypeTeacher, p.Type)
}

func TestResolveTeacherBeforeStudent(t *testing.T) {
	dir := &stubDirectory{
		teacher: &Teacher{ID: 1, RFID: "X", FirstName: "Ana", LastName: "Cruz"},
		student: &Student{ID: 2, RFID: "X", FirstName: "Ben", LastName: "Cruz"},
	}
	r := NewResolver(dir, "")

	p, err := r.Resolve(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, TypeTeacher, p.Type)
	assert.Zero(t, dir.studentLookups)
}

func TestResolveStudentFallback(t *testing.T) {
	dir := &stubDirectory{student: &Student{ID: 2, RFID: "S-1", FirstName: "Ben", LastName: "Cruz"}}
	r := NewResolver(dir, "")

	p, err := r.Resolve(context.Background(), "S-1")
	require.NoError(t, err)
	assert.Equal(t, TypeStudent, p.Type)
	assert.Equal(t, "Student", p.Label)
}

func TestResolveNotFound(t *testing.T) {
	r := NewResolver(&stubDirectory{}, "")
	_, err := r.Resolve(context.Background(), "UNKNOWN")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveSurfacesLookupErrors(t *testing.T) {
	boom := errors.New("db gone")

	_, err := NewResolver(&stubDirectory{teacherErr: boom}, "").Resolve(context.Background(), "X")
	assert.ErrorIs(t, err, boom)

	_, err = NewResolver(&stubDirectory{studentErr: boom}, "").Resolve(context.Background(), "X")
	assert.ErrorIs(t, err, boom)
}

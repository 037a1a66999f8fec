package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tapgate/internal/auditlog"
	"tapgate/internal/notify"
	"tapgate/internal/person"
	"tapgate/internal/queue"
	"tapgate/internal/ratelimit"
	"tapgate/internal/tap"
)

type fakeDirectory struct {
	teachers       map[string]person.Teacher
	students       map[string]person.Student
	studentLookups int
}

func (d *fakeDirectory) FindTeacherByRFID(_ context.Context, rfid string) (*person.Teacher, error) {
	if t, ok := d.teachers[rfid]; ok {
		return &t, nil
	}
	return nil, nil
}

func (d *fakeDirectory) FindStudentByRFID(_ context.Context, rfid string) (*person.Student, error) {
	d.studentLookups++
	if s, ok := d.students[rfid]; ok {
		return &s, nil
	}
	return nil, nil
}

type memTaps struct {
	mu     sync.Mutex
	events []tap.Event
	fail   bool
}

func (m *memTaps) LastAccepted(_ context.Context, personID int64, personType person.Type) (*tap.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.events) - 1; i >= 0; i-- {
		evt := m.events[i]
		if evt.Success && evt.PersonID == personID && evt.PersonType == personType {
			return &evt, nil
		}
	}
	return nil, nil
}

func (m *memTaps) Insert(_ context.Context, evt tap.Event) (tap.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return tap.Event{}, errors.New("storage down")
	}
	m.events = append(m.events, evt)
	return evt, nil
}

type memAudit struct {
	mu      sync.Mutex
	entries []auditlog.Entry
}

func (m *memAudit) Insert(_ context.Context, e auditlog.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	return nil
}

type memOutbox struct {
	mu       sync.Mutex
	messages []notify.Message
	fail     bool
}

func (m *memOutbox) Insert(_ context.Context, msg notify.Message) (notify.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return notify.Message{}, errors.New("outbox down")
	}
	if msg.ID == "" {
		msg.ID = "msg-1"
	}
	m.messages = append(m.messages, msg)
	return msg, nil
}

type fixture struct {
	svc    *Service
	dir    *fakeDirectory
	taps   *memTaps
	audit  *memAudit
	outbox *memOutbox
	queue  *queue.InMemory
	now    time.Time
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	t.Helper()
	f := &fixture{
		dir: &fakeDirectory{
			teachers: map[string]person.Teacher{
				"TCH-001": {ID: 7, RFID: "TCH-001", LastName: "Reyes", FirstName: "Jose"},
			},
			students: map[string]person.Student{
				"STU-001": {
					ID: 21, RFID: "STU-001", LastName: "Santos", FirstName: "Maria",
					MotherContact: "09171234567",
				},
			},
		},
		taps:   &memTaps{},
		audit:  &memAudit{},
		outbox: &memOutbox{},
		queue:  queue.NewInMemory(16),
		now:    time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC),
	}
	resolver := person.NewResolver(f.dir, "")
	f.svc = NewService(resolver, f.taps, f.audit, f.outbox, f.queue, limiter,
		notify.Builder{School: "MAC"}, nil, 60*time.Second)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) scan(rfid string) (Result, error) {
	return f.svc.Scan(context.Background(), Request{RFID: rfid, Location: "gate1", IP: "10.0.0.5", Method: "POST"})
}

func TestFirstScanIsIn(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.scan("STU-001")
	require.NoError(t, err)
	assert.Equal(t, tap.StateIn, res.State)
	assert.False(t, res.Suppressed)
	assert.Equal(t, person.TypeStudent, res.Person.Type)

	require.Len(t, f.taps.events, 1)
	assert.True(t, f.taps.events[0].Success)
	assert.Equal(t, tap.StateIn, f.taps.events[0].State)

	require.Len(t, f.outbox.messages, 1)
	assert.Contains(t, f.outbox.messages[0].Body, "inside the school campus")
	assert.Equal(t, "+639171234567", f.outbox.messages[0].Receiver)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, auditlog.StatusSuccess, f.audit.entries[0].Status)
	assert.Equal(t, "gate1", f.audit.entries[0].Location)
}

func TestRepeatScanInsideWindowIsSuppressed(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.scan("STU-001")
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Second)
	res, err := f.scan("STU-001")
	require.NoError(t, err)
	assert.True(t, res.Suppressed)
	assert.Equal(t, tap.StateIn, res.State)

	assert.Len(t, f.taps.events, 1, "no second event recorded")
	assert.Len(t, f.outbox.messages, 1, "no second notification")
	assert.Equal(t, auditlog.StatusDuplicate, f.audit.entries[1].Status)
}

func TestScanBeyondWindowTogglesOut(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.scan("STU-001")
	require.NoError(t, err)

	f.now = f.now.Add(61 * time.Second)
	res, err := f.scan("STU-001")
	require.NoError(t, err)
	assert.Equal(t, tap.StateOut, res.State)
	assert.False(t, res.Suppressed)

	require.Len(t, f.outbox.messages, 2)
	assert.Contains(t, f.outbox.messages[1].Body, "outside the school campus")
}

func TestAcceptedStatesAlternate(t *testing.T) {
	f := newFixture(t, nil)

	var states []tap.State
	for i := 0; i < 5; i++ {
		res, err := f.scan("STU-001")
		require.NoError(t, err)
		states = append(states, res.State)
		f.now = f.now.Add(5 * time.Minute)
	}
	assert.Equal(t, []tap.State{tap.StateIn, tap.StateOut, tap.StateIn, tap.StateOut, tap.StateIn}, states)
}

func TestUnknownRFID(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.scan("NOBODY")
	assert.ErrorIs(t, err, person.ErrNotFound)

	require.Len(t, f.taps.events, 1)
	assert.Equal(t, tap.StateError, f.taps.events[0].State)
	assert.False(t, f.taps.events[0].Success)
	assert.Zero(t, f.taps.events[0].PersonID)

	require.Len(t, f.audit.entries, 1)
	assert.Equal(t, auditlog.StatusNotFound, f.audit.entries[0].Status)
	assert.Empty(t, f.outbox.messages)
}

func TestInvalidRFID(t *testing.T) {
	f := newFixture(t, nil)

	for _, raw := range []string{"", "   ", string(make([]byte, 60))} {
		_, err := f.scan(raw)
		assert.ErrorIs(t, err, person.ErrInvalidRFID)
	}
	assert.Empty(t, f.taps.events, "validation failures record no events")
}

func TestTeacherScanSkipsStudentPath(t *testing.T) {
	f := newFixture(t, nil)

	res, err := f.scan("TCH-001")
	require.NoError(t, err)
	assert.Equal(t, person.TypeTeacher, res.Person.Type)
	assert.Zero(t, f.dir.studentLookups, "teacher match must not query students")

	require.Len(t, f.outbox.messages, 1)
	assert.Equal(t, "MAC: Teacher Jose tapped IN at 07:00 AM", f.outbox.messages[0].Body)
	assert.Empty(t, f.outbox.messages[0].Receiver)
}

func TestRateLimited(t *testing.T) {
	f := newFixture(t, ratelimit.NewMemory(2, time.Minute))

	_, err := f.scan("STU-001")
	require.NoError(t, err)
	f.now = f.now.Add(2 * time.Second)
	_, err = f.scan("STU-001")
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Second)
	_, err = f.scan("STU-001")
	assert.ErrorIs(t, err, ErrRateLimited)
	assert.Equal(t, auditlog.StatusRateLimited, f.audit.entries[len(f.audit.entries)-1].Status)
	assert.Len(t, f.taps.events, 1, "limited scan records no event")
}

func TestOutboxFailureDoesNotFailScan(t *testing.T) {
	f := newFixture(t, nil)
	f.outbox.fail = true

	res, err := f.scan("STU-001")
	require.NoError(t, err)
	assert.Equal(t, tap.StateIn, res.State)
	assert.Len(t, f.taps.events, 1)
}

func TestTapInsertFailureSurfaces(t *testing.T) {
	f := newFixture(t, nil)
	f.taps.fail = true

	_, err := f.scan("STU-001")
	require.Error(t, err)
	assert.NotErrorIs(t, err, person.ErrNotFound)
	assert.Empty(t, f.outbox.messages)
}

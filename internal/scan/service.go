package scan

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"tapgate/internal/auditlog"
	"tapgate/internal/metrics"
	"tapgate/internal/notify"
	"tapgate/internal/person"
	"tapgate/internal/queue"
	"tapgate/internal/ratelimit"
	"tapgate/internal/tap"
)

// ErrRateLimited marks a scan rejected by the per-RFID flood limit.
var ErrRateLimited = errors.New("scan rate limit exceeded")

// PersonResolver matches a raw scan code to a normalized person.
type PersonResolver interface {
	Resolve(ctx context.Context, raw string) (person.Person, error)
}

// TapStore reads the debounce source and appends tap events.
type TapStore interface {
	LastAccepted(ctx context.Context, personID int64, personType person.Type) (*tap.Event, error)
	Insert(ctx context.Context, evt tap.Event) (tap.Event, error)
}

// AuditStore appends scan attempt records.
type AuditStore interface {
	Insert(ctx context.Context, e auditlog.Entry) error
}

// OutboxStore appends notification messages.
type OutboxStore interface {
	Insert(ctx context.Context, msg notify.Message) (notify.Message, error)
}

// Request is one inbound scan.
type Request struct {
	RFID     string
	Location string
	IP       string
	Method   string
}

// Result is a successful scan decision. Suppressed results carry the
// unchanged state; the kiosk still shows the person.
type Result struct {
	Person     person.Person
	State      tap.State
	Suppressed bool
	ScanTime   time.Time
}

// Service orchestrates one scan: audit, resolve, decide, record, notify.
type Service struct {
	resolver PersonResolver
	taps     TapStore
	audit    AuditStore
	outbox   OutboxStore
	queue    queue.Queue
	limiter  ratelimit.Limiter
	builder  notify.Builder
	metrics  *metrics.Metrics
	window   time.Duration
	locks    *keyedMutex
	now      func() time.Time
}

// NewService wires the scan pipeline. limiter, queue, outbox and metrics
// may be nil; the corresponding step is skipped.
func NewService(resolver PersonResolver, taps TapStore, audit AuditStore, outbox OutboxStore,
	q queue.Queue, limiter ratelimit.Limiter, builder notify.Builder,
	m *metrics.Metrics, window time.Duration) *Service {
	if window <= 0 {
		window = tap.DefaultWindow
	}
	return &Service{
		resolver: resolver,
		taps:     taps,
		audit:    audit,
		outbox:   outbox,
		queue:    q,
		limiter:  limiter,
		builder:  builder,
		metrics:  m,
		window:   window,
		locks:    newKeyedMutex(),
		now:      time.Now,
	}
}

// Scan handles one inbound request. Error returns map to the transport
// taxonomy: person.ErrInvalidRFID (400), person.ErrNotFound (404),
// ErrRateLimited (429); anything else is a primary-path storage failure.
func (s *Service) Scan(ctx context.Context, req Request) (Result, error) {
	started := s.now()
	defer func() {
		s.metrics.ObserveDuration(s.now().Sub(started).Seconds())
	}()

	rfid := strings.TrimSpace(req.RFID)

	if s.limiter != nil {
		ok, err := s.limiter.Allow(ctx, rfid)
		if err != nil {
			log.Printf("rate limiter unavailable, allowing scan: %v", err)
		} else if !ok {
			s.writeAudit(ctx, rfid, req, person.Person{}, auditlog.StatusRateLimited, "scan flood limit hit")
			s.metrics.ObserveScan(auditlog.StatusRateLimited)
			return Result{}, ErrRateLimited
		}
	}

	p, err := s.resolver.Resolve(ctx, rfid)
	switch {
	case errors.Is(err, person.ErrInvalidRFID):
		s.writeAudit(ctx, rfid, req, person.Person{}, auditlog.StatusError, "invalid rfid")
		s.metrics.ObserveScan(auditlog.StatusError)
		return Result{}, err
	case errors.Is(err, person.ErrNotFound):
		s.recordNotFound(ctx, rfid)
		s.writeAudit(ctx, rfid, req, person.Person{}, auditlog.StatusNotFound, "rfid not registered")
		s.metrics.ObserveScan(auditlog.StatusNotFound)
		return Result{}, err
	case err != nil:
		s.writeAudit(ctx, rfid, req, person.Person{}, auditlog.StatusError, err.Error())
		s.metrics.ObserveScan(auditlog.StatusError)
		return Result{}, fmt.Errorf("person lookup: %w", err)
	}

	unlock := s.locks.lock(string(p.Type) + ":" + strconv.FormatInt(p.ID, 10))
	defer unlock()

	last, err := s.taps.LastAccepted(ctx, p.ID, p.Type)
	if err != nil {
		s.metrics.ObserveScan(auditlog.StatusError)
		return Result{}, fmt.Errorf("last tap lookup: %w", err)
	}

	now := s.now()
	outcome := tap.Decide(last, now, s.window)
	if outcome.Suppressed {
		s.writeAudit(ctx, rfid, req, p, auditlog.StatusDuplicate, "tap inside debounce window")
		s.metrics.ObserveScan(auditlog.StatusDuplicate)
		return Result{Person: p, State: outcome.State, Suppressed: true, ScanTime: now}, nil
	}

	evt := tap.Event{
		PersonID:   p.ID,
		PersonType: p.Type,
		RFID:       rfid,
		State:      outcome.State,
		Success:    true,
		OccurredAt: now,
	}
	if _, err := s.taps.Insert(ctx, evt); err != nil {
		s.metrics.ObserveScan(auditlog.StatusError)
		return Result{}, fmt.Errorf("record tap: %w", err)
	}

	s.writeAudit(ctx, rfid, req, p, auditlog.StatusSuccess, "scan successful")
	s.enqueueNotification(ctx, p, outcome.State, now)
	s.metrics.ObserveScan(auditlog.StatusSuccess)

	return Result{Person: p, State: outcome.State, ScanTime: now}, nil
}

// recordNotFound appends an ERROR event with no person linkage. The
// write is best-effort: an audit failure must not turn a 404 into a 5xx.
func (s *Service) recordNotFound(ctx context.Context, rfid string) {
	_, err := s.taps.Insert(ctx, tap.Event{
		RFID:       rfid,
		State:      tap.StateError,
		Success:    false,
		OccurredAt: s.now(),
	})
	if err != nil {
		log.Printf("record not-found event failed: %v", err)
	}
}

// writeAudit appends a scan attempt record, best-effort.
func (s *Service) writeAudit(ctx context.Context, rfid string, req Request, p person.Person, status, message string) {
	if s.audit == nil {
		return
	}
	err := s.audit.Insert(ctx, auditlog.Entry{
		RFID:       rfid,
		PersonID:   p.ID,
		PersonType: p.Type,
		Status:     status,
		Message:    message,
		Location:   req.Location,
		IP:         req.IP,
		Method:     req.Method,
		ScannedAt:  s.now(),
	})
	if err != nil {
		log.Printf("scan audit write failed: %v", err)
	}
}

// enqueueNotification writes the message to the outbox and hands its id
// to the queue. Failures are logged, never surfaced: the scan already
// succeeded and the external sender retries the outbox.
func (s *Service) enqueueNotification(ctx context.Context, p person.Person, state tap.State, at time.Time) {
	if s.outbox == nil {
		return
	}
	msg, err := s.outbox.Insert(ctx, s.builder.Build(p, state, at))
	if err != nil {
		log.Printf("notification outbox write failed: %v", err)
		return
	}
	s.metrics.ObserveEnqueue()
	if s.queue == nil {
		return
	}
	if err := s.queue.Publish(ctx, queue.Message{Type: "notification", Body: []byte(msg.ID)}); err != nil {
		log.Printf("notification publish failed: %v", err)
	}
}

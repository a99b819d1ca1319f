package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tr "temp_regulator"
	"temp_regulator/internal/repository"
)

// EventLogService reads and trims the regulator's event history.
type EventLogService struct {
	eventRepo repository.EventRepo
	now       func() time.Time
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo, now: time.Now}
}

var (
	ErrInvalidTimeRange  = errors.New("invalid time range: from must be <= to")
	ErrUnknownEventType  = errors.New("unknown event type")
	ErrBadRetention      = errors.New("retention must be positive")
	errRetentionTooShort = fmt.Errorf("%w: keep at least %s", ErrBadRetention, minRetention)
)

// minRetention keeps the current session's history out of reach of a prune.
const minRetention = time.Hour

// eventQuery is a LogFilter in the form the repository expects.
type eventQuery struct {
	from, to time.Time
	typ      string
}

// query canonicalises f: bounds in UTC and the type upper-cased and checked
// against tr.EventTypes. An empty type matches every category.
func (f LogFilter) query() (eventQuery, error) {
	q := eventQuery{from: f.From, to: f.To}
	if !q.from.IsZero() {
		q.from = q.from.UTC()
	}
	if !q.to.IsZero() {
		q.to = q.to.UTC()
	}
	if !q.from.IsZero() && !q.to.IsZero() && q.from.After(q.to) {
		return eventQuery{}, ErrInvalidTimeRange
	}

	q.typ = strings.ToUpper(strings.TrimSpace(f.Type))
	if q.typ != "" && !tr.IsEventType(q.typ) {
		return eventQuery{}, fmt.Errorf("%w %q", ErrUnknownEventType, f.Type)
	}
	return q, nil
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]tr.DeviceEvent, error) {
	q, err := f.query()
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, q.from, q.to, q.typ)
}

// Prune drops events older than keep, measured from now. Anything under an
// hour is refused so a typo cannot wipe the running session.
func (s *EventLogService) Prune(ctx context.Context, keep time.Duration) (int64, error) {
	switch {
	case keep <= 0:
		return 0, ErrBadRetention
	case keep < minRetention:
		return 0, errRetentionTooShort
	}
	return s.eventRepo.Prune(ctx, s.now().UTC().Add(-keep))
}

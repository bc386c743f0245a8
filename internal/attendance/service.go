package attendance

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"attendancetracker/internal/logger"
)

// Service is the single read/write path for attendance records. It composes a primary
// store with the in-memory fallback and enforces one check-in per name per day.
type Service struct {
	primary  Store
	fallback *Fallback
	cal      Calendar
	now      func() time.Time
	log      *slog.Logger

	// serializes duplicate-check-then-write
	createMu sync.Mutex
	// set once the id counter has been moved past the primary's highest id
	seeded bool
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the time source used for default timestamps and "today".
// The fallback is switched to the same clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.log = l }
}

// NewService creates a gateway over primary, degrading to fallback.
func NewService(primary Store, fallback *Fallback, cal Calendar, opts ...Option) *Service {
	if primary == nil {
		primary = Unavailable{}
	}
	s := &Service{
		primary:  primary,
		fallback: fallback,
		cal:      cal,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.log == nil {
		s.log = logger.New("attendance")
	}
	s.fallback.SetClock(s.now)
	return s
}

// Calendar returns the reporting calendar.
func (s *Service) Calendar() Calendar { return s.cal }

// Create validates and records a check-in.
func (s *Service) Create(ctx context.Context, in Input) (Record, error) {
	rec, err := in.Validate(s.now())
	if err != nil {
		submissionsTotal.WithLabelValues(resultInvalid).Inc()
		return Record{}, err
	}

	s.createMu.Lock()
	defer s.createMu.Unlock()

	day := s.cal.DayOf(rec.DateTime)
	if s.isDuplicate(ctx, rec.Name, day) {
		submissionsTotal.WithLabelValues(resultDuplicate).Inc()
		return Record{}, s.duplicate(rec.Name, day)
	}

	s.seedIDs(ctx)
	rec.ID = s.fallback.Reserve()

	saved, err := s.primary.Add(ctx, rec)
	if err == nil {
		saved = s.fallback.Put(saved)
		submissionsTotal.WithLabelValues(resultCreated).Inc()
		return saved, nil
	}

	s.degraded("primary write failed, storing in fallback", err, "name", rec.Name)
	fallbackTotal.WithLabelValues("create", reasonError).Inc()

	// The primary state is unknown now; the fallback mirrors every confirmed write.
	saved, err = s.fallback.Insert(rec)
	if err != nil {
		submissionsTotal.WithLabelValues(resultDuplicate).Inc()
		return Record{}, s.duplicate(rec.Name, day)
	}
	submissionsTotal.WithLabelValues(resultDegraded).Inc()
	return saved, nil
}

// seedIDs moves the id counter past the highest id the primary already holds. Until the
// primary answers it is retried on every create.
func (s *Service) seedIDs(ctx context.Context) {
	if s.seeded {
		return
	}
	src, ok := s.primary.(MaxIDReader)
	if !ok {
		s.seeded = true
		return
	}
	highest, err := src.MaxID(ctx)
	if err != nil {
		s.degraded("primary id high-water mark unavailable", err)
		return
	}
	s.fallback.Advance(highest)
	s.seeded = true
}

// ListAll returns every record newest first. Primary failures and empty primary results
// are served from the fallback; only a cancelled context is reported.
func (s *Service) ListAll(ctx context.Context) ([]Record, error) {
	records, err := s.primary.ListAll(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.degraded("primary list failed, serving fallback", err)
		fallbackTotal.WithLabelValues("list_all", reasonError).Inc()
		return s.fallback.All(), nil
	}
	if len(records) == 0 {
		fallbackTotal.WithLabelValues("list_all", reasonEmpty).Inc()
		return s.fallback.All(), nil
	}
	return records, nil
}

// ListByDate returns the records of day newest first, with the same degradation as ListAll.
func (s *Service) ListByDate(ctx context.Context, day Day) ([]Record, error) {
	records, err := s.primary.ListByDate(ctx, day)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.degraded("primary list by date failed, serving fallback", err, "date", day.Date)
		fallbackTotal.WithLabelValues("list_by_date", reasonError).Inc()
		return s.fallback.OnDay(day), nil
	}
	if len(records) == 0 {
		fallbackTotal.WithLabelValues("list_by_date", reasonEmpty).Inc()
		return s.fallback.OnDay(day), nil
	}
	return records, nil
}

// PrimaryHealthy pings the primary store when it supports it.
func (s *Service) PrimaryHealthy(ctx context.Context) error {
	if p, ok := s.primary.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// isDuplicate checks the primary's view of day and always the fallback, which holds
// records written while the primary was down.
func (s *Service) isDuplicate(ctx context.Context, name string, day Day) bool {
	records, err := s.primary.ListByDate(ctx, day)
	if err != nil {
		s.degraded("primary duplicate check failed, using fallback", err, "name", name)
		fallbackTotal.WithLabelValues("duplicate_check", reasonError).Inc()
	}
	for _, r := range records {
		if SameName(r.Name, name) && day.Contains(r.DateTime) {
			return true
		}
	}
	return s.fallback.HasDuplicate(name, day)
}

func (s *Service) duplicate(name string, day Day) error {
	return &DuplicateSubmissionError{
		Name:  name,
		Day:   day.Date,
		Today: day.Date == s.cal.DayOf(s.now()).Date,
	}
}

// degraded logs a primary failure at Warn with its message only. The stack trace
// pkg/errors records is logged at Debug.
func (s *Service) degraded(msg string, err error, args ...any) {
	s.log.Warn(msg, append([]any{"error", err.Error()}, args...)...)
	s.log.Debug(msg, "error", fmt.Sprintf("%+v", err))
}

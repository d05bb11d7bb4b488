package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	appoutbox "vehiclerental/internal/app/outbox"
	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
	"vehiclerental/internal/domain/shared/events"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 10 * time.Millisecond
)

// Locker provides mutual exclusion per key. The returned release func must be called exactly once.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Service performs the check-then-insert of a booking for one vehicle.
//
// Every attempt runs inside a serializable unit of work while holding the
// vehicle's lock (when Locks is set). Stores that detect a competing
// transaction report domainbooking.ErrSerialization and the attempt is
// retried from the start, so the loser observes the winner's booking and
// fails with a ConflictError.
type Service struct {
	UoW         uow.UoWFactory
	Locks       Locker
	Encoder     appoutbox.EventEncoder
	Now         func() time.Time
	MaxAttempts int
	Backoff     time.Duration
	Logger      *slog.Logger
}

// LockKey names the lock guarding a vehicle's bookings.
func LockKey(id domaincatalog.VehicleID) string {
	return fmt.Sprintf("vehicle:%d", id)
}

// Attempt validates req and persists it unless it overlaps an existing booking.
// Errors are *domainbooking.ValidationError, *domainbooking.ConflictError or
// *domainbooking.TransientError.
func (s *Service) Attempt(ctx context.Context, req domainbooking.Request) (*domainbooking.Booking, error) {
	if err := s.ensureDependencies(); err != nil {
		return nil, domainbooking.Transient("attempt", err)
	}
	now := s.now()
	if err := req.Validate(now); err != nil {
		return nil, err
	}
	if s.Locks != nil {
		release, err := s.Locks.Acquire(ctx, LockKey(req.VehicleID))
		if err != nil {
			s.logger().WarnContext(ctx, "vehicle lock not acquired", "vehicle_id", req.VehicleID, "error", err)
			return nil, domainbooking.Transient("lock", err)
		}
		defer release()
	}

	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts(); attempt++ {
		created, err := s.attemptOnce(ctx, req, now)
		if err == nil {
			s.logger().InfoContext(ctx, "booking created",
				"booking_id", created.ID,
				"vehicle_id", created.VehicleID,
				"range", created.Range.String(),
				"attempt", attempt)
			return created, nil
		}
		if !errors.Is(err, domainbooking.ErrSerialization) {
			return nil, s.settle(ctx, req, err)
		}
		lastErr = err
		s.logger().DebugContext(ctx, "booking attempt lost a race, retrying", "vehicle_id", req.VehicleID, "attempt", attempt)
		if err := s.wait(ctx, attempt); err != nil {
			return nil, domainbooking.Transient("attempt", err)
		}
	}
	s.logger().ErrorContext(ctx, "booking attempts exhausted", "vehicle_id", req.VehicleID, "error", lastErr)
	return nil, domainbooking.Transient("attempt", lastErr)
}

func (s *Service) attemptOnce(ctx context.Context, req domainbooking.Request, now time.Time) (*domainbooking.Booking, error) {
	unit, err := s.UoW.Begin(ctx, uow.TxOptions{Serializable: true})
	if err != nil {
		return nil, err
	}
	execCtx := uow.Bind(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	vehicle, err := unit.Catalog().VehicleByID(execCtx, req.VehicleID)
	if errors.Is(err, domaincatalog.ErrVehicleNotFound) {
		return nil, domainbooking.Invalid(domainbooking.FieldVehicleID, "unknown vehicle")
	}
	if err != nil {
		return nil, err
	}
	if !vehicle.IsAvailable {
		return nil, domainbooking.Invalid(domainbooking.FieldVehicleID, "vehicle is not available for booking")
	}

	existing, err := unit.Bookings().ListByVehicle(execCtx, req.VehicleID)
	if err != nil {
		return nil, err
	}
	for _, other := range existing {
		if daterange.Overlaps(req.Range, other.Range) {
			return nil, &domainbooking.ConflictError{VehicleID: req.VehicleID, ConflictingRange: other.Range}
		}
	}

	created, err := domainbooking.NewBooking(req, now)
	if err != nil {
		return nil, err
	}
	id, err := unit.Bookings().Insert(execCtx, created)
	if err != nil {
		return nil, err
	}
	created.Persisted(id)
	if err := appoutbox.RecordDomainEvents(execCtx, unit.Outbox(), s.Encoder, created.Drain()); err != nil {
		return nil, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return nil, err
	}
	committed = true
	return created, nil
}

// settle turns a failed attempt into one of the taxonomy errors.
func (s *Service) settle(ctx context.Context, req domainbooking.Request, err error) error {
	var (
		conflict *domainbooking.ConflictError
		invalid  *domainbooking.ValidationError
		trans    *domainbooking.TransientError
	)
	switch {
	case errors.As(err, &conflict):
	case errors.Is(err, domainbooking.ErrOverlap):
		conflict = s.conflictFromStore(ctx, req)
	case errors.As(err, &invalid):
		return invalid
	case errors.As(err, &trans):
		s.logger().ErrorContext(ctx, "booking attempt failed", "vehicle_id", req.VehicleID, "error", err)
		return trans
	default:
		s.logger().ErrorContext(ctx, "booking attempt failed", "vehicle_id", req.VehicleID, "error", err)
		return domainbooking.Transient("attempt", err)
	}
	s.logger().InfoContext(ctx, "overbooking prevented",
		"vehicle_id", req.VehicleID,
		"requested", req.Range.String(),
		"conflicting", conflict.ConflictingRange.String())
	s.recordPrevented(ctx, req, conflict)
	return conflict
}

// conflictFromStore finds the booking that made the store reject an insert.
// The range stays zero if it cannot be read back.
func (s *Service) conflictFromStore(ctx context.Context, req domainbooking.Request) *domainbooking.ConflictError {
	conflict := &domainbooking.ConflictError{VehicleID: req.VehicleID}
	unit, err := s.UoW.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		return conflict
	}
	execCtx := uow.Bind(ctx, unit)
	defer func() { _ = unit.Rollback(execCtx) }()
	existing, err := unit.Bookings().ListByVehicle(execCtx, req.VehicleID)
	if err != nil {
		return conflict
	}
	for _, other := range existing {
		if daterange.Overlaps(req.Range, other.Range) {
			conflict.ConflictingRange = other.Range
			break
		}
	}
	return conflict
}

func (s *Service) recordPrevented(ctx context.Context, req domainbooking.Request, conflict *domainbooking.ConflictError) {
	ev := domainbooking.OverbookingPrevented{
		VehicleID:   req.VehicleID,
		Requested:   req.Range,
		Conflicting: conflict.ConflictingRange,
		At:          s.now().UTC(),
	}
	unit, err := s.UoW.Begin(ctx, uow.TxOptions{})
	if err != nil {
		s.logger().WarnContext(ctx, "overbooking event dropped", "vehicle_id", req.VehicleID, "error", err)
		return
	}
	execCtx := uow.Bind(ctx, unit)
	if err := appoutbox.RecordDomainEvents(execCtx, unit.Outbox(), s.Encoder, []events.DomainEvent{ev}); err != nil {
		_ = unit.Rollback(execCtx)
		s.logger().WarnContext(ctx, "overbooking event dropped", "vehicle_id", req.VehicleID, "error", err)
		return
	}
	if err := unit.Commit(execCtx); err != nil {
		s.logger().WarnContext(ctx, "overbooking event dropped", "vehicle_id", req.VehicleID, "error", err)
	}
}

func (s *Service) wait(ctx context.Context, attempt int) error {
	backoff := s.Backoff
	if backoff <= 0 {
		backoff = defaultBackoff
	}
	timer := time.NewTimer(time.Duration(attempt) * backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (s *Service) maxAttempts() int {
	if s.MaxAttempts <= 0 {
		return defaultMaxAttempts
	}
	return s.MaxAttempts
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

func (s *Service) ensureDependencies() error {
	if s.UoW == nil {
		return errors.New("booking service: unit of work factory required")
	}
	return nil
}

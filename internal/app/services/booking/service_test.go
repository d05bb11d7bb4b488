package booking

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
	"vehiclerental/internal/domain/shared/money"
	"vehiclerental/internal/infra/lock"
	"vehiclerental/internal/infra/storage/memory"
)

var today = time.Date(2025, 1, 5, 9, 0, 0, 0, time.UTC)

type fixture struct {
	factory memory.Factory
	outbox  *memory.OutboxStore
	svc     *Service
}

func newFixture(t *testing.T, withLocks bool) *fixture {
	t.Helper()
	cat := memory.NewCatalogRepository()
	require.NoError(t, cat.Upsert(context.Background(),
		[]domaincatalog.VehicleType{{ID: 1, Name: "Sedan", Wheels: domaincatalog.FourWheeler}},
		[]domaincatalog.Vehicle{
			{ID: 7, Name: "City", TypeID: 1, PricePerDay: money.Must(200000, "INR"), IsAvailable: true},
			{ID: 8, Name: "Verna", TypeID: 1, PricePerDay: money.Must(250000, "INR"), IsAvailable: false},
			{ID: 9, Name: "Dzire", TypeID: 1, PricePerDay: money.Must(180000, "INR"), IsAvailable: true},
		}))
	box := memory.NewOutboxStore()
	f := memory.Factory{BookingRepo: memory.NewBookingRepository(), CatalogRepo: cat, Outbox: box}
	svc := &Service{UoW: f, Now: func() time.Time { return today }, Backoff: time.Millisecond}
	if withLocks {
		svc.Locks = lock.NewKeyedMutex()
	}
	return &fixture{factory: f, outbox: box, svc: svc}
}

func request(vehicle domaincatalog.VehicleID, start, end string) domainbooking.Request {
	r, err := daterange.Parse(start, end)
	if err != nil {
		panic(err)
	}
	return domainbooking.Request{
		VehicleID: vehicle,
		Range:     r,
		Customer:  domainbooking.Customer{FirstName: "Asha", LastName: "Rao"},
	}
}

func TestAttemptCreatesBooking(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()

	created, err := fx.svc.Attempt(ctx, request(7, "2025-01-10", "2025-01-13"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Equal(t, today.UTC(), created.CreatedAt)

	stored, err := fx.factory.BookingRepo.ByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Range, stored.Range)
	assert.Equal(t, 1, fx.outbox.Pending())
}

func TestAttemptReportsConflict(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
		conflict   bool
	}{
		{"same range", "2025-01-10", "2025-01-13", true},
		{"touching end day", "2025-01-13", "2025-01-15", true},
		{"touching start day", "2025-01-08", "2025-01-10", true},
		{"contained", "2025-01-11", "2025-01-12", true},
		{"containing", "2025-01-06", "2025-01-20", true},
		{"after", "2025-01-14", "2025-01-16", false},
		{"before", "2025-01-07", "2025-01-09", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fx := newFixture(t, true)
			ctx := context.Background()
			_, err := fx.svc.Attempt(ctx, request(7, "2025-01-10", "2025-01-13"))
			require.NoError(t, err)

			_, err = fx.svc.Attempt(ctx, request(7, tt.start, tt.end))
			if !tt.conflict {
				assert.NoError(t, err)
				return
			}
			var conflict *domainbooking.ConflictError
			require.ErrorAs(t, err, &conflict)
			assert.Equal(t, domaincatalog.VehicleID(7), conflict.VehicleID)
			assert.Equal(t, "2025-01-10..2025-01-13", conflict.ConflictingRange.String())
			// booking.created for the first attempt plus booking.overbooking_prevented
			assert.Equal(t, 2, fx.outbox.Pending())
		})
	}
}

func TestAttemptOtherVehicleUnaffected(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()
	_, err := fx.svc.Attempt(ctx, request(7, "2025-01-10", "2025-01-13"))
	require.NoError(t, err)
	_, err = fx.svc.Attempt(ctx, request(9, "2025-01-10", "2025-01-13"))
	assert.NoError(t, err)
}

func TestAttemptValidation(t *testing.T) {
	fx := newFixture(t, true)
	ctx := context.Background()

	tests := []struct {
		name  string
		req   domainbooking.Request
		field string
	}{
		{"unknown vehicle", request(42, "2025-01-10", "2025-01-13"), domainbooking.FieldVehicleID},
		{"unavailable vehicle", request(8, "2025-01-10", "2025-01-13"), domainbooking.FieldVehicleID},
		{"same day", request(7, "2025-01-10", "2025-01-10"), domainbooking.FieldEndDate},
		{"past start", request(7, "2025-01-04", "2025-01-06"), domainbooking.FieldStartDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.svc.Attempt(ctx, tt.req)
			var verr *domainbooking.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
	assert.Zero(t, fx.outbox.Pending())
}

func TestAtMostOneWinner(t *testing.T) {
	for _, withLocks := range []bool{true, false} {
		name := "store constraint only"
		if withLocks {
			name = "with vehicle lock"
		}
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 100; i++ {
				fx := newFixture(t, withLocks)
				reqs := []domainbooking.Request{
					request(7, "2025-01-10", "2025-01-13"),
					request(7, "2025-01-12", "2025-01-15"),
				}
				var (
					wg        sync.WaitGroup
					wins      atomic.Int32
					conflicts atomic.Int32
					start     = make(chan struct{})
				)
				for _, req := range reqs {
					wg.Add(1)
					go func(req domainbooking.Request) {
						defer wg.Done()
						<-start
						_, err := fx.svc.Attempt(context.Background(), req)
						switch {
						case err == nil:
							wins.Add(1)
						case errors.Is(err, domainbooking.ErrConflict):
							conflicts.Add(1)
						default:
							t.Errorf("unexpected error: %v", err)
						}
					}(req)
				}
				close(start)
				wg.Wait()
				require.Equal(t, int32(1), wins.Load(), "run %d", i)
				require.Equal(t, int32(1), conflicts.Load(), "run %d", i)

				stored, err := fx.factory.BookingRepo.ListByVehicle(context.Background(), 7)
				require.NoError(t, err)
				require.Len(t, stored, 1)
			}
		})
	}
}

// flakyFactory fails the first commits with a serialization error.
type flakyFactory struct {
	inner    uow.UoWFactory
	failures atomic.Int32
	beginErr error
}

func (f *flakyFactory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.beginErr != nil {
		return nil, f.beginErr
	}
	unit, err := f.inner.Begin(ctx, opts)
	if err != nil {
		return nil, err
	}
	return &flakyUnit{UnitOfWork: unit, factory: f}, nil
}

type flakyUnit struct {
	uow.UnitOfWork
	factory *flakyFactory
}

func (u *flakyUnit) Commit(ctx context.Context) error {
	if u.factory.failures.Add(-1) >= 0 {
		_ = u.UnitOfWork.Rollback(ctx)
		return domainbooking.ErrSerialization
	}
	return u.UnitOfWork.Commit(ctx)
}

func TestAttemptRetriesSerializationFailures(t *testing.T) {
	fx := newFixture(t, false)
	flaky := &flakyFactory{inner: fx.factory}
	flaky.failures.Store(2)
	fx.svc.UoW = flaky

	created, err := fx.svc.Attempt(context.Background(), request(7, "2025-01-10", "2025-01-13"))
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
}

func TestAttemptGivesUpAfterMaxAttempts(t *testing.T) {
	fx := newFixture(t, false)
	flaky := &flakyFactory{inner: fx.factory}
	flaky.failures.Store(10)
	fx.svc.UoW = flaky
	fx.svc.MaxAttempts = 2

	_, err := fx.svc.Attempt(context.Background(), request(7, "2025-01-10", "2025-01-13"))
	assert.ErrorIs(t, err, domainbooking.ErrTransient)
	assert.ErrorIs(t, err, domainbooking.ErrSerialization)
}

func TestAttemptWrapsStoreFailures(t *testing.T) {
	fx := newFixture(t, true)
	down := errors.New("connection refused")
	fx.svc.UoW = &flakyFactory{inner: fx.factory, beginErr: down}

	_, err := fx.svc.Attempt(context.Background(), request(7, "2025-01-10", "2025-01-13"))
	var trans *domainbooking.TransientError
	require.ErrorAs(t, err, &trans)
	assert.ErrorIs(t, err, down)
}

func TestAttemptLockTimeoutIsTransient(t *testing.T) {
	fx := newFixture(t, true)
	release, err := fx.svc.Locks.Acquire(context.Background(), LockKey(7))
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = fx.svc.Attempt(ctx, request(7, "2025-01-10", "2025-01-13"))
	assert.ErrorIs(t, err, domainbooking.ErrTransient)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

package wizard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookingsvc "vehiclerental/internal/app/services/booking"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/money"
	"vehiclerental/internal/infra/lock"
	"vehiclerental/internal/infra/storage/memory"
)

type fixture struct {
	service *bookingsvc.Service
	catalog *memory.CatalogRepository
	outbox  *memory.OutboxStore
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	cat := memory.NewCatalogRepository()
	require.NoError(t, cat.Upsert(context.Background(),
		[]domaincatalog.VehicleType{
			{ID: 1, Name: "Hatchback", Wheels: domaincatalog.FourWheeler},
			sedan,
			cruiser,
		},
		[]domaincatalog.Vehicle{
			slavia,
			{ID: 8, Name: "Maruti Ciaz", TypeID: 2, PricePerDay: money.Must(170000, "INR"), IsAvailable: false},
			{ID: 9, Name: "Honda City", TypeID: 2, PricePerDay: money.Must(220000, "INR"), IsAvailable: true},
		}))
	box := memory.NewOutboxStore()
	return fixture{
		service: &bookingsvc.Service{
			UoW:   memory.Factory{BookingRepo: memory.NewBookingRepository(), CatalogRepo: cat, Outbox: box},
			Locks: lock.NewKeyedMutex(),
			Now:   func() time.Time { return today },
		},
		catalog: cat,
		outbox:  box,
	}
}

func (f fixture) machine(sub Submitter) *Machine {
	if sub == nil {
		sub = f.service
	}
	return New(Options{Submitter: sub, Catalog: f.catalog, Now: func() time.Time { return today }})
}

// fillToReview drives m through every step using the catalog loaders.
func fillToReview(t *testing.T, m *Machine, first, last string) {
	t.Helper()
	ctx := context.Background()
	steps := []func() (Draft, error){
		func() (Draft, error) { return m.UpdateField(FieldFirstName, first) },
		func() (Draft, error) { return m.UpdateField(FieldLastName, last) },
		m.Advance,
		func() (Draft, error) { return m.UpdateField(FieldWheelClass, domaincatalog.FourWheeler) },
		m.Advance,
		func() (Draft, error) {
			types, err := m.VehicleTypeOptions(ctx)
			require.NoError(t, err)
			require.Len(t, types, 2)
			return m.UpdateField(FieldVehicleType, types[1])
		},
		m.Advance,
		func() (Draft, error) {
			vehicles, err := m.VehicleOptions(ctx)
			require.NoError(t, err)
			require.Len(t, vehicles, 2)
			return m.UpdateField(FieldVehicle, vehicles[0])
		},
		m.Advance,
		func() (Draft, error) { return m.UpdateField(FieldRange, dates("2025-01-10", "2025-01-12")) },
		m.Advance,
	}
	for i, step := range steps {
		d, err := step()
		require.NoError(t, err, "step %d", i)
		require.False(t, d.HasErrors(), "step %d: %v", i, d.Errors)
	}
	require.Equal(t, StepReview, m.Draft().Step)
}

func TestMachineBookingEndToEnd(t *testing.T) {
	f := newFixture(t)
	m := f.machine(nil)
	fillToReview(t, m, "Asha", "Rao")

	q := m.Quote()
	assert.Equal(t, 3, q.Days)
	assert.InDelta(t, 6000.0, q.Total.Major(), 1e-9)

	d, err := m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, d.Step)
	require.NotNil(t, d.Booking)
	assert.Positive(t, int64(d.Booking.ID))
	assert.Equal(t, domaincatalog.VehicleID(7), d.Booking.VehicleID)
	assert.Equal(t, 1, f.outbox.Pending())
	assert.False(t, m.Pending())

	_, err = m.UpdateField(FieldFirstName, "Ravi")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	d, err = m.Reset()
	require.NoError(t, err)
	assert.Equal(t, StepDetails, d.Step)
	assert.Empty(t, d.FirstName)
}

func TestMachineConflictStaysOnReview(t *testing.T) {
	f := newFixture(t)
	_, err := f.service.Attempt(context.Background(), domainbooking.Request{
		VehicleID: 7,
		Range:     dates("2025-01-12", "2025-01-14"),
		Customer:  domainbooking.Customer{FirstName: "Ravi", LastName: "Iyer"},
	})
	require.NoError(t, err)

	m := f.machine(nil)
	fillToReview(t, m, "Asha", "Rao")
	d, err := m.Submit(context.Background())
	assert.ErrorIs(t, err, domainbooking.ErrConflict)
	assert.Equal(t, StepReview, d.Step)
	assert.Equal(t, "vehicle 7 is already booked from 2025-01-12 to 2025-01-14. Choose another vehicle or different dates.",
		d.Errors[FieldSubmit])

	// Moving to another vehicle and resubmitting succeeds.
	_, err = m.Edit(StepModel)
	require.NoError(t, err)
	_, err = m.UpdateField(FieldVehicle, domaincatalog.Vehicle{ID: 9, Name: "Honda City", TypeID: 2, PricePerDay: money.Must(220000, "INR"), IsAvailable: true})
	require.NoError(t, err)
	_, err = m.Advance()
	require.NoError(t, err)
	_, err = m.Advance()
	require.NoError(t, err)
	d, err = m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, d.Step)
}

// blockingSubmitter holds Attempt open until release is closed.
type blockingSubmitter struct {
	entered chan struct{}
	release chan struct{}
	err     error
}

func newBlockingSubmitter(err error) *blockingSubmitter {
	return &blockingSubmitter{entered: make(chan struct{}), release: make(chan struct{}), err: err}
}

func (s *blockingSubmitter) Attempt(_ context.Context, req domainbooking.Request) (*domainbooking.Booking, error) {
	close(s.entered)
	<-s.release
	if s.err != nil {
		return nil, s.err
	}
	b, err := domainbooking.NewBooking(req, today)
	if err != nil {
		return nil, err
	}
	b.Persisted(99)
	return b, nil
}

type submitResult struct {
	draft Draft
	err   error
}

func submitAsync(m *Machine) <-chan submitResult {
	out := make(chan submitResult, 1)
	go func() {
		d, err := m.Submit(context.Background())
		out <- submitResult{d, err}
	}()
	return out
}

func TestMachineBusyWhileSubmitting(t *testing.T) {
	f := newFixture(t)
	sub := newBlockingSubmitter(nil)
	m := f.machine(sub)
	fillToReview(t, m, "Asha", "Rao")

	done := submitAsync(m)
	<-sub.entered
	assert.True(t, m.Pending())

	_, err := m.Submit(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	_, err = m.Retreat()
	assert.ErrorIs(t, err, ErrBusy)
	_, err = m.UpdateField(FieldFirstName, "Ravi")
	assert.ErrorIs(t, err, ErrBusy)

	close(sub.release)
	res := <-done
	require.NoError(t, res.err)
	assert.Equal(t, StepSuccess, res.draft.Step)
	assert.Equal(t, "Asha", res.draft.Booking.Customer.FirstName)
	assert.False(t, m.Pending())
}

func TestMachineResetDiscardsPendingResult(t *testing.T) {
	f := newFixture(t)
	sub := newBlockingSubmitter(nil)
	m := f.machine(sub)
	fillToReview(t, m, "Asha", "Rao")

	done := submitAsync(m)
	<-sub.entered
	d, err := m.Reset()
	require.NoError(t, err)
	assert.Equal(t, StepDetails, d.Step)
	assert.False(t, m.Pending())

	close(sub.release)
	res := <-done
	assert.ErrorIs(t, res.err, ErrDiscarded)
	assert.Equal(t, StepDetails, m.Draft().Step)
	assert.Nil(t, m.Draft().Booking)
}

func TestMachineDisposeDiscardsResult(t *testing.T) {
	f := newFixture(t)
	sub := newBlockingSubmitter(errors.New("network down"))
	m := f.machine(sub)
	fillToReview(t, m, "Asha", "Rao")

	done := submitAsync(m)
	<-sub.entered
	m.Dispose()
	close(sub.release)

	res := <-done
	assert.ErrorIs(t, res.err, ErrDiscarded)
	_, err := m.Advance()
	assert.ErrorIs(t, err, ErrDiscarded)
}

func TestMachineTransientFailureShowsGenericMessage(t *testing.T) {
	f := newFixture(t)
	sub := newBlockingSubmitter(domainbooking.Transient("insert", errors.New("timeout")))
	close(sub.release)
	m := f.machine(sub)
	fillToReview(t, m, "Asha", "Rao")

	d, err := m.Submit(context.Background())
	assert.ErrorIs(t, err, domainbooking.ErrTransient)
	assert.Equal(t, StepReview, d.Step)
	assert.Equal(t, GenericSubmitFailure, d.Errors[FieldSubmit])
	assert.False(t, m.Pending())
}

type keyRecorder struct {
	keys []string
	errs []error
}

func (r *keyRecorder) Attempt(_ context.Context, req domainbooking.Request) (*domainbooking.Booking, error) {
	r.keys = append(r.keys, req.IdempotencyKey)
	if len(r.errs) > 0 {
		err := r.errs[0]
		r.errs = r.errs[1:]
		return nil, err
	}
	return &domainbooking.Booking{ID: 1, VehicleID: req.VehicleID, Customer: req.Customer, Range: req.Range}, nil
}

func TestMachineRetryReusesSubmissionKey(t *testing.T) {
	f := newFixture(t)
	lost := domainbooking.Transient("post", errors.New("deadline exceeded"))
	rec := &keyRecorder{errs: []error{lost, lost, lost}}
	m := f.machine(rec)
	fillToReview(t, m, "Asha", "Rao")
	ctx := context.Background()

	_, err := m.Submit(ctx)
	require.ErrorIs(t, err, domainbooking.ErrTransient)
	_, err = m.Submit(ctx)
	require.ErrorIs(t, err, domainbooking.ErrTransient)
	require.Len(t, rec.keys, 2)
	assert.NotEmpty(t, rec.keys[0])
	assert.Equal(t, rec.keys[0], rec.keys[1])

	_, err = m.Edit(StepDates)
	require.NoError(t, err)
	_, err = m.UpdateField(FieldRange, dates("2025-01-11", "2025-01-12"))
	require.NoError(t, err)
	_, err = m.Advance()
	require.NoError(t, err)
	_, err = m.Submit(ctx)
	require.ErrorIs(t, err, domainbooking.ErrTransient)
	require.Len(t, rec.keys, 3)
	assert.NotEqual(t, rec.keys[1], rec.keys[2])

	_, err = m.Reset()
	require.NoError(t, err)
	fillToReview(t, m, "Asha", "Rao")
	d, err := m.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, StepSuccess, d.Step)
	require.Len(t, rec.keys, 4)
	assert.NotEqual(t, rec.keys[2], rec.keys[3])
}

func TestMachineInvalidTransitions(t *testing.T) {
	f := newFixture(t)
	m := f.machine(nil)

	_, err := m.Submit(context.Background())
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = m.Dispatch(SubmitSucceeded{Booking: &domainbooking.Booking{ID: 1}})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	d, err := m.Edit(StepDates)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StepDetails, d.Step)

	_, err = m.VehicleTypeOptions(context.Background())
	assert.ErrorIs(t, err, ErrSelectionMissing)
	_, err = m.VehicleOptions(context.Background())
	assert.ErrorIs(t, err, ErrSelectionMissing)

	debug := New(Options{Submitter: f.service, Debug: true, Now: func() time.Time { return today }})
	assert.Panics(t, func() { _, _ = debug.Edit(StepReview) })
}

func TestMachineDraftIsACopy(t *testing.T) {
	f := newFixture(t)
	m := f.machine(nil)
	fillToReview(t, m, "Asha", "Rao")

	d := m.Draft()
	d.Vehicle.Name = "changed"
	d.Range.End = d.Range.End.AddDate(0, 0, 5)
	assert.Equal(t, "Skoda Slavia", m.Draft().Vehicle.Name)
	assert.Equal(t, 3, m.Quote().Days)
}

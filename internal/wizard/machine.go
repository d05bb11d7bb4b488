package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	domainpricing "vehiclerental/internal/domain/pricing"
)

var (
	// ErrBusy is returned while a submission is in flight.
	ErrBusy = errors.New("wizard: submission in progress")
	// ErrDiscarded is returned once the machine is disposed, or when a Reset
	// overtook the submission whose result arrived.
	ErrDiscarded = errors.New("wizard: result discarded")
	// ErrSelectionMissing is returned by option loaders called before the upstream choice exists.
	ErrSelectionMissing = errors.New("wizard: upstream selection missing")
)

// Submitter persists a reviewed booking; the booking service or its HTTP client.
type Submitter interface {
	Attempt(ctx context.Context, req domainbooking.Request) (*domainbooking.Booking, error)
}

type Options struct {
	Submitter Submitter
	Catalog   domaincatalog.Gateway
	Now       func() time.Time
	// Debug panics on ErrInvalidTransition instead of returning it.
	Debug  bool
	Logger *slog.Logger
}

// Machine hosts one draft for one UI. Transitions are serialised; Submit
// calls the Submitter without holding the lock and rejects every other
// transition except Reset until it returns.
type Machine struct {
	opts Options

	mu         sync.Mutex
	draft      Draft
	pending    bool
	generation uint64
	disposed   bool
	// submitKey is reused by every Submit of the same draft and cleared
	// whenever a transition changes it.
	submitKey string
}

func New(opts Options) *Machine {
	return &Machine{opts: opts}
}

// Draft returns a copy of the current draft.
func (m *Machine) Draft() Draft {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.draft.clone()
}

func (m *Machine) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

func (m *Machine) UpdateField(field Field, value any) (Draft, error) {
	return m.Dispatch(UpdateField{Field: field, Value: value})
}

func (m *Machine) Advance() (Draft, error) { return m.Dispatch(Advance{}) }

func (m *Machine) Retreat() (Draft, error) { return m.Dispatch(Retreat{}) }

func (m *Machine) Edit(step Step) (Draft, error) { return m.Dispatch(Edit{Step: step}) }

func (m *Machine) Reset() (Draft, error) { return m.Dispatch(Reset{}) }

// Dispatch applies a user event. Submission results cannot be dispatched; use Submit.
func (m *Machine) Dispatch(ev Event) (Draft, error) {
	switch ev.(type) {
	case SubmitSucceeded, SubmitFailed:
		return m.Draft(), m.programmingError(fmt.Errorf("%w: %T is internal to Submit", ErrInvalidTransition, ev))
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed {
		return Draft{}, ErrDiscarded
	}
	if _, reset := ev.(Reset); reset {
		// A pending submission's result must not land on the new draft.
		m.generation++
		m.pending = false
		m.submitKey = ""
	} else if m.pending {
		return m.draft.clone(), ErrBusy
	}
	next, err := Reduce(m.draft, ev, Env{Now: m.now()})
	if err != nil {
		return m.draft.clone(), m.programmingError(err)
	}
	m.draft = next
	m.submitKey = ""
	return next.clone(), nil
}

// Submit sends the reviewed draft. On success the draft moves to Success;
// on failure it stays on Review with the message in Errors[FieldSubmit] and
// the Submitter's error is returned. Submitting the unchanged draft again
// reuses the request's IdempotencyKey, so a retry after a lost response
// returns the booking already made.
func (m *Machine) Submit(ctx context.Context) (Draft, error) {
	m.mu.Lock()
	switch {
	case m.disposed:
		m.mu.Unlock()
		return Draft{}, ErrDiscarded
	case m.pending:
		d := m.draft.clone()
		m.mu.Unlock()
		return d, ErrBusy
	case m.draft.Step != StepReview:
		d := m.draft.clone()
		step := m.draft.Step
		m.mu.Unlock()
		return d, m.programmingError(fmt.Errorf("%w: submit from %s", ErrInvalidTransition, step))
	case m.opts.Submitter == nil:
		m.mu.Unlock()
		return Draft{}, errors.New("wizard: submitter required")
	}
	m.pending = true
	gen := m.generation
	if m.submitKey == "" {
		m.submitKey = uuid.NewString()
	}
	req := m.draft.Request()
	req.IdempotencyKey = m.submitKey
	m.mu.Unlock()

	created, err := m.opts.Submitter.Attempt(ctx, req)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.disposed || gen != m.generation {
		m.logger().Debug("submission result discarded", "vehicle_id", req.VehicleID)
		return Draft{}, ErrDiscarded
	}
	m.pending = false
	var ev Event = SubmitSucceeded{Booking: created}
	if err != nil {
		ev = SubmitFailed{Err: err}
	} else if created == nil {
		err = errors.New("wizard: submitter returned no booking")
		ev = SubmitFailed{Err: err}
	}
	next, rerr := Reduce(m.draft, ev, Env{Now: m.now()})
	if rerr != nil {
		return m.draft.clone(), m.programmingError(rerr)
	}
	m.draft = next
	if err != nil {
		m.logger().Info("booking submission failed", "vehicle_id", req.VehicleID, "error", err)
	}
	return next.clone(), err
}

// Dispose detaches the machine from its UI. Later calls and late submission
// results are discarded.
func (m *Machine) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disposed = true
	m.pending = false
	m.generation++
}

// VehicleTypeOptions lists the catalog types matching the selected wheel class.
func (m *Machine) VehicleTypeOptions(ctx context.Context) ([]domaincatalog.VehicleType, error) {
	d := m.Draft()
	if !d.WheelClass.Valid() {
		return nil, fmt.Errorf("%w: wheel class", ErrSelectionMissing)
	}
	if m.opts.Catalog == nil {
		return nil, errors.New("wizard: catalog required")
	}
	types, err := m.opts.Catalog.VehicleTypes(ctx)
	if err != nil {
		return nil, err
	}
	return domaincatalog.TypesWithWheels(types, d.WheelClass), nil
}

// VehicleOptions lists the bookable vehicles of the selected type.
func (m *Machine) VehicleOptions(ctx context.Context) ([]domaincatalog.Vehicle, error) {
	typeID, ok := m.Draft().VehicleTypeID()
	if !ok {
		return nil, fmt.Errorf("%w: vehicle type", ErrSelectionMissing)
	}
	if m.opts.Catalog == nil {
		return nil, errors.New("wizard: catalog required")
	}
	vehicles, err := m.opts.Catalog.VehiclesByType(ctx, typeID)
	if err != nil {
		return nil, err
	}
	out := make([]domaincatalog.Vehicle, 0, len(vehicles))
	for _, v := range vehicles {
		if v.IsAvailable {
			out = append(out, v)
		}
	}
	return out, nil
}

// Quote is the price shown on Review.
func (m *Machine) Quote() domainpricing.Quotation {
	return m.Draft().Quote()
}

func (m *Machine) programmingError(err error) error {
	if m.opts.Debug {
		panic(err)
	}
	m.logger().Warn("wizard transition rejected", "error", err)
	return err
}

func (m *Machine) now() time.Time {
	if m.opts.Now != nil {
		return m.opts.Now()
	}
	return time.Now()
}

func (m *Machine) logger() *slog.Logger {
	if m.opts.Logger != nil {
		return m.opts.Logger
	}
	return slog.Default()
}

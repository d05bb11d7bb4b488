package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "vehiclerental/internal/app/outbox"
	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	BookingRepo *BookingRepository
	CatalogRepo domaincatalog.Repository
	Outbox      appoutbox.Outbox
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

var ErrUnitClosed = errors.New("memory: unit of work already finished")

// Begin starts a unit whose inserts stay private until Commit. Every unit is
// effectively serializable because Commit re-checks overlaps under the repository lock.
func (f Factory) Begin(_ context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.BookingRepo == nil || f.CatalogRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{
		bookings: &unitBookings{repo: f.BookingRepo},
		catalog:  f.CatalogRepo,
		outbox:   appoutbox.NewBuffer(f.Outbox),
		readOnly: opts.ReadOnly,
	}, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	mu       sync.Mutex
	bookings *unitBookings
	catalog  domaincatalog.Repository
	outbox   *appoutbox.Buffer
	readOnly bool
	done     bool
}

func (u *Unit) Bookings() domainbooking.Repository {
	return u.bookings
}

func (u *Unit) Catalog() domaincatalog.Repository {
	return u.catalog
}

func (u *Unit) Outbox() appoutbox.Outbox {
	return u.outbox
}

func (u *Unit) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if u.readOnly {
		u.outbox.Discard()
		return nil
	}
	if err := u.bookings.repo.commit(u.bookings.staged); err != nil {
		u.outbox.Discard()
		return err
	}
	return u.outbox.Commit(ctx)
}

func (u *Unit) Rollback(context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return nil
	}
	u.done = true
	u.bookings.staged = nil
	u.outbox.Discard()
	return nil
}

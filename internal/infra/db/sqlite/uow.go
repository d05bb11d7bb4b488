package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	appoutbox "vehiclerental/internal/app/outbox"
	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
)

var (
	ErrFactoryMisconfigured = errors.New("sqlite: unit of work factory missing database")
	ErrUnitClosed           = errors.New("sqlite: unit of work already finished")
)

// Factory opens one immediate SQLite transaction per unit. Outbox records are staged
// per unit and handed to Outbox after the transaction commits.
type Factory struct {
	DB     *sql.DB
	Outbox appoutbox.Outbox
}

// Begin ignores opts: SQLite transactions are always serializable.
func (f Factory) Begin(ctx context.Context, _ uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrFactoryMisconfigured
	}
	tx, err := f.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, translate(err)
	}
	return &Unit{
		tx:       tx,
		bookings: bookingRepository{q: tx},
		catalog:  &CatalogRepository{q: tx},
		outbox:   appoutbox.NewBuffer(f.Outbox),
	}, nil
}

type Unit struct {
	mu       sync.Mutex
	tx       *sql.Tx
	bookings bookingRepository
	catalog  *CatalogRepository
	outbox   *appoutbox.Buffer
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
	if err := u.tx.Commit(); err != nil {
		u.outbox.Discard()
		return translate(err)
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
	u.outbox.Discard()
	if err := u.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return err
	}
	return nil
}

package uow

import (
	"context"

	appoutbox "vehiclerental/internal/app/outbox"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Bookings() domainbooking.Repository
	Catalog() domaincatalog.Repository
	// Outbox records events that become visible only if the unit commits.
	Outbox() appoutbox.Outbox

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
	// Serializable asks the store for its strongest isolation; used by check-then-insert flows.
	Serializable bool
}

// Injector is implemented by units that carry a driver session in the context.
type Injector interface {
	InjectContext(ctx context.Context) context.Context
}

// Bind prepares ctx for repository calls made inside unit.
func Bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(Injector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

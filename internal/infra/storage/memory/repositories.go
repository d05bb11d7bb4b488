package memory

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
)

// BookingRepository stores committed bookings in memory.
// Writes go through a Unit; the repository re-checks overlap when a unit commits,
// the way a storage-level constraint would.
type BookingRepository struct {
	mu        sync.RWMutex
	items     map[domainbooking.BookingID]*domainbooking.Booking
	byVehicle map[domaincatalog.VehicleID][]domainbooking.BookingID
	nextID    atomic.Int64
}

// NewBookingRepository builds an empty booking repo.
func NewBookingRepository() *BookingRepository {
	return &BookingRepository{
		items:     make(map[domainbooking.BookingID]*domainbooking.Booking),
		byVehicle: make(map[domaincatalog.VehicleID][]domainbooking.BookingID),
	}
}

// ByID fetches a committed booking.
func (r *BookingRepository) ByID(_ context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.items[id]
	if !ok {
		return nil, domainbooking.ErrNotFound
	}
	return b.Clone(), nil
}

// ListByVehicle returns committed bookings ordered by start date.
func (r *BookingRepository) ListByVehicle(_ context.Context, vehicleID domaincatalog.VehicleID) ([]*domainbooking.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := r.byVehicle[vehicleID]
	out := make([]*domainbooking.Booking, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.items[id].Clone())
	}
	sortByStart(out)
	return out, nil
}

// Insert writes a booking immediately, outside any unit.
func (r *BookingRepository) Insert(_ context.Context, b *domainbooking.Booking) (domainbooking.BookingID, error) {
	id := r.allocateID()
	b.ID = id
	if err := r.commit([]*domainbooking.Booking{b}); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *BookingRepository) allocateID() domainbooking.BookingID {
	return domainbooking.BookingID(r.nextID.Add(1))
}

// commit stores all staged bookings or none of them.
func (r *BookingRepository) commit(staged []*domainbooking.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, b := range staged {
		for _, id := range r.byVehicle[b.VehicleID] {
			if daterange.Overlaps(r.items[id].Range, b.Range) {
				return domainbooking.ErrOverlap
			}
		}
		for _, other := range staged[:i] {
			if other.VehicleID == b.VehicleID && daterange.Overlaps(other.Range, b.Range) {
				return domainbooking.ErrOverlap
			}
		}
	}
	for _, b := range staged {
		r.items[b.ID] = b.Clone()
		r.byVehicle[b.VehicleID] = append(r.byVehicle[b.VehicleID], b.ID)
	}
	return nil
}

func sortByStart(items []*domainbooking.Booking) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Range.Start.Equal(items[j].Range.Start) {
			return items[i].ID < items[j].ID
		}
		return items[i].Range.Start.Before(items[j].Range.Start)
	})
}

// unitBookings is the unit-scoped view: committed rows plus the unit's own inserts.
type unitBookings struct {
	repo   *BookingRepository
	staged []*domainbooking.Booking
}

func (u *unitBookings) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	for _, b := range u.staged {
		if b.ID == id {
			return b.Clone(), nil
		}
	}
	return u.repo.ByID(ctx, id)
}

func (u *unitBookings) ListByVehicle(ctx context.Context, vehicleID domaincatalog.VehicleID) ([]*domainbooking.Booking, error) {
	out, err := u.repo.ListByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, err
	}
	for _, b := range u.staged {
		if b.VehicleID == vehicleID {
			out = append(out, b.Clone())
		}
	}
	sortByStart(out)
	return out, nil
}

func (u *unitBookings) Insert(_ context.Context, b *domainbooking.Booking) (domainbooking.BookingID, error) {
	for _, other := range u.staged {
		if other.VehicleID == b.VehicleID && daterange.Overlaps(other.Range, b.Range) {
			return 0, domainbooking.ErrOverlap
		}
	}
	id := u.repo.allocateID()
	staged := b.Clone()
	staged.ID = id
	u.staged = append(u.staged, staged)
	return id, nil
}

var (
	_ domainbooking.Repository = (*BookingRepository)(nil)
	_ domainbooking.Repository = (*unitBookings)(nil)
)

package memory

import (
	"context"
	"sort"
	"sync"

	domaincatalog "vehiclerental/internal/domain/catalog"
)

// CatalogRepository keeps vehicle types and vehicles in memory.
type CatalogRepository struct {
	mu       sync.RWMutex
	types    map[domaincatalog.TypeID]domaincatalog.VehicleType
	vehicles map[domaincatalog.VehicleID]domaincatalog.Vehicle
}

func NewCatalogRepository() *CatalogRepository {
	return &CatalogRepository{
		types:    make(map[domaincatalog.TypeID]domaincatalog.VehicleType),
		vehicles: make(map[domaincatalog.VehicleID]domaincatalog.Vehicle),
	}
}

// Upsert replaces entries with the same ids.
func (r *CatalogRepository) Upsert(_ context.Context, types []domaincatalog.VehicleType, vehicles []domaincatalog.Vehicle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range types {
		r.types[t.ID] = t
	}
	for _, v := range vehicles {
		r.vehicles[v.ID] = v
	}
	return nil
}

func (r *CatalogRepository) VehicleTypes(context.Context) ([]domaincatalog.VehicleType, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domaincatalog.VehicleType, 0, len(r.types))
	for _, t := range r.types {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CatalogRepository) VehiclesByType(_ context.Context, typeID domaincatalog.TypeID) ([]domaincatalog.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domaincatalog.Vehicle, 0)
	for _, v := range r.vehicles {
		if v.TypeID == typeID && v.IsAvailable {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *CatalogRepository) VehicleByID(_ context.Context, id domaincatalog.VehicleID) (*domaincatalog.Vehicle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vehicles[id]
	if !ok {
		return nil, domaincatalog.ErrVehicleNotFound
	}
	return &v, nil
}

var _ domaincatalog.Repository = (*CatalogRepository)(nil)

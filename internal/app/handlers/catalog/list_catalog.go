package catalog

import (
	"context"

	"vehiclerental/internal/app/dto"
	"vehiclerental/internal/app/handlers/support"
	"vehiclerental/internal/app/queries"
	"vehiclerental/internal/app/uow"
	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
)

const (
	listVehicleTypesKey = "catalog.vehicle_types"
	listVehiclesKey     = "catalog.vehicles_by_type"
)

type ListVehicleTypesQuery struct{}

func (q ListVehicleTypesQuery) Key() string { return listVehicleTypesKey }

type ListVehicleTypesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListVehicleTypesHandler) Handle(ctx context.Context, _ ListVehicleTypesQuery) ([]dto.VehicleType, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	types, err := unit.Catalog().VehicleTypes(ctx)
	if err != nil {
		return nil, err
	}
	return dto.MapVehicleTypes(types), nil
}

// ListVehiclesQuery lists the bookable vehicles of one type.
type ListVehiclesQuery struct {
	TypeID int64
}

func (q ListVehiclesQuery) Key() string { return listVehiclesKey }

func (q ListVehiclesQuery) Validate() error {
	if q.TypeID <= 0 {
		return domainbooking.Invalid("typeId", "must be a positive integer")
	}
	return nil
}

type ListVehiclesHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListVehiclesHandler) Handle(ctx context.Context, q ListVehiclesQuery) ([]dto.Vehicle, error) {
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	vehicles, err := unit.Catalog().VehiclesByType(ctx, domaincatalog.TypeID(q.TypeID))
	if err != nil {
		return nil, err
	}
	return dto.MapVehicles(vehicles), nil
}

var (
	_ queries.Handler[ListVehicleTypesQuery, []dto.VehicleType] = (*ListVehicleTypesHandler)(nil)
	_ queries.Handler[ListVehiclesQuery, []dto.Vehicle]         = (*ListVehiclesHandler)(nil)
)

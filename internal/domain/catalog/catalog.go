package catalog

import (
	"context"
	"errors"
	"fmt"

	"vehiclerental/internal/domain/shared/money"
)

var (
	ErrVehicleNotFound = errors.New("catalog: vehicle not found")
	ErrTypeNotFound    = errors.New("catalog: vehicle type not found")
)

type TypeID int64

type VehicleID int64

// WheelClass groups vehicle types by wheel count. The zero value means unset.
type WheelClass int

const (
	WheelsUnset WheelClass = 0
	TwoWheeler  WheelClass = 2
	FourWheeler WheelClass = 4
)

func (w WheelClass) Valid() bool {
	return w == TwoWheeler || w == FourWheeler
}

func (w WheelClass) String() string {
	if !w.Valid() {
		return "unset"
	}
	return fmt.Sprintf("%d-wheeler", int(w))
}

type VehicleType struct {
	ID     TypeID
	Name   string
	Wheels WheelClass
}

type Vehicle struct {
	ID          VehicleID
	Name        string
	TypeID      TypeID
	PricePerDay money.Money
	IsAvailable bool
}

// Gateway is the read-only catalog consumed by the booking wizard.
// VehiclesByType returns only vehicles that can currently be booked.
type Gateway interface {
	VehicleTypes(ctx context.Context) ([]VehicleType, error)
	VehiclesByType(ctx context.Context, typeID TypeID) ([]Vehicle, error)
}

// Repository extends Gateway with the lookups the booking service needs.
type Repository interface {
	Gateway
	VehicleByID(ctx context.Context, id VehicleID) (*Vehicle, error)
}

// TypesWithWheels keeps the types matching the wheel class, preserving order.
func TypesWithWheels(types []VehicleType, wheels WheelClass) []VehicleType {
	out := make([]VehicleType, 0, len(types))
	for _, t := range types {
		if t.Wheels == wheels {
			out = append(out, t)
		}
	}
	return out
}

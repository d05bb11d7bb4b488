package dto

import domaincatalog "vehiclerental/internal/domain/catalog"

type VehicleType struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Wheels int    `json:"wheels"`
}

type Vehicle struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	TypeID      int64   `json:"typeId"`
	PricePerDay float64 `json:"pricePerDay"`
	Currency    string  `json:"currency,omitempty"`
	IsAvailable bool    `json:"isAvailable"`
}

func MapVehicleTypes(items []domaincatalog.VehicleType) []VehicleType {
	out := make([]VehicleType, 0, len(items))
	for _, t := range items {
		out = append(out, VehicleType{ID: int64(t.ID), Name: t.Name, Wheels: int(t.Wheels)})
	}
	return out
}

func MapVehicle(v domaincatalog.Vehicle) Vehicle {
	return Vehicle{
		ID:          int64(v.ID),
		Name:        v.Name,
		TypeID:      int64(v.TypeID),
		PricePerDay: v.PricePerDay.Major(),
		Currency:    v.PricePerDay.Currency,
		IsAvailable: v.IsAvailable,
	}
}

func MapVehicles(items []domaincatalog.Vehicle) []Vehicle {
	out := make([]Vehicle, 0, len(items))
	for _, v := range items {
		out = append(out, MapVehicle(v))
	}
	return out
}

// Package fixtures seeds a catalog store from a JSON file.
package fixtures

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/money"
)

// Upserter is implemented by every catalog adapter.
type Upserter interface {
	Upsert(ctx context.Context, types []domaincatalog.VehicleType, vehicles []domaincatalog.Vehicle) error
}

type file struct {
	Currency     string `json:"currency"`
	VehicleTypes []struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		Wheels int    `json:"wheels"`
	} `json:"vehicleTypes"`
	Vehicles []struct {
		ID          int64   `json:"id"`
		Name        string  `json:"name"`
		TypeID      int64   `json:"typeId"`
		PricePerDay float64 `json:"pricePerDay"`
		IsAvailable bool    `json:"isAvailable"`
	} `json:"vehicles"`
}

// Catalog is a decoded fixture file.
type Catalog struct {
	Types    []domaincatalog.VehicleType
	Vehicles []domaincatalog.Vehicle
}

// Decode reads a fixture. Prices are major units; fallbackCurrency is used when the file has none.
func Decode(r io.Reader, fallbackCurrency string) (Catalog, error) {
	var f file
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return Catalog{}, fmt.Errorf("fixtures: decode: %w", err)
	}
	currency := f.Currency
	if currency == "" {
		currency = fallbackCurrency
	}
	out := Catalog{
		Types:    make([]domaincatalog.VehicleType, 0, len(f.VehicleTypes)),
		Vehicles: make([]domaincatalog.Vehicle, 0, len(f.Vehicles)),
	}
	types := make(map[domaincatalog.TypeID]struct{}, len(f.VehicleTypes))
	for _, t := range f.VehicleTypes {
		wheels := domaincatalog.WheelClass(t.Wheels)
		if !wheels.Valid() {
			return Catalog{}, fmt.Errorf("fixtures: vehicle type %d: unsupported wheel count %d", t.ID, t.Wheels)
		}
		id := domaincatalog.TypeID(t.ID)
		types[id] = struct{}{}
		out.Types = append(out.Types, domaincatalog.VehicleType{ID: id, Name: t.Name, Wheels: wheels})
	}
	for _, v := range f.Vehicles {
		typeID := domaincatalog.TypeID(v.TypeID)
		if _, ok := types[typeID]; !ok {
			return Catalog{}, fmt.Errorf("fixtures: vehicle %d: %w", v.ID, domaincatalog.ErrTypeNotFound)
		}
		price, err := money.FromMajor(v.PricePerDay, currency)
		if err != nil {
			return Catalog{}, fmt.Errorf("fixtures: vehicle %d: %w", v.ID, err)
		}
		out.Vehicles = append(out.Vehicles, domaincatalog.Vehicle{
			ID:          domaincatalog.VehicleID(v.ID),
			Name:        v.Name,
			TypeID:      typeID,
			PricePerDay: price,
			IsAvailable: v.IsAvailable,
		})
	}
	return out, nil
}

// LoadFile decodes path and upserts it into dst.
func LoadFile(ctx context.Context, path, fallbackCurrency string, dst Upserter) (Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("fixtures: %w", err)
	}
	defer f.Close()
	c, err := Decode(f, fallbackCurrency)
	if err != nil {
		return Catalog{}, err
	}
	if err := dst.Upsert(ctx, c.Types, c.Vehicles); err != nil {
		return Catalog{}, fmt.Errorf("fixtures: upsert: %w", err)
	}
	return c, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/money"
)

// CatalogRepository reads vehicle types and vehicles.
type CatalogRepository struct {
	q querier
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{q: db}
}

// Upsert replaces rows with the same ids in one transaction.
func (r *CatalogRepository) Upsert(ctx context.Context, types []domaincatalog.VehicleType, vehicles []domaincatalog.Vehicle) error {
	db, ok := r.q.(*sql.DB)
	if !ok {
		return upsertCatalog(ctx, r.q, types, vehicles)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := upsertCatalog(ctx, tx, types, vehicles); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func upsertCatalog(ctx context.Context, q querier, types []domaincatalog.VehicleType, vehicles []domaincatalog.Vehicle) error {
	for _, t := range types {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO vehicle_types (id, name, wheels) VALUES (?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, wheels = EXCLUDED.wheels`,
			int64(t.ID), t.Name, int(t.Wheels)); err != nil {
			return err
		}
	}
	for _, v := range vehicles {
		if _, err := q.ExecContext(ctx,
			`INSERT INTO vehicles (id, name, type_id, price_per_day, currency, is_available) VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, type_id = EXCLUDED.type_id,
			   price_per_day = EXCLUDED.price_per_day, currency = EXCLUDED.currency, is_available = EXCLUDED.is_available`,
			int64(v.ID), v.Name, int64(v.TypeID), v.PricePerDay.Amount, v.PricePerDay.Currency, v.IsAvailable); err != nil {
			return err
		}
	}
	return nil
}

func (r *CatalogRepository) VehicleTypes(ctx context.Context) ([]domaincatalog.VehicleType, error) {
	rows, err := r.q.QueryContext(ctx, `SELECT id, name, wheels FROM vehicle_types ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domaincatalog.VehicleType, 0)
	for rows.Next() {
		var (
			t      domaincatalog.VehicleType
			wheels int
		)
		if err := rows.Scan(&t.ID, &t.Name, &wheels); err != nil {
			return nil, err
		}
		t.Wheels = domaincatalog.WheelClass(wheels)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) VehiclesByType(ctx context.Context, typeID domaincatalog.TypeID) ([]domaincatalog.Vehicle, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT id, name, type_id, price_per_day, currency, is_available FROM vehicles
		 WHERE type_id = ? AND is_available ORDER BY id`, int64(typeID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]domaincatalog.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *v)
	}
	return out, rows.Err()
}

func (r *CatalogRepository) VehicleByID(ctx context.Context, id domaincatalog.VehicleID) (*domaincatalog.Vehicle, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, name, type_id, price_per_day, currency, is_available FROM vehicles WHERE id = ?`, int64(id))
	v, err := scanVehicle(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domaincatalog.ErrVehicleNotFound
	}
	return v, err
}

func scanVehicle(s scanner) (*domaincatalog.Vehicle, error) {
	var (
		v        domaincatalog.Vehicle
		amount   int64
		currency string
	)
	if err := s.Scan(&v.ID, &v.Name, &v.TypeID, &amount, &currency, &v.IsAvailable); err != nil {
		return nil, err
	}
	v.PricePerDay = money.Money{Amount: amount, Currency: currency}
	return &v, nil
}

var _ domaincatalog.Repository = (*CatalogRepository)(nil)

package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/money"
)

type CatalogRepository struct {
	types    *mongo.Collection
	vehicles *mongo.Collection
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	vehicles := db.Collection("vehicles")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "type_id", Value: 1}, {Key: "is_available", Value: 1}}}
	_, _ = vehicles.Indexes().CreateOne(context.Background(), idx)
	return &CatalogRepository{types: db.Collection("vehicle_types"), vehicles: vehicles}
}

// Upsert replaces documents with the same ids.
func (r *CatalogRepository) Upsert(ctx context.Context, types []domaincatalog.VehicleType, vehicles []domaincatalog.Vehicle) error {
	if len(types) > 0 {
		models := make([]mongo.WriteModel, 0, len(types))
		for _, t := range types {
			doc := vehicleTypeDocument{ID: int64(t.ID), Name: t.Name, Wheels: int(t.Wheels)}
			models = append(models, mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": doc.ID}).SetReplacement(doc).SetUpsert(true))
		}
		if _, err := r.types.BulkWrite(ctx, models); err != nil {
			return err
		}
	}
	if len(vehicles) > 0 {
		models := make([]mongo.WriteModel, 0, len(vehicles))
		for _, v := range vehicles {
			doc := vehicleDocument{
				ID:          int64(v.ID),
				Name:        v.Name,
				TypeID:      int64(v.TypeID),
				PricePerDay: v.PricePerDay.Amount,
				Currency:    v.PricePerDay.Currency,
				IsAvailable: v.IsAvailable,
			}
			models = append(models, mongo.NewReplaceOneModel().SetFilter(bson.M{"_id": doc.ID}).SetReplacement(doc).SetUpsert(true))
		}
		if _, err := r.vehicles.BulkWrite(ctx, models); err != nil {
			return err
		}
	}
	return nil
}

func (r *CatalogRepository) VehicleTypes(ctx context.Context) ([]domaincatalog.VehicleType, error) {
	cur, err := r.types.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []vehicleTypeDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domaincatalog.VehicleType, 0, len(docs))
	for _, d := range docs {
		out = append(out, domaincatalog.VehicleType{ID: domaincatalog.TypeID(d.ID), Name: d.Name, Wheels: domaincatalog.WheelClass(d.Wheels)})
	}
	return out, nil
}

func (r *CatalogRepository) VehiclesByType(ctx context.Context, typeID domaincatalog.TypeID) ([]domaincatalog.Vehicle, error) {
	filter := bson.M{"type_id": int64(typeID), "is_available": true}
	cur, err := r.vehicles.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []vehicleDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]domaincatalog.Vehicle, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

func (r *CatalogRepository) VehicleByID(ctx context.Context, id domaincatalog.VehicleID) (*domaincatalog.Vehicle, error) {
	var doc vehicleDocument
	if err := r.vehicles.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domaincatalog.ErrVehicleNotFound
		}
		return nil, err
	}
	v := doc.toDomain()
	return &v, nil
}

type vehicleTypeDocument struct {
	ID     int64  `bson:"_id"`
	Name   string `bson:"name"`
	Wheels int    `bson:"wheels"`
}

type vehicleDocument struct {
	ID          int64  `bson:"_id"`
	Name        string `bson:"name"`
	TypeID      int64  `bson:"type_id"`
	PricePerDay int64  `bson:"price_per_day"`
	Currency    string `bson:"currency"`
	IsAvailable bool   `bson:"is_available"`
}

func (d vehicleDocument) toDomain() domaincatalog.Vehicle {
	return domaincatalog.Vehicle{
		ID:          domaincatalog.VehicleID(d.ID),
		Name:        d.Name,
		TypeID:      domaincatalog.TypeID(d.TypeID),
		PricePerDay: money.Money{Amount: d.PricePerDay, Currency: d.Currency},
		IsAvailable: d.IsAvailable,
	}
}

var _ domaincatalog.Repository = (*CatalogRepository)(nil)

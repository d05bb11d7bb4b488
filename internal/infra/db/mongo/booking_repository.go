package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "vehiclerental/internal/domain/booking"
	domaincatalog "vehiclerental/internal/domain/catalog"
	"vehiclerental/internal/domain/shared/daterange"
)

const counterTimeout = 5 * time.Second

// BookingRepository stores bookings with auto-increment ids.
// Insert bumps a per-vehicle guard document inside the caller's transaction,
// so two transactions booking the same vehicle always write-conflict.
type BookingRepository struct {
	col      *mongo.Collection
	guards   *mongo.Collection
	counters *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) *BookingRepository {
	col := db.Collection("bookings")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "vehicle_id", Value: 1}, {Key: "start_date", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{
		col:      col,
		guards:   db.Collection("vehicle_guards"),
		counters: db.Collection("counters"),
	}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": int64(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, translate(err)
	}
	return doc.toAggregate()
}

func (r *BookingRepository) ListByVehicle(ctx context.Context, vehicleID domaincatalog.VehicleID) ([]*domainbooking.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"vehicle_id": int64(vehicleID)}, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cur.Close(ctx)
	var out []*domainbooking.Booking
	for cur.Next(ctx) {
		var doc bookingDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		b, err := doc.toAggregate()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, translate(cur.Err())
}

func (r *BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) (domainbooking.BookingID, error) {
	guard := bson.M{"$inc": bson.M{"version": 1}, "$set": bson.M{"updated_at": time.Now().UTC()}}
	if _, err := r.guards.UpdateByID(ctx, int64(b.VehicleID), guard, options.Update().SetUpsert(true)); err != nil {
		return 0, translate(err)
	}
	id, err := r.nextID()
	if err != nil {
		return 0, err
	}
	doc := newBookingDocument(b)
	doc.ID = int64(id)
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return 0, translate(err)
	}
	return id, nil
}

// nextID runs outside the caller's session so the counter never joins the
// booking transaction; ids of rolled back bookings are skipped.
func (r *BookingRepository) nextID() (domainbooking.BookingID, error) {
	detached, cancel := context.WithTimeout(context.Background(), counterTimeout)
	defer cancel()
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(detached, bson.M{"_id": "bookings"}, bson.M{"$inc": bson.M{"seq": 1}}, opts).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("mongo: allocate booking id: %w", err)
	}
	return domainbooking.BookingID(counter.Seq), nil
}

type bookingDocument struct {
	ID        int64     `bson:"_id"`
	FirstName string    `bson:"first_name"`
	LastName  string    `bson:"last_name"`
	VehicleID int64     `bson:"vehicle_id"`
	StartDate string    `bson:"start_date"`
	EndDate   string    `bson:"end_date"`
	CreatedAt time.Time `bson:"created_at"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	return bookingDocument{
		ID:        int64(b.ID),
		FirstName: b.Customer.FirstName,
		LastName:  b.Customer.LastName,
		VehicleID: int64(b.VehicleID),
		StartDate: daterange.FormatDay(b.Range.Start),
		EndDate:   daterange.FormatDay(b.Range.End),
		CreatedAt: b.CreatedAt,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	dr, err := daterange.Parse(d.StartDate, d.EndDate)
	if err != nil {
		return nil, fmt.Errorf("mongo: booking %d: %w", d.ID, err)
	}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		Customer:  domainbooking.Customer{FirstName: d.FirstName, LastName: d.LastName},
		VehicleID: domaincatalog.VehicleID(d.VehicleID),
		Range:     dr,
		CreatedAt: d.CreatedAt.UTC(),
	}, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)

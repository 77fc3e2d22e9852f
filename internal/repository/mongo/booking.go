package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shestoi/railbook/internal/repository"
)

type bookedSeatDocument struct {
	Number string  `bson:"number"`
	Class  string  `bson:"class"`
	Price  float64 `bson:"price"`
}

// BookingDocument is a booking as stored in the bookings collection.
type BookingDocument struct {
	ID               string               `bson:"_id"`
	UserID           string               `bson:"user_id"`
	TrainID          string               `bson:"train_id"`
	Seats            []bookedSeatDocument `bson:"seats"`
	TotalAmount      float64              `bson:"total_amount"`
	Status           string               `bson:"status"`
	PaymentStatus    string               `bson:"payment_status"`
	PaymentReference string               `bson:"payment_reference"`
	CreatedAt        time.Time            `bson:"created_at"`
	UpdatedAt        time.Time            `bson:"updated_at"`
	Version          int64                `bson:"version"`
}

func toBookingDocument(b repository.Booking) BookingDocument {
	seats := make([]bookedSeatDocument, len(b.Seats))
	for i, s := range b.Seats {
		seats[i] = bookedSeatDocument{Number: s.Number, Class: string(s.Class), Price: s.Price}
	}
	return BookingDocument{
		ID:               b.ID,
		UserID:           b.UserID,
		TrainID:          b.TrainID,
		Seats:            seats,
		TotalAmount:      b.TotalAmount,
		Status:           string(b.Status),
		PaymentStatus:    string(b.PaymentStatus),
		PaymentReference: b.PaymentReference,
		CreatedAt:        b.CreatedAt.UTC(),
		UpdatedAt:        b.UpdatedAt.UTC(),
		Version:          b.Version,
	}
}

func (d BookingDocument) toDomain() repository.Booking {
	seats := make([]repository.BookedSeat, len(d.Seats))
	for i, s := range d.Seats {
		seats[i] = repository.BookedSeat{Number: s.Number, Class: repository.SeatClass(s.Class), Price: s.Price}
	}
	return repository.Booking{
		ID:               d.ID,
		UserID:           d.UserID,
		TrainID:          d.TrainID,
		Seats:            seats,
		TotalAmount:      d.TotalAmount,
		Status:           repository.BookingStatus(d.Status),
		PaymentStatus:    repository.PaymentStatus(d.PaymentStatus),
		PaymentReference: d.PaymentReference,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
		Version:          d.Version,
	}
}

// BookingRepository implements repository.BookingRepository on the bookings collection.
type BookingRepository struct {
	col *mongo.Collection
}

// NewBookingRepository creates the lookup indexes if they are missing.
func NewBookingRepository(client *mongo.Client, dbName string) *BookingRepository {
	col := client.Database(dbName).Collection("bookings")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "payment_reference", Value: 1}}},
		{Keys: bson.D{{Key: "train_id", Value: 1}, {Key: "status", Value: 1}}},
	})

	return &BookingRepository{col: col}
}

func (r *BookingRepository) Create(ctx context.Context, booking repository.Booking) error {
	booking.Version = 1
	_, err := r.col.InsertOne(ctx, toBookingDocument(booking))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) findOne(ctx context.Context, filter bson.M) (repository.Booking, error) {
	var doc BookingDocument
	err := r.col.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.Booking{}, repository.ErrNotFound
		}
		return repository.Booking{}, fmt.Errorf("find booking: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (repository.Booking, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *BookingRepository) GetByPaymentReference(ctx context.Context, ref string) (repository.Booking, error) {
	if ref == "" {
		return repository.Booking{}, repository.ErrNotFound
	}
	return r.findOne(ctx, bson.M{"payment_reference": ref})
}

func (r *BookingRepository) Update(ctx context.Context, booking repository.Booking) error {
	doc := toBookingDocument(booking)
	doc.Version = booking.Version + 1

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": booking.ID, "version": booking.Version}, doc)
	if err != nil {
		return fmt.Errorf("replace booking: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, booking.ID); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	return nil
}

func bookingQuery(f repository.BookingFilter) bson.M {
	q := bson.M{}
	if f.UserID != "" {
		q["user_id"] = f.UserID
	}
	if f.TrainID != "" {
		q["train_id"] = f.TrainID
	}
	if f.Status != "" {
		q["status"] = string(f.Status)
	}
	created := bson.M{}
	if !f.CreatedAfter.IsZero() {
		created["$gte"] = f.CreatedAfter.UTC()
	}
	if !f.CreatedBefore.IsZero() {
		created["$lte"] = f.CreatedBefore.UTC()
	}
	if len(created) > 0 {
		q["created_at"] = created
	}
	return q
}

func (r *BookingRepository) List(ctx context.Context, filter repository.BookingFilter) ([]repository.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := r.col.Find(ctx, bookingQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find bookings: %w", err)
	}
	defer cur.Close(ctx)

	var docs []BookingDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bookings: %w", err)
	}
	out := make([]repository.Booking, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

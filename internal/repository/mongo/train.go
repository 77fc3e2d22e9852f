package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/shestoi/railbook/internal/repository"
)

const lockAttempts = 3

type seatDocument struct {
	Number      string  `bson:"number"`
	Class       string  `bson:"class"`
	Price       float64 `bson:"price"`
	IsAvailable bool    `bson:"is_available"`
	HeldBy      string  `bson:"held_by"`
}

// TrainDocument is a train as stored in the trains collection.
type TrainDocument struct {
	ID            string         `bson:"_id"`
	Name          string         `bson:"name"`
	From          string         `bson:"from"`
	To            string         `bson:"to"`
	DepartureTime time.Time      `bson:"departure_time"`
	ArrivalTime   time.Time      `bson:"arrival_time"`
	BasePrice     float64        `bson:"base_price"`
	Seats         []seatDocument `bson:"seats"`
	Status        string         `bson:"status"`
	Version       int64          `bson:"version"`
	CreatedAt     time.Time      `bson:"created_at"`
	UpdatedAt     time.Time      `bson:"updated_at"`
}

func toTrainDocument(t repository.Train) TrainDocument {
	seats := make([]seatDocument, len(t.Seats))
	for i, s := range t.Seats {
		seats[i] = seatDocument{
			Number:      s.Number,
			Class:       string(s.Class),
			Price:       s.Price,
			IsAvailable: s.IsAvailable,
			HeldBy:      s.HeldBy,
		}
	}
	return TrainDocument{
		ID:            t.ID,
		Name:          t.Name,
		From:          t.From,
		To:            t.To,
		DepartureTime: t.DepartureTime.UTC(),
		ArrivalTime:   t.ArrivalTime.UTC(),
		BasePrice:     t.BasePrice,
		Seats:         seats,
		Status:        string(t.Status),
		Version:       t.Version,
		CreatedAt:     t.CreatedAt.UTC(),
		UpdatedAt:     t.UpdatedAt.UTC(),
	}
}

func (d TrainDocument) toDomain() repository.Train {
	seats := make([]repository.Seat, len(d.Seats))
	for i, s := range d.Seats {
		seats[i] = repository.Seat{
			Number:      s.Number,
			Class:       repository.SeatClass(s.Class),
			Price:       s.Price,
			IsAvailable: s.IsAvailable,
			HeldBy:      s.HeldBy,
		}
	}
	return repository.Train{
		ID:            d.ID,
		Name:          d.Name,
		From:          d.From,
		To:            d.To,
		DepartureTime: d.DepartureTime,
		ArrivalTime:   d.ArrivalTime,
		BasePrice:     d.BasePrice,
		Seats:         seats,
		Status:        repository.TrainStatus(d.Status),
		Version:       d.Version,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// TrainRepository implements repository.TrainRepository on the trains collection.
// Seat holds are conditional updates on the train document, so two holds of one seat
// can never both match.
type TrainRepository struct {
	col *mongo.Collection
}

// NewTrainRepository creates the departure and route indexes if they are missing.
func NewTrainRepository(client *mongo.Client, dbName string) *TrainRepository {
	col := client.Database(dbName).Collection("trains")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "departure_time", Value: 1}}},
		{Keys: bson.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}}},
	})

	return &TrainRepository{col: col}
}

func (r *TrainRepository) Create(ctx context.Context, train repository.Train) error {
	train.Version = 1
	_, err := r.col.InsertOne(ctx, toTrainDocument(train))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrAlreadyExists
		}
		return fmt.Errorf("insert train: %w", err)
	}
	return nil
}

func (r *TrainRepository) GetByID(ctx context.Context, id string) (repository.Train, error) {
	var doc TrainDocument
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.Train{}, repository.ErrNotFound
		}
		return repository.Train{}, fmt.Errorf("find train: %w", err)
	}
	return doc.toDomain(), nil
}

func trainQuery(f repository.TrainFilter) bson.M {
	q := bson.M{}
	if f.From != "" {
		q["from"] = bson.M{"$regex": regexp.QuoteMeta(f.From), "$options": "i"}
	}
	if f.To != "" {
		q["to"] = bson.M{"$regex": regexp.QuoteMeta(f.To), "$options": "i"}
	}
	departure := bson.M{}
	if !f.DepartsAfter.IsZero() {
		departure["$gte"] = f.DepartsAfter.UTC()
	}
	if !f.DepartsBefore.IsZero() {
		departure["$lt"] = f.DepartsBefore.UTC()
	}
	if len(departure) > 0 {
		q["departure_time"] = departure
	}
	price := bson.M{}
	if f.MinPrice != nil {
		price["$gte"] = *f.MinPrice
	}
	if f.MaxPrice != nil {
		price["$lte"] = *f.MaxPrice
	}
	if len(price) > 0 {
		q["base_price"] = price
	}
	if f.Class != "" {
		q["seats"] = bson.M{"$elemMatch": bson.M{"class": string(f.Class), "is_available": true}}
	}
	return q
}

func (r *TrainRepository) List(ctx context.Context, filter repository.TrainFilter) ([]repository.Train, error) {
	opts := options.Find().SetSort(bson.D{{Key: "departure_time", Value: 1}})
	cur, err := r.col.Find(ctx, trainQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find trains: %w", err)
	}
	defer cur.Close(ctx)

	var docs []TrainDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode trains: %w", err)
	}
	out := make([]repository.Train, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *TrainRepository) Update(ctx context.Context, train repository.Train) error {
	doc := toTrainDocument(train)
	doc.Version = train.Version + 1

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": train.ID, "version": train.Version}, doc)
	if err != nil {
		return fmt.Errorf("replace train: %w", err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, train.ID); err != nil {
			return err
		}
		return repository.ErrConflict
	}
	return nil
}

func (r *TrainRepository) Delete(ctx context.Context, id string) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete train: %w", err)
	}
	if res.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// LockSeats matches the train only when every number names a seat that is free or already
// held by holder, and flips those seats in the same update.
func (r *TrainRepository) LockSeats(ctx context.Context, trainID, holder string, numbers []string) error {
	guards := make(bson.A, 0, len(numbers))
	for _, n := range numbers {
		guards = append(guards, bson.M{"seats": bson.M{"$elemMatch": bson.M{
			"number": n,
			"$or":    bson.A{bson.M{"is_available": true}, bson.M{"held_by": holder}},
		}}})
	}
	filter := bson.M{"_id": trainID}
	if len(guards) > 0 {
		filter["$and"] = guards
	}
	update := bson.M{
		"$set": bson.M{
			"seats.$[s].is_available": false,
			"seats.$[s].held_by":      holder,
			"updated_at":              time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"s.number": bson.M{"$in": numbers}}},
	})

	for attempt := 0; attempt < lockAttempts; attempt++ {
		res, err := r.col.UpdateOne(ctx, filter, update, opts)
		if err != nil {
			return fmt.Errorf("lock seats: %w", err)
		}
		if res.MatchedCount == 1 {
			return nil
		}

		train, err := r.GetByID(ctx, trainID)
		if err != nil {
			return err
		}
		if unavailable := train.HoldSeats(holder, numbers); len(unavailable) > 0 {
			return &repository.UnavailableSeatsError{Seats: unavailable}
		}
		// the seats were freed between the update and the reload
	}
	return &repository.UnavailableSeatsError{Seats: numbers}
}

func (r *TrainRepository) ReleaseSeats(ctx context.Context, trainID, holder string, numbers []string) error {
	update := bson.M{
		"$set": bson.M{
			"seats.$[s].is_available": true,
			"seats.$[s].held_by":      "",
			"updated_at":              time.Now().UTC(),
		},
		"$inc": bson.M{"version": 1},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"s.number":       bson.M{"$in": numbers},
			"s.held_by":      holder,
			"s.is_available": false,
		}},
	})

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": trainID}, update, opts)
	if err != nil {
		return fmt.Errorf("release seats: %w", err)
	}
	if res.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

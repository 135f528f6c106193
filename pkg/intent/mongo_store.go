package intent

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// CollectionPaymentIntents backs the store in Mongo.
const CollectionPaymentIntents = "payment_intents"

type mongoStore struct {
	col *mongo.Collection
}

// NewMongoStore returns a Mongo-backed Store keyed by transaction id.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{col: db.Collection(CollectionPaymentIntents)}
}

func (s *mongoStore) Create(ctx context.Context, pi *PaymentIntent) error {
	cp := *pi
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	if cp.Status == "" {
		cp.Status = StatusPending
	}

	_, err := s.col.InsertOne(ctx, cp)
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *mongoStore) Get(ctx context.Context, transactionID string) (*PaymentIntent, error) {
	var pi PaymentIntent
	err := s.col.FindOne(ctx, bson.D{{Key: "_id", Value: transactionID}}).Decode(&pi)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pi, nil
}

func (s *mongoStore) SetStatus(ctx context.Context, transactionID string, status Status) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: transactionID}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "status", Value: status},
			{Key: "updated_at", Value: time.Now().UTC()},
		}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) Delete(ctx context.Context, transactionID string) error {
	_, err := s.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: transactionID}})
	return err
}

package registration

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/launderly/launderly/pkg/otp"
)

// CollectionPendingRegistrations backs the store in Mongo.
const CollectionPendingRegistrations = "pending_registrations"

type mongoStore struct {
	col *mongo.Collection
	ttl time.Duration
	now func() time.Time
}

// NewMongoStore returns a Mongo-backed Store. Call EnsureIndexes once at
// startup so the TTL reaper and the transaction-id lookup have their indexes.
//
// Mongo's TTL reaper runs on a minutes-scale granularity, so every read also
// filters on expires_at; a physically present but expired document is still
// not-found.
func NewMongoStore(db *mongo.Database, opts ...MongoOption) Store {
	s := &mongoStore{
		col: db.Collection(CollectionPendingRegistrations),
		ttl: DefaultTTL,
		now: func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MongoOption configures the Mongo store.
type MongoOption func(*mongoStore)

// WithMongoTTL overrides DefaultTTL.
func WithMongoTTL(ttl time.Duration) MongoOption {
	return func(s *mongoStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// EnsureIndexes creates the TTL index on expires_at and the transaction-id
// lookup index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	col := db.Collection(CollectionPendingRegistrations)
	_, err := col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys:    bson.D{{Key: "transaction_id", Value: 1}},
			Options: options.Index().SetSparse(true),
		},
	})
	return err
}

func (s *mongoStore) Create(ctx context.Context, email string, payload Payload) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", ErrInvalidEmail
	}

	code, err := otp.Generate(otp.DefaultDigits)
	if err != nil {
		return "", err
	}

	now := s.now()
	rec := PendingRegistration{
		Email:     email,
		CodeHash:  otp.Hash(code),
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	// Replace-with-upsert supersedes any prior record atomically.
	if _, err := s.col.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: email}},
		rec,
		options.Replace().SetUpsert(true),
	); err != nil {
		return "", err
	}
	return code, nil
}

func (s *mongoStore) Verify(ctx context.Context, email, code string) (*PendingRegistration, error) {
	rec, err := s.live(ctx, bson.D{{Key: "_id", Value: NormalizeEmail(email)}})
	if err != nil {
		return nil, err
	}
	if !otp.Verify(rec.CodeHash, code) {
		return nil, ErrInvalidCode
	}
	return rec, nil
}

func (s *mongoStore) AttachTransaction(ctx context.Context, email, transactionID string) error {
	res, err := s.col.UpdateOne(ctx,
		bson.D{
			{Key: "_id", Value: NormalizeEmail(email)},
			{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now()}}},
		},
		bson.D{{Key: "$set", Value: bson.D{{Key: "transaction_id", Value: transactionID}}}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *mongoStore) FindByTransaction(ctx context.Context, transactionID string) (*PendingRegistration, error) {
	if transactionID == "" {
		return nil, ErrNotFound
	}
	return s.live(ctx, bson.D{{Key: "transaction_id", Value: transactionID}})
}

func (s *mongoStore) Delete(ctx context.Context, email string) (bool, error) {
	res, err := s.col.DeleteOne(ctx, bson.D{
		{Key: "_id", Value: NormalizeEmail(email)},
		{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now()}}},
	})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}

func (s *mongoStore) live(ctx context.Context, filter bson.D) (*PendingRegistration, error) {
	filter = append(filter, bson.E{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: s.now()}}})

	var rec PendingRegistration
	err := s.col.FindOne(ctx, filter).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

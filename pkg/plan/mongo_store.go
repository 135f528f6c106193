package plan

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// CollectionPlans is the Mongo collection backing the plan catalog.
const CollectionPlans = "plans"

type mongoStore struct {
	col *mongo.Collection
}

// NewMongoStore returns a Store backed by a Mongo collection, keyed by tier.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{col: db.Collection(CollectionPlans)}
}

func (s *mongoStore) Load(ctx context.Context) (map[Tier]Plan, error) {
	cur, err := s.col.Find(ctx, bson.D{})
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}
	defer cur.Close(ctx)

	var plans []Plan
	if err := cur.All(ctx, &plans); err != nil {
		return nil, errors.Join(ErrFailedToLoadPlans, err)
	}

	out := make(map[Tier]Plan, len(plans))
	for _, p := range plans {
		out[p.Tier] = p
	}
	return out, nil
}

func (s *mongoStore) Save(ctx context.Context, p Plan) error {
	if err := p.Validate(); err != nil {
		return err
	}
	_, err := s.col.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: p.Tier}},
		p,
		options.Replace().SetUpsert(true),
	)
	return err
}

// SeedMongo inserts the given plans into the collection unless it already has
// any documents. Intended for first boot of a fresh deployment.
func SeedMongo(ctx context.Context, db *mongo.Database, plans []Plan) error {
	col := db.Collection(CollectionPlans)
	n, err := col.CountDocuments(ctx, bson.D{})
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	docs := make([]any, 0, len(plans))
	for _, p := range plans {
		if err := p.Validate(); err != nil {
			return err
		}
		docs = append(docs, p)
	}
	_, err = col.InsertMany(ctx, docs)
	return err
}

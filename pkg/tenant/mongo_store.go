package tenant

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/launderly/launderly/pkg/plan"
)

// Mongo collections backing the store.
const (
	CollectionTenants   = "tenants"
	CollectionUsers     = "users"
	CollectionSettings  = "settings"
	CollectionPriceRows = "price_rows"
)

type mongoStore struct {
	client    *mongo.Client
	tenants   *mongo.Collection
	users     *mongo.Collection
	settings  *mongo.Collection
	priceRows *mongo.Collection
}

// NewMongoStore returns a Mongo-backed Store. It also implements Transactor
// using client sessions, so the finalizer runs its multi-entity creation as
// one transaction on replica-set deployments.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{
		client:    db.Client(),
		tenants:   db.Collection(CollectionTenants),
		users:     db.Collection(CollectionUsers),
		settings:  db.Collection(CollectionSettings),
		priceRows: db.Collection(CollectionPriceRows),
	}
}

// EnsureTenantIndexes creates the unique user email index and the sweep
// lookup indexes.
func EnsureTenantIndexes(ctx context.Context, db *mongo.Database) error {
	if _, err := db.Collection(CollectionUsers).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}
	_, err := db.Collection(CollectionTenants).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "trial_ends_at", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_billing_at", Value: 1}}},
	})
	return err
}

func (s *mongoStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := s.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

func (s *mongoStore) CreateTenant(ctx context.Context, t *Tenant) error {
	cp := *t
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	cp.UpdatedAt = cp.CreatedAt
	_, err := s.tenants.InsertOne(ctx, cp)
	return err
}

func (s *mongoStore) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var t Tenant
	err := s.tenants.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&t)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTenantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *mongoStore) FindLapsed(ctx context.Context, now time.Time) ([]Tenant, error) {
	filter := bson.D{{Key: "$or", Value: bson.A{
		bson.D{
			{Key: "status", Value: StatusTrialing},
			{Key: "trial_ends_at", Value: bson.D{{Key: "$lt", Value: now}}},
		},
		bson.D{
			{Key: "status", Value: StatusActive},
			{Key: "next_billing_at", Value: bson.D{{Key: "$lt", Value: now}}},
		},
	}}}

	cur, err := s.tenants.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Tenant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoStore) FindPastDueSince(ctx context.Context, before time.Time) ([]Tenant, error) {
	cur, err := s.tenants.Find(ctx, bson.D{
		{Key: "status", Value: StatusPastDue},
		{Key: "updated_at", Value: bson.D{{Key: "$lt", Value: before}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Tenant
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *mongoStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to SubscriptionStatus) error {
	set := bson.D{
		{Key: "status", Value: to},
		{Key: "updated_at", Value: time.Now().UTC()},
	}
	unset := bson.D{}
	switch from {
	case StatusTrialing:
		unset = append(unset, bson.E{Key: "trial_ends_at", Value: ""})
	case StatusActive:
		unset = append(unset, bson.E{Key: "next_billing_at", Value: ""})
	}

	update := bson.D{{Key: "$set", Value: set}}
	if len(unset) > 0 {
		update = append(update, bson.E{Key: "$unset", Value: unset})
	}

	res, err := s.tenants.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}, {Key: "status", Value: from}},
		update,
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrStaleTransition
	}
	return nil
}

func (s *mongoStore) ActivatePlan(ctx context.Context, id uuid.UUID, tier plan.Tier, nextBillingAt time.Time) error {
	res, err := s.tenants.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{
			{Key: "$set", Value: bson.D{
				{Key: "plan_tier", Value: tier},
				{Key: "status", Value: StatusActive},
				{Key: "next_billing_at", Value: nextBillingAt},
				{Key: "updated_at", Value: time.Now().UTC()},
			}},
			{Key: "$unset", Value: bson.D{{Key: "trial_ends_at", Value: ""}}},
		},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrTenantNotFound
	}
	return nil
}

func (s *mongoStore) CreateUser(ctx context.Context, u *User) error {
	cp := *u
	cp.Email = strings.ToLower(cp.Email)
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	_, err := s.users.InsertOne(ctx, cp)
	if mongo.IsDuplicateKeyError(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *mongoStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.users.FindOne(ctx, bson.D{{Key: "email", Value: strings.ToLower(email)}}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoStore) CountUsersByRole(ctx context.Context, tenantID uuid.UUID, role Role) (int64, error) {
	return s.users.CountDocuments(ctx, bson.D{
		{Key: "tenant_id", Value: tenantID},
		{Key: "role", Value: role},
	})
}

func (s *mongoStore) SaveSettings(ctx context.Context, set *Settings) error {
	cp := *set
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	_, err := s.settings.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: cp.TenantID}},
		cp,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (s *mongoStore) InsertPriceRows(ctx context.Context, rows []PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	docs := make([]any, len(rows))
	for i, r := range rows {
		docs[i] = r
	}
	_, err := s.priceRows.InsertMany(ctx, docs)
	return err
}

func (s *mongoStore) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	if _, err := s.tenants.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return err
	}
	if _, err := s.settings.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}}); err != nil {
		return err
	}
	_, err := s.priceRows.DeleteMany(ctx, bson.D{{Key: "tenant_id", Value: id}})
	return err
}

func (s *mongoStore) DeleteUser(ctx context.Context, id uuid.UUID) error {
	_, err := s.users.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	return err
}

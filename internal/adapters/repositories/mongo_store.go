package repositories

import (
	"context"
	"errors"
	"fmt"
	"location-tracker-service/internal/domain"
	"location-tracker-service/internal/platform/obs"
	"location-tracker-service/internal/ports"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection     = "users"
	locationsCollection = "locations"
	countersCollection  = "counters"
)

type userDoc struct {
	ID        int64     `bson:"_id"`
	Phone     string    `bson:"phone"`
	Password  string    `bson:"password"`
	CreatedAt time.Time `bson:"created_at"`
}

type locationDoc struct {
	ID        int64     `bson:"_id"`
	UserID    int64     `bson:"user_id"`
	Phone     string    `bson:"phone"`
	Latitude  float64   `bson:"latitude"`
	Longitude float64   `bson:"longitude"`
	Accuracy  float64   `bson:"accuracy"`
	Timestamp time.Time `bson:"timestamp"`
}

func (d locationDoc) toDomain() *domain.Location {
	return &domain.Location{
		ID:        d.ID,
		UserID:    d.UserID,
		Phone:     d.Phone,
		Latitude:  d.Latitude,
		Longitude: d.Longitude,
		Accuracy:  d.Accuracy,
		Timestamp: d.Timestamp.UTC(),
	}
}

// MongoStore implements ports.Store on MongoDB. Numeric IDs come from a
// counters collection so every backend exposes the same shape.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect to uri, verify with a ping and ensure indexes.
func OpenMongoStore(ctx context.Context, uri string, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	s := &MongoStore{client: client, db: client.Database(database)}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("mongo: users index: %w", err)
	}

	_, err = s.db.Collection(locationsCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "phone", Value: 1}, {Key: "timestamp", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("mongo: locations index: %w", err)
	}

	return nil
}

func (s *MongoStore) Backend() string { return "mongo" }

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var out struct {
		Seq int64 `bson:"seq"`
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	err := s.db.Collection(countersCollection).
		FindOneAndUpdate(ctx, bson.M{"_id": name}, bson.M{"$inc": bson.M{"seq": int64(1)}}, opts).
		Decode(&out)
	if err != nil {
		return 0, fmt.Errorf("mongo: next %s id: %w", name, err)
	}
	return out.Seq, nil
}

func (s *MongoStore) CreateUser(ctx context.Context, phone string, passwordHash string) (_ *domain.User, err error) {
	defer obs.Time(ctx, "store.CreateUser")(&err)

	id, err := s.nextID(ctx, usersCollection)
	if err != nil {
		return nil, err
	}

	doc := userDoc{ID: id, Phone: phone, Password: passwordHash, CreatedAt: time.Now().UTC().Truncate(time.Millisecond)}
	if _, err := s.db.Collection(usersCollection).InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, fmt.Errorf("create user phone=%q: %w", phone, ports.ErrDuplicate)
		}
		return nil, fmt.Errorf("create user: insert: %w", err)
	}

	return &domain.User{ID: doc.ID, Phone: doc.Phone, PasswordHash: doc.Password, CreatedAt: doc.CreatedAt}, nil
}

func (s *MongoStore) GetUserByPhone(ctx context.Context, phone string) (_ *domain.User, err error) {
	defer obs.Time(ctx, "store.GetUserByPhone")(&err)

	var doc userDoc
	err = s.db.Collection(usersCollection).FindOne(ctx, bson.M{"phone": phone}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("get user phone=%q: %w", phone, ports.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get user: find: %w", err)
	}

	return &domain.User{ID: doc.ID, Phone: doc.Phone, PasswordHash: doc.Password, CreatedAt: doc.CreatedAt.UTC()}, nil
}

func (s *MongoStore) ListUsers(ctx context.Context) (_ []*domain.User, err error) {
	defer obs.Time(ctx, "store.ListUsers")(&err)

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	cur, err := s.db.Collection(usersCollection).Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list users: find: %w", err)
	}

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list users: decode: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, &domain.User{ID: d.ID, Phone: d.Phone, PasswordHash: d.Password, CreatedAt: d.CreatedAt.UTC()})
	}
	return users, nil
}

func (s *MongoStore) SaveLocation(ctx context.Context, loc domain.Location) (_ *domain.Location, err error) {
	defer obs.Time(ctx, "store.SaveLocation")(&err)

	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}
	// BSON dates carry millisecond precision.
	loc.Timestamp = loc.Timestamp.UTC().Truncate(time.Millisecond)

	id, err := s.nextID(ctx, locationsCollection)
	if err != nil {
		return nil, err
	}
	loc.ID = id

	doc := locationDoc{
		ID:        loc.ID,
		UserID:    loc.UserID,
		Phone:     loc.Phone,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
		Accuracy:  loc.Accuracy,
		Timestamp: loc.Timestamp,
	}
	if _, err := s.db.Collection(locationsCollection).InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("save location phone=%q: %w", loc.Phone, err)
	}

	return &loc, nil
}

func (s *MongoStore) LatestLocation(ctx context.Context, phone string) (*domain.Location, error) {
	locs, err := s.ListLocations(ctx, phone, 1)
	if err != nil {
		return nil, err
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("latest location phone=%q: %w", phone, ports.ErrNotFound)
	}
	return locs[0], nil
}

func (s *MongoStore) ListLocations(ctx context.Context, phone string, limit int) (_ []*domain.Location, err error) {
	defer obs.Time(ctx, "store.ListLocations")(&err)
	return s.findLocations(ctx, bson.M{"phone": phone}, limit)
}

func (s *MongoStore) RecentLocations(ctx context.Context, limit int) (_ []*domain.Location, err error) {
	defer obs.Time(ctx, "store.RecentLocations")(&err)
	return s.findLocations(ctx, bson.M{}, limit)
}

func (s *MongoStore) findLocations(ctx context.Context, filter bson.M, limit int) ([]*domain.Location, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}, {Key: "_id", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := s.db.Collection(locationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list locations: find: %w", err)
	}

	var docs []locationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list locations: decode: %w", err)
	}

	out := make([]*domain.Location, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}

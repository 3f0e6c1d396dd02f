package storage

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoStore implements Store on a MongoDB deployment.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
	config Config
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, config Config) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, config.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(config.URL))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client: client,
		db:     client.Database(config.Database),
		config: config,
	}, nil
}

// Close disconnects from the deployment.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WithSession runs fn inside one causally-consistent session. The
// session rides on the context, so every store call fn makes with it is
// session-scoped.
func (s *MongoStore) WithSession(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession(options.Session().SetCausalConsistency(true))
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(ctx)

	return mongo.WithSession(ctx, sess, func(sc mongo.SessionContext) error {
		return fn(sc)
	})
}

// ListCollections names every collection in the database.
func (s *MongoStore) ListCollections(ctx context.Context) ([]string, error) {
	names, err := s.db.ListCollectionNames(ctx, Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	return names, nil
}

// Find decodes every matching document into out.
func (s *MongoStore) Find(ctx context.Context, collection string, filter Filter, out interface{}) error {
	cursor, err := s.db.Collection(collection).Find(ctx, filter)
	if err != nil {
		return fmt.Errorf("find on %s failed: %w", collection, err)
	}
	if err := cursor.All(ctx, out); err != nil {
		return fmt.Errorf("decoding %s documents failed: %w", collection, err)
	}
	return nil
}

// FindOne decodes the first matching document into out.
func (s *MongoStore) FindOne(ctx context.Context, collection string, filter Filter, out interface{}) error {
	err := s.db.Collection(collection).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find one on %s failed: %w", collection, err)
	}
	return nil
}

// InsertOne stores one document.
func (s *MongoStore) InsertOne(ctx context.Context, collection string, doc interface{}) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert into %s failed: %w", collection, err)
	}
	return nil
}

// DeleteMany removes every matching document.
func (s *MongoStore) DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error) {
	result, err := s.db.Collection(collection).DeleteMany(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("delete on %s failed: %w", collection, err)
	}
	return result.DeletedCount, nil
}

// UpdateMany applies update to every matching document.
func (s *MongoStore) UpdateMany(ctx context.Context, collection string, filter Filter, update Update) (int64, error) {
	result, err := s.db.Collection(collection).UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, fmt.Errorf("update on %s failed: %w", collection, err)
	}
	return result.ModifiedCount, nil
}

// HealthCheck pings the primary.
func (s *MongoStore) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

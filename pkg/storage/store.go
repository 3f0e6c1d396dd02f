package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
)

// ErrNotFound is returned by FindOne when no document matches.
var ErrNotFound = errors.New("storage: document not found")

// Filter is a document-store query predicate. The cleanup workflow only
// relies on equality, $in, and dotted array paths; implementations must
// support at least those.
type Filter = bson.M

// Update is a document-store update document ($pull, $set).
type Update = bson.M

// Store is the document-store contract the service runs against.
//
// WithSession runs fn with a causally-consistent session bound to the
// context it passes; every Store call made with that context observes
// the session. A run of the cleanup workflow owns exactly one session.
type Store interface {
	WithSession(ctx context.Context, fn func(ctx context.Context) error) error

	// ListCollections names every collection in the database.
	ListCollections(ctx context.Context) ([]string, error)

	// Find decodes every matching document into out, a pointer to a
	// slice.
	Find(ctx context.Context, collection string, filter Filter, out interface{}) error

	// FindOne decodes the first matching document into out or returns
	// ErrNotFound.
	FindOne(ctx context.Context, collection string, filter Filter, out interface{}) error

	// InsertOne stores one document.
	InsertOne(ctx context.Context, collection string, doc interface{}) error

	// DeleteMany removes every matching document and reports how many
	// were removed. Matching nothing is a no-op, not an error.
	DeleteMany(ctx context.Context, collection string, filter Filter) (int64, error)

	// UpdateMany applies update to every matching document and reports
	// how many were modified.
	UpdateMany(ctx context.Context, collection string, filter Filter, update Update) (int64, error)

	// HealthCheck verifies the backend is reachable.
	HealthCheck(ctx context.Context) error
}

// Config holds document-store connection settings.
type Config struct {
	URL      string
	Database string
	Timeout  time.Duration
}

// DefaultConfig returns sensible defaults for local development.
func DefaultConfig() Config {
	return Config{
		URL:      "mongodb://localhost:27017",
		Database: "tenancy",
		Timeout:  10 * time.Second,
	}
}

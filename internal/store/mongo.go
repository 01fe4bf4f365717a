package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"repost_cleaner_bot/internal/config"
)

// CollectionDocuments holds every named document when the mongo backend is used.
const CollectionDocuments = "documents"

// mongoClient captures the subset of mongo.Client behavior we rely on to allow
// lightweight stubbing in tests without a live Mongo deployment.
type mongoClient interface {
	Ping(context.Context, *readpref.ReadPref) error
	Database(string, ...*options.DatabaseOptions) *mongo.Database
	Disconnect(context.Context) error
}

// connectMongo is overridable for tests.
var connectMongo = func(ctx context.Context, opts *options.ClientOptions) (mongoClient, error) {
	return mongo.Connect(ctx, opts)
}

// createIndexes is overridable for tests.
var createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
	return coll.Indexes().CreateMany(ctx, models)
}

// Manager owns a MongoDB client and the configured database handle.
type Manager struct {
	client mongoClient
	db     *mongo.Database
}

// NewManager initializes the Mongo client using the supplied configuration and
// verifies connectivity with a ping.
func NewManager(ctx context.Context, cfg config.Config) (*Manager, error) {
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	client, err := connectMongo(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return &Manager{
		client: client,
		db:     client.Database(cfg.MongoDB),
	}, nil
}

// Documents returns the documents collection handle.
func (m *Manager) Documents() *mongo.Collection {
	return m.db.Collection(CollectionDocuments)
}

// EnsureBaseIndexes creates the unique name index on the documents collection.
// The collection is created implicitly if it does not already exist.
func (m *Manager) EnsureBaseIndexes(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.db == nil {
		return errors.New("store manager is not initialized")
	}

	documentIndexes := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "name", Value: 1}},
			Options: options.Index().
				SetName("name_unique").
				SetUnique(true),
		},
	}

	if _, err := createIndexes(ctx, m.Documents(), documentIndexes); err != nil {
		return fmt.Errorf("create documents indexes: %w", err)
	}

	return nil
}

// Ping checks connectivity against the primary.
func (m *Manager) Ping(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if m == nil || m.client == nil {
		return errors.New("store manager is not initialized")
	}

	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("ping mongo: %w", err)
	}

	return nil
}

// Close disconnects the Mongo client.
func (m *Manager) Close(ctx context.Context) error {
	if m == nil || m.client == nil {
		return nil
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	return m.client.Disconnect(ctx)
}

type documentCollection interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storedDocument struct {
	Name      string    `bson:"name"`
	Body      string    `bson:"body"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoBackend stores each document as {name, body, updated_at}.
type MongoBackend struct {
	documents documentCollection
	pinger    pinger
}

// NewMongoBackend builds a backend over the documents collection. pinger is
// usually the Manager that owns the collection.
func NewMongoBackend(documents documentCollection, pinger pinger) *MongoBackend {
	return &MongoBackend{
		documents: documents,
		pinger:    pinger,
	}
}

// Read fetches the body for name, or ErrNotFound.
func (b *MongoBackend) Read(ctx context.Context, name string) ([]byte, error) {
	if b == nil || b.documents == nil {
		return nil, errors.New("mongo backend is not initialized")
	}
	if ctx == nil {
		return nil, errors.New("context is required")
	}

	result := b.documents.FindOne(ctx, bson.M{"name": name})
	if result == nil {
		return nil, errors.New("find document returned no result")
	}
	if err := result.Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find document %s: %w", name, err)
	}

	var doc storedDocument
	if err := result.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode document %s: %w", name, err)
	}

	return []byte(doc.Body), nil
}

// Write upserts the body for name.
func (b *MongoBackend) Write(ctx context.Context, name string, data []byte) error {
	if b == nil || b.documents == nil {
		return errors.New("mongo backend is not initialized")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	now := time.Now().UTC().Truncate(time.Millisecond)

	_, err := b.documents.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{
			"$set": bson.M{
				"body":       string(data),
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"name": name},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("write document %s: %w", name, err)
	}

	return nil
}

// Ping delegates to the owning manager.
func (b *MongoBackend) Ping(ctx context.Context) error {
	if b == nil || b.pinger == nil {
		return errors.New("mongo backend is not initialized")
	}

	return b.pinger.Ping(ctx)
}

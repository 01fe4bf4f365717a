package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"repost_cleaner_bot/internal/config"
)

func TestNewManagerConnectsAndExposesCollections(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	cfg := config.Config{
		MongoURI: "mongodb://stub-host:27017",
		MongoDB:  "repost_cleaner_test",
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	manager, err := NewManager(ctx, cfg)
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if manager.Documents().Database().Name() != cfg.MongoDB {
		t.Fatalf("expected database %s, got %s", cfg.MongoDB, manager.Documents().Database().Name())
	}

	if len(fake.databaseRequests) != 1 || fake.databaseRequests[0] != cfg.MongoDB {
		t.Fatalf("expected database request for %s, got %v", cfg.MongoDB, fake.databaseRequests)
	}

	if manager.Documents().Name() != CollectionDocuments {
		t.Fatalf("expected documents collection name %s, got %s", CollectionDocuments, manager.Documents().Name())
	}

	if err := manager.Close(ctx); err != nil {
		t.Fatalf("expected clean disconnect, got %v", err)
	}

	if !fake.disconnectCalled {
		t.Fatalf("expected disconnect to be called")
	}
}

func TestNewManagerFailsOnPingAndCleansUp(t *testing.T) {
	fake := newFakeMongoClient(t)
	fake.pingErr = errors.New("ping failed")

	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewManager(ctx, config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err == nil {
		t.Fatalf("expected ping error")
	}

	if !fake.disconnectCalled {
		t.Fatalf("expected disconnect after ping failure")
	}
}

func TestNewManagerPropagatesConnectError(t *testing.T) {
	restore := stubConnect(nil, errors.New("connect failed"))
	t.Cleanup(restore)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err := NewManager(ctx, config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err == nil {
		t.Fatalf("expected connection error")
	}
}

func TestNewManagerValidatesContext(t *testing.T) {
	_, err := NewManager(nil, config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestManagerCloseRequiresContext(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if err := manager.Close(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestManagerPingChecksConnectivity(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := manager.Ping(ctx); err != nil {
		t.Fatalf("expected ping to succeed, got error: %v", err)
	}

	if fake.pingCalls < 2 {
		t.Fatalf("expected ping to be invoked at least twice (init + explicit), got %d", fake.pingCalls)
	}
	if fake.lastReadPref != "primary" {
		t.Fatalf("expected ping to use primary read preference, got %q", fake.lastReadPref)
	}
}

func TestManagerPingPropagatesErrors(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	errPing := errors.New("ping failed")
	fake.pingErr = errPing

	if err := manager.Ping(context.Background()); err == nil {
		t.Fatalf("expected ping to fail")
	} else if !errors.Is(err, errPing) {
		t.Fatalf("expected ping error to wrap ping failed, got %v", err)
	}
}

func TestManagerPingValidatesContext(t *testing.T) {
	fake := newFakeMongoClient(t)
	restore := stubConnect(fake, nil)
	t.Cleanup(restore)

	manager, err := NewManager(context.Background(), config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if err := manager.Ping(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestEnsureBaseIndexesCreatesUniqueNameIndex(t *testing.T) {
	fake := newFakeMongoClient(t)
	restoreConnect := stubConnect(fake, nil)
	t.Cleanup(restoreConnect)

	manager, err := NewManager(context.Background(), config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	recorder := newIndexRecorder(t, "")
	restoreIndexes := recorder.stub()
	t.Cleanup(restoreIndexes)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	if err := manager.EnsureBaseIndexes(ctx); err != nil {
		t.Fatalf("expected indexes to be created, got error: %v", err)
	}

	if len(recorder.calls) != 1 {
		t.Fatalf("expected 1 index creation call, got %d", len(recorder.calls))
	}

	call := recorder.calls[0]
	if call.collection != CollectionDocuments {
		t.Fatalf("expected collection %s, got %s", CollectionDocuments, call.collection)
	}
	assertUniqueIndex(t, call.models, "name", "name_unique")
}

func TestEnsureBaseIndexesPropagatesErrors(t *testing.T) {
	fake := newFakeMongoClient(t)
	restoreConnect := stubConnect(fake, nil)
	t.Cleanup(restoreConnect)

	manager, err := NewManager(context.Background(), config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	recorder := newIndexRecorder(t, CollectionDocuments)
	restoreIndexes := recorder.stub()
	t.Cleanup(restoreIndexes)

	err = manager.EnsureBaseIndexes(context.Background())
	if err == nil {
		t.Fatalf("expected error from index creation")
	}
	if !errors.Is(err, errIndexFailure) {
		t.Fatalf("expected error to wrap index failure, got %v", err)
	}
}

func TestEnsureBaseIndexesValidatesContext(t *testing.T) {
	fake := newFakeMongoClient(t)
	restoreConnect := stubConnect(fake, nil)
	t.Cleanup(restoreConnect)

	manager, err := NewManager(context.Background(), config.Config{MongoURI: "mongodb://stub", MongoDB: "repost_cleaner_test"})
	if err != nil {
		t.Fatalf("expected manager to initialize, got error: %v", err)
	}

	if err := manager.EnsureBaseIndexes(nil); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

type fakeMongoClient struct {
	client           *mongo.Client
	pingErr          error
	disconnectErr    error
	disconnectCalled bool
	databaseRequests []string
	pingCalls        int
	lastReadPref     string
}

func newFakeMongoClient(t *testing.T) *fakeMongoClient {
	t.Helper()

	client, err := mongo.NewClient(options.Client().ApplyURI("mongodb://example.com:27017"))
	if err != nil {
		t.Fatalf("failed to build fake client: %v", err)
	}

	return &fakeMongoClient{client: client}
}

func (f *fakeMongoClient) Ping(_ context.Context, rp *readpref.ReadPref) error {
	f.pingCalls++
	if rp != nil {
		f.lastReadPref = rp.String()
	}
	return f.pingErr
}

func (f *fakeMongoClient) Database(name string, opts ...*options.DatabaseOptions) *mongo.Database {
	f.databaseRequests = append(f.databaseRequests, name)
	return f.client.Database(name, opts...)
}

func (f *fakeMongoClient) Disconnect(context.Context) error {
	f.disconnectCalled = true
	return f.disconnectErr
}

func stubConnect(fake mongoClient, err error) func() {
	prev := connectMongo
	connectMongo = func(context.Context, *options.ClientOptions) (mongoClient, error) {
		return fake, err
	}

	return func() {
		connectMongo = prev
	}
}

var errIndexFailure = errors.New("index failure")

type indexCall struct {
	collection string
	models     []mongo.IndexModel
}

type indexRecorder struct {
	t               *testing.T
	calls           []indexCall
	errorCollection string
}

func newIndexRecorder(t *testing.T, errorCollection string) *indexRecorder {
	t.Helper()
	return &indexRecorder{t: t, errorCollection: errorCollection}
}

func (r *indexRecorder) stub() func() {
	prev := createIndexes
	createIndexes = func(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) ([]string, error) {
		r.calls = append(r.calls, indexCall{collection: coll.Name(), models: models})
		if r.errorCollection == coll.Name() {
			return nil, errIndexFailure
		}
		return []string{coll.Name() + "_idx"}, nil
	}

	return func() {
		createIndexes = prev
	}
}

func assertUniqueIndex(t *testing.T, models []mongo.IndexModel, key, name string) {
	t.Helper()

	if len(models) != 1 {
		t.Fatalf("expected 1 index model, got %d", len(models))
	}

	keysDoc, ok := models[0].Keys.(bson.D)
	if !ok {
		t.Fatalf("expected bson.D keys, got %T", models[0].Keys)
	}

	if len(keysDoc) != 1 || keysDoc[0].Key != key {
		t.Fatalf("expected index key %s, got %v", key, keysDoc)
	}

	if models[0].Options == nil || models[0].Options.Unique == nil || !*models[0].Options.Unique {
		t.Fatalf("expected unique option for %s", key)
	}

	if models[0].Options.Name == nil || *models[0].Options.Name != name {
		t.Fatalf("expected index name %s, got %v", name, models[0].Options.Name)
	}
}

func TestMongoBackendReadReturnsBody(t *testing.T) {
	coll := &fakeDocumentCollection{
		findDoc: bson.M{"name": "users.json", "body": "{\"1\": \"x\"}", "updated_at": time.Now()},
	}
	backend := NewMongoBackend(coll, nil)

	data, err := backend.Read(context.Background(), "users.json")
	if err != nil {
		t.Fatalf("expected read to succeed, got %v", err)
	}
	if string(data) != `{"1": "x"}` {
		t.Fatalf("unexpected body %q", data)
	}

	filter, ok := coll.lastFindFilter.(bson.M)
	if !ok || filter["name"] != "users.json" {
		t.Fatalf("expected filter on name, got %v", coll.lastFindFilter)
	}
}

func TestMongoBackendReadMapsNoDocuments(t *testing.T) {
	backend := NewMongoBackend(&fakeDocumentCollection{findErr: mongo.ErrNoDocuments}, nil)

	_, err := backend.Read(context.Background(), "tickets.json")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMongoBackendReadWrapsOtherErrors(t *testing.T) {
	boom := errors.New("server selection timeout")
	backend := NewMongoBackend(&fakeDocumentCollection{findErr: boom}, nil)

	_, err := backend.Read(context.Background(), "tickets.json")
	if err == nil || errors.Is(err, ErrNotFound) || !errors.Is(err, boom) {
		t.Fatalf("expected wrapped find error, got %v", err)
	}
}

func TestMongoBackendWriteUpserts(t *testing.T) {
	coll := &fakeDocumentCollection{}
	backend := NewMongoBackend(coll, nil)

	if err := backend.Write(context.Background(), "welcome.txt", []byte("hello")); err != nil {
		t.Fatalf("expected write to succeed, got %v", err)
	}

	if len(coll.updates) != 1 {
		t.Fatalf("expected one update, got %d", len(coll.updates))
	}
	call := coll.updates[0]

	filter, ok := call.filter.(bson.M)
	if !ok || filter["name"] != "welcome.txt" {
		t.Fatalf("expected filter on name, got %v", call.filter)
	}

	update, ok := call.update.(bson.M)
	if !ok {
		t.Fatalf("expected bson.M update, got %T", call.update)
	}
	set, ok := update["$set"].(bson.M)
	if !ok || set["body"] != "hello" {
		t.Fatalf("expected body in $set, got %v", update["$set"])
	}
	if _, ok := set["updated_at"].(time.Time); !ok {
		t.Fatalf("expected updated_at timestamp, got %v", set["updated_at"])
	}

	if len(call.opts) != 1 || call.opts[0].Upsert == nil || !*call.opts[0].Upsert {
		t.Fatalf("expected upsert option, got %v", call.opts)
	}
}

func TestMongoBackendValidatesInitialization(t *testing.T) {
	var backend *MongoBackend

	if _, err := backend.Read(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for nil backend read")
	}
	if err := backend.Write(context.Background(), "x", nil); err == nil {
		t.Fatalf("expected error for nil backend write")
	}
	if err := backend.Ping(context.Background()); err == nil {
		t.Fatalf("expected error for nil backend ping")
	}
	if _, err := NewMongoBackend(&fakeDocumentCollection{}, nil).Read(nil, "x"); err == nil {
		t.Fatalf("expected error for nil context")
	}
}

func TestMongoBackendPingDelegates(t *testing.T) {
	errPing := errors.New("down")
	backend := NewMongoBackend(&fakeDocumentCollection{}, stubPinger{err: errPing})

	if err := backend.Ping(context.Background()); !errors.Is(err, errPing) {
		t.Fatalf("expected ping error, got %v", err)
	}
}

type stubPinger struct {
	err error
}

func (s stubPinger) Ping(context.Context) error {
	return s.err
}

type documentUpdateCall struct {
	filter interface{}
	update interface{}
	opts   []*options.UpdateOptions
}

type fakeDocumentCollection struct {
	findDoc        interface{}
	findErr        error
	lastFindFilter interface{}
	updates        []documentUpdateCall
	updateErr      error
}

func (f *fakeDocumentCollection) FindOne(_ context.Context, filter interface{}, _ ...*options.FindOneOptions) *mongo.SingleResult {
	f.lastFindFilter = filter
	doc := f.findDoc
	if doc == nil {
		doc = bson.M{}
	}
	return mongo.NewSingleResultFromDocument(doc, f.findErr, nil)
}

func (f *fakeDocumentCollection) UpdateOne(_ context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	f.updates = append(f.updates, documentUpdateCall{filter: filter, update: update, opts: opts})
	return &mongo.UpdateResult{UpsertedCount: 1}, f.updateErr
}

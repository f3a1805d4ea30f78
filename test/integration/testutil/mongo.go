package testutil

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	mongoMigration "opacbookings/internal/migrations/mongo"
	"opacbookings/pkg/logger"
)

const (
	DefaultDatabaseName = "opacbookings_test"
	opTimeout           = 10 * time.Second
)

// MongoHelper owns a connection to the catalog database under test.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T, uri, dbName string) *MongoHelper {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	require.NoError(t, err, "connect to %s", uri)
	require.NoError(t, client.Ping(ctx, nil), "ping %s", uri)

	return &MongoHelper{Client: client, Database: client.Database(dbName)}
}

// Reset drops every collection and recreates indexes and validators, so
// unique keys and the booking schema hold during the test.
func (m *MongoHelper) Reset(t *testing.T) {
	t.Helper()
	m.DropAll(t)

	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	err := mongoMigration.RunMigration(ctx, m.Client, m.Database.Name(), logger.NewNop())
	require.NoError(t, err, "migrate %s", m.Database.Name())
}

func (m *MongoHelper) DropAll(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	names, err := m.Database.ListCollectionNames(ctx, bson.M{})
	require.NoError(t, err)
	for _, name := range names {
		if strings.HasPrefix(name, "system.") {
			continue
		}
		require.NoError(t, m.Database.Collection(name).Drop(ctx), "drop %s", name)
	}
}

func (m *MongoHelper) Seed(t *testing.T, collection string, docs ...any) {
	t.Helper()
	if len(docs) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	_, err := m.Database.Collection(collection).InsertMany(ctx, docs)
	require.NoError(t, err, "seed %s", collection)
}

// Count returns how many documents in collection match filter.
func (m *MongoHelper) Count(t *testing.T, collection string, filter bson.M) int64 {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	n, err := m.Database.Collection(collection).CountDocuments(ctx, filter)
	require.NoError(t, err, "count %s", collection)
	return n
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("mongo disconnect: %v", err)
	}
}

// Package testutil drives a running bookings service and its Mongo catalog
// from integration tests.
package testutil

import (
	"os"
	"testing"
	"time"
)

// TestEnv is read from TEST_* variables so the suite can point at any
// deployment started with CATALOG_BACKEND=mongo.
type TestEnv struct {
	MongoURI      string
	DatabaseName  string
	ServerURL     string
	ReadyDeadline time.Duration
}

func NewTestEnv() *TestEnv {
	env := &TestEnv{
		MongoURI:      envOr("TEST_MONGO_URI", "mongodb://localhost:27017"),
		DatabaseName:  envOr("TEST_DB_NAME", DefaultDatabaseName),
		ServerURL:     envOr("TEST_SERVER_URL", "http://localhost:"+envOr("TEST_SERVER_PORT", "8080")),
		ReadyDeadline: 30 * time.Second,
	}
	if d, err := time.ParseDuration(os.Getenv("TEST_READY_DEADLINE")); err == nil {
		env.ReadyDeadline = d
	}
	return env
}

// Setup empties and re-indexes the catalog, then waits until the service
// reports ready.
func (e *TestEnv) Setup(t *testing.T) (*MongoHelper, *Client) {
	t.Helper()

	db := NewMongoHelper(t, e.MongoURI, e.DatabaseName)
	db.Reset(t)

	client := NewClient(e.ServerURL)
	client.WaitForReady(t, e.ReadyDeadline)
	return db, client
}

func (e *TestEnv) Cleanup(t *testing.T, db *MongoHelper) {
	t.Helper()
	if db == nil {
		return
	}
	db.DropAll(t)
	db.Close(t)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

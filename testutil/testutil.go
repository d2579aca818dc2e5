// Package testutil wires controller tests to a real MongoDB instance.
// Tests are skipped when MONGO_TEST_URI is not set, so the unit suite
// stays runnable without infrastructure.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	config "github.com/huddle/eventify-go/config"
)

// TestContext returns a context with the default test deadline.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 10*time.Second)
}

// SetupTestConfig connects to the test database and returns a Config
// pointed at a per-test database that is dropped on cleanup.
func SetupTestConfig(t *testing.T) *config.Config {
	t.Helper()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set; skipping database test")
	}

	ctx, cancel := TestContext()
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo connect: %v", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		t.Fatalf("mongo ping: %v", err)
	}

	cfg := &config.Config{
		Env:         "development",
		AppBaseURL:  "http://localhost:5173",
		MongoClient: client,
		DBName:      fmt.Sprintf("eventify_test_%d", time.Now().UnixNano()),
		JWTSecret:   "test-secret",
		JWTTTL:      time.Hour,
	}

	if err := cfg.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = cfg.DB().Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return cfg
}

func init() {
	gin.SetMode(gin.TestMode)
}

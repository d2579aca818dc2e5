package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/huddle/eventify-go/config"
	models "github.com/huddle/eventify-go/models"
	routes "github.com/huddle/eventify-go/routes"
	"github.com/huddle/eventify-go/testutil"
)

func testContext() (context.Context, context.CancelFunc) {
	return testutil.TestContext()
}

// newTestServer wires the full route table against a throwaway database.
func newTestServer(t *testing.T) (*config.Config, *gin.Engine, *testutil.Fixtures) {
	t.Helper()

	cfg := testutil.SetupTestConfig(t)

	r := gin.New()
	routes.SetupRoutes(r, cfg)

	return cfg, r, testutil.NewFixtures(t, cfg)
}

// doJSON performs a JSON request, attaching the bearer token when set.
func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// doJSONWithHeaders is doJSON plus extra request headers.
func doJSONWithHeaders(t *testing.T, r *gin.Engine, method, path, token string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

// decodeBody unmarshals a response recorder's JSON body into out.
func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

func hexIDs(ids []primitive.ObjectID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.Hex()
	}
	return out
}

func inviteExpiry() time.Time {
	return time.Now().Add(models.InviteTTL)
}

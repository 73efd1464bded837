// Package apptest runs the API against a real store for end to end tests.
// Each Harness owns its own server and storage handle.
package apptest

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/api"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/database"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/seed"
	"github.com/stretchr/testify/require"
)

// DefaultConnectionString is used when neither the caller nor TEST_DATABASE_URL name a store
const DefaultConnectionString = "memory://"

type Harness struct {
	URL    string
	Store  database.BlogPostStore
	Client *http.Client

	t        testing.TB
	db       database.Database
	server   *httptest.Server
	stopOnce sync.Once
}

// ConnectionString resolves the store a test should run against
func ConnectionString(connectionString string) string {
	if connectionString != "" {
		return connectionString
	}
	if env := os.Getenv("TEST_DATABASE_URL"); env != "" {
		return env
	}
	return DefaultConnectionString
}

// Start opens the store named by connectionString, starts the API in front of
// it and registers Stop as a test cleanup
func Start(t testing.TB, connectionString string) *Harness {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(ctx, ConnectionString(connectionString), database.WithGormLogLevel("silent"))
	require.NoError(t, err, "opening test database")

	handler := api.NewHandler(db, map[string]string{}, api.WithAccessLog(io.Discard))
	server := httptest.NewServer(handler)

	h := &Harness{
		URL:    server.URL,
		Store:  db.BlogPostRepo(),
		Client: server.Client(),
		t:      t,
		db:     db,
		server: server,
	}
	t.Cleanup(h.Stop)
	return h
}

// Stop drops the test data, closes the server and releases the store
func (h *Harness) Stop() {
	h.stopOnce.Do(func() {
		h.server.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := h.Store.Drop(ctx); err != nil {
			h.t.Logf("dropping test data: %v", err)
		}
		if err := h.db.Close(ctx); err != nil {
			h.t.Logf("closing test database: %v", err)
		}
	})
}

// TearDownDatabase drops the whole collection
func (h *Harness) TearDownDatabase() {
	h.t.Helper()
	require.NoError(h.t, seed.TearDown(context.Background(), h.Store))
}

// Seed inserts n generated posts
func (h *Harness) Seed(n int) []*models.BlogPost {
	h.t.Helper()
	posts, err := seed.Seed(context.Background(), h.Store, n)
	require.NoError(h.t, err)
	return posts
}

// Do sends body as JSON, or no body when it is nil
func (h *Harness) Do(method, path string, body any) *http.Response {
	h.t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, h.URL+path, reader)
	require.NoError(h.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := h.Client.Do(req)
	require.NoError(h.t, err)
	h.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// DecodeJSON reads resp's body into dst
func (h *Harness) DecodeJSON(resp *http.Response, dst any) {
	h.t.Helper()
	require.NoError(h.t, json.NewDecoder(resp.Body).Decode(dst))
}

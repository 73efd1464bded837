package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/database"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/seed"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	t       *testing.T
	store   *database.MemoryBlogPostRepo
	handler http.Handler
}

func newTestApp(t *testing.T, c map[string]string) *testApp {
	store := database.NewMemoryBlogPostRepo()
	return &testApp{
		t:       t,
		store:   store,
		handler: NewHandler(database.New(store), c, WithAccessLog(io.Discard)),
	}
}

func (a *testApp) request(method, path string, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testApp) json(method, path string, payload any) *httptest.ResponseRecorder {
	raw, err := json.Marshal(payload)
	require.NoError(a.t, err)
	return a.request(method, path, string(raw))
}

func (a *testApp) seed(n int) []*models.BlogPost {
	posts, err := seed.NewGenerator(1).Seed(context.Background(), a.store, n)
	require.NoError(a.t, err)
	return posts
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	var out ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "error", out.Status)
	return out
}

func TestListReturnsSerializedPosts(t *testing.T) {
	app := newTestApp(t, nil)
	posts := app.seed(4)

	rec := app.request(http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var out BlogPostCollection
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out.Posts, 4)
	for i, view := range out.Posts {
		assert.Equal(t, posts[i].ID, view.ID)
		assert.Equal(t, posts[i].Author.DisplayName(), view.Author)
	}
}

func TestListEmptyIsArray(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.request(http.MethodGet, "/posts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"posts":[]}`, rec.Body.String())
}

func TestGetUnknownPostIsNotFound(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.request(http.MethodGet, "/posts/does-not-exist", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	out := decodeError(t, rec)
	assert.Contains(t, out.Error, "not found")
}

func TestCreateValidation(t *testing.T) {
	cases := []struct {
		name  string
		body  string
		field string
	}{
		{"no author", `{"title":"T","content":"C"}`, "author"},
		{"no first name", `{"author":{"lastName":"B"},"title":"T","content":"C"}`, "author.firstName"},
		{"blank last name", `{"author":{"firstName":"A","lastName":"  "},"title":"T","content":"C"}`, "author.lastName"},
		{"no title", `{"author":{"firstName":"A","lastName":"B"},"content":"C"}`, "title"},
		{"no content", `{"author":{"firstName":"A","lastName":"B"},"title":"T"}`, "content"},
		{"not json", `{"author":`, "json"},
		{"empty body", ``, "json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			app := newTestApp(t, nil)
			rec := app.request(http.MethodPost, "/posts", tc.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tc.field, decodeError(t, rec).Field)

			count, err := app.store.Count(context.Background())
			require.NoError(t, err)
			assert.Zero(t, count)
		})
	}
}

func TestCreateReturnsCreatedView(t *testing.T) {
	app := newTestApp(t, nil)

	rec := app.request(http.MethodPost, "/posts", `{"author":{"firstName":" A ","lastName":"B"},"title":"T","content":"C"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")

	var view models.BlogPostView
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&view))
	assert.NotEmpty(t, view.ID)
	assert.Equal(t, "A B", view.Author)
	assert.Equal(t, "/posts/"+view.ID, rec.Header().Get("Location"))
}

func TestCreateRejectsOversizedBody(t *testing.T) {
	app := newTestApp(t, nil)

	big := bytes.Repeat([]byte("x"), int(maxRequestBodySize)+1)
	body := `{"author":{"firstName":"A","lastName":"B"},"title":"T","content":"` + string(big) + `"}`
	rec := app.request(http.MethodPost, "/posts", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestInvalidJSONIsLoggedWithoutBody(t *testing.T) {
	var logs bytes.Buffer
	previous := log.Logger
	log.Logger = zerolog.New(&logs)
	t.Cleanup(func() { log.Logger = previous })

	app := newTestApp(t, nil)
	secret := strings.Repeat("s3cr3t", 100)
	rec := app.request(http.MethodPost, "/posts", `{"title":"`+secret)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Contains(t, logs.String(), `"level":"warn"`)
	assert.Contains(t, logs.String(), `"bodySize":610`)
	assert.NotContains(t, logs.String(), "s3cr3t")
	assert.NotContains(t, logs.String(), `"level":"error"`)
}

func TestUpdatePartialFields(t *testing.T) {
	app := newTestApp(t, nil)
	post := app.seed(1)[0]
	before := *post

	rec := app.json(http.MethodPut, "/posts/"+post.ID, map[string]any{
		"author": map[string]string{"lastName": "Renamed"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())

	stored, err := app.store.FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Title, stored.Title)
	assert.Equal(t, before.Content, stored.Content)
	assert.Equal(t, before.Author.FirstName, stored.Author.FirstName)
	assert.Equal(t, "Renamed", stored.Author.LastName)
	assert.Equal(t, before.Created, stored.Created)
}

func TestUpdateErrors(t *testing.T) {
	app := newTestApp(t, nil)
	post := app.seed(1)[0]

	cases := []struct {
		name   string
		path   string
		body   string
		status int
		field  string
	}{
		{"unknown id", "/posts/missing", `{"title":"x"}`, http.StatusNotFound, ""},
		{"id mismatch", "/posts/" + post.ID, `{"id":"other","title":"x"}`, http.StatusBadRequest, "id"},
		{"nothing to update", "/posts/" + post.ID, `{"id":"` + post.ID + `"}`, http.StatusBadRequest, "body"},
		{"blank title", "/posts/" + post.ID, `{"title":" "}`, http.StatusBadRequest, "title"},
		{"blank first name", "/posts/" + post.ID, `{"author":{"firstName":""}}`, http.StatusBadRequest, "author.firstName"},
		{"bad json", "/posts/" + post.ID, `[`, http.StatusBadRequest, "json"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := app.request(http.MethodPut, tc.path, tc.body)
			require.Equal(t, tc.status, rec.Code, rec.Body.String())
			out := decodeError(t, rec)
			if tc.field != "" {
				assert.Equal(t, tc.field, out.Field)
			}
		})
	}

	stored, err := app.store.FindByID(context.Background(), post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.Title, stored.Title)
}

func TestDeleteIsIdempotent(t *testing.T) {
	app := newTestApp(t, nil)
	posts := app.seed(3)

	for i := 0; i < 2; i++ {
		rec := app.request(http.MethodDelete, "/posts/"+posts[0].ID, "")
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
	}

	assert.Equal(t, http.StatusNotFound, app.request(http.MethodGet, "/posts/"+posts[0].ID, "").Code)
	count, err := app.store.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

type failingStore struct {
	database.BlogPostStore
	err error
}

func (s failingStore) FindAll(context.Context) ([]*models.BlogPost, error) {
	return nil, s.err
}

func TestStoreFailuresBecomeServerErrors(t *testing.T) {
	cases := []struct {
		err        error
		status     int
		retryAfter string
	}{
		{errors.New("boom"), http.StatusInternalServerError, ""},
		{errors.New("connection refused"), http.StatusServiceUnavailable, "5"},
		{context.DeadlineExceeded, http.StatusGatewayTimeout, "5"},
	}

	for _, tc := range cases {
		store := failingStore{BlogPostStore: database.NewMemoryBlogPostRepo(), err: tc.err}
		handler := NewHandler(database.New(store), nil, WithAccessLog(io.Discard))

		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/posts", nil))
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Equal(t, tc.retryAfter, rec.Header().Get("Retry-After"), tc.err.Error())
	}
}

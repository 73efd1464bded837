package database

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/errs"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func newPost(first, last, title string) *models.BlogPost {
	return &models.BlogPost{
		Author:  models.Author{FirstName: first, LastName: last},
		Title:   title,
		Content: title + " body",
	}
}

// storeFactory returns a fresh, empty store for one test
type storeFactory func(t *testing.T) BlogPostStore

func runStoreSuite(t *testing.T, newStore storeFactory) {
	t.Run("add assigns id and created", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		post := newPost("Ada", "Lovelace", "Engines")
		require.NoError(t, store.Add(ctx, post))
		assert.NotEmpty(t, post.ID)
		assert.False(t, post.Created.IsZero())

		got, err := store.FindByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, post.ID, got.ID)
		assert.Equal(t, post.Author, got.Author)
		assert.Equal(t, "Engines", got.Title)
		assert.WithinDuration(t, post.Created, got.Created, time.Millisecond)
	})

	t.Run("insert many and find all", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		posts := []*models.BlogPost{newPost("A", "One", "first"), newPost("B", "Two", "second"), newPost("C", "Three", "third")}
		require.NoError(t, store.InsertMany(ctx, posts))
		require.NoError(t, store.InsertMany(ctx, nil))

		all, err := store.FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 3, count)

		ids := map[string]bool{}
		for _, p := range all {
			ids[p.ID] = true
		}
		for _, p := range posts {
			assert.True(t, ids[p.ID], "missing %s", p.ID)
		}
	})

	t.Run("find all on empty store", func(t *testing.T) {
		store := newStore(t)
		all, err := store.FindAll(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, all)
		assert.Empty(t, all)
	})

	t.Run("update changes only patched fields", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		post := newPost("Old", "Author", "old title")
		require.NoError(t, store.Add(ctx, post))

		err := store.Update(ctx, post.ID, models.BlogPostPatch{
			Title:           strPtr("new title"),
			AuthorFirstName: strPtr("New"),
		})
		require.NoError(t, err)

		got, err := store.FindByID(ctx, post.ID)
		require.NoError(t, err)
		assert.Equal(t, "new title", got.Title)
		assert.Equal(t, "old title body", got.Content)
		assert.Equal(t, models.Author{FirstName: "New", LastName: "Author"}, got.Author)
		assert.WithinDuration(t, post.Created, got.Created, time.Millisecond)
	})

	t.Run("update unknown id is not found", func(t *testing.T) {
		store := newStore(t)
		err := store.Update(context.Background(), missingID(store), models.BlogPostPatch{Title: strPtr("x")})
		assert.True(t, errs.IsNotFound(err), "got %v", err)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		keep := newPost("K", "Eep", "keep")
		gone := newPost("G", "One", "gone")
		require.NoError(t, store.InsertMany(ctx, []*models.BlogPost{keep, gone}))

		require.NoError(t, store.Delete(ctx, gone.ID))
		require.NoError(t, store.Delete(ctx, gone.ID))

		_, err := store.FindByID(ctx, gone.ID)
		assert.True(t, errs.IsNotFound(err), "got %v", err)

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)

		_, err = store.FindByID(ctx, keep.ID)
		assert.NoError(t, err)
	})

	t.Run("drop empties the collection", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.InsertMany(ctx, []*models.BlogPost{newPost("A", "B", "t1"), newPost("C", "D", "t2")}))
		require.NoError(t, store.Drop(ctx))

		count, err := store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 0, count)

		require.NoError(t, store.Add(ctx, newPost("E", "F", "after drop")))
		count, err = store.Count(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 1, count)
	})
}

// missingID returns an id in the format the store uses that no record has
func missingID(store BlogPostStore) string {
	if _, ok := store.(*MongoBlogPostRepo); ok {
		return "65f000000000000000000000"
	}
	return "00000000-0000-4000-8000-000000000000"
}

func TestMemoryBlogPostRepo(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) BlogPostStore {
		return NewMemoryBlogPostRepo()
	})
}

func TestMemoryBlogPostRepoReturnsCopies(t *testing.T) {
	store := NewMemoryBlogPostRepo()
	ctx := context.Background()

	post := newPost("A", "B", "original")
	require.NoError(t, store.Add(ctx, post))
	post.Title = "mutated after insert"

	got, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	got.Title = "mutated after read"

	again, err := store.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
}

func TestMemoryBlogPostRepoKeepsInsertionOrder(t *testing.T) {
	store := NewMemoryBlogPostRepo()
	ctx := context.Background()

	var want []string
	for _, title := range []string{"a", "b", "c", "d"} {
		p := newPost("X", "Y", title)
		require.NoError(t, store.Add(ctx, p))
		want = append(want, p.ID)
	}

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	var got []string
	for _, p := range all {
		got = append(got, p.ID)
	}
	assert.Equal(t, want, got)
}

func TestExternalStores(t *testing.T) {
	for _, key := range []string{"TEST_DATABASE_URL", "TEST_POSTGRES_URL"} {
		connectionString := os.Getenv(key)
		t.Run(key, func(t *testing.T) {
			if connectionString == "" {
				t.Skipf("%s not set", key)
			}
			runStoreSuite(t, func(t *testing.T) BlogPostStore {
				ctx := context.Background()
				db, err := Open(ctx, connectionString, WithMongoCollection("blogposts_store_test"))
				require.NoError(t, err)
				store := db.BlogPostRepo()
				require.NoError(t, store.Drop(ctx))
				t.Cleanup(func() {
					_ = store.Drop(ctx)
					_ = db.Close(ctx)
				})
				return store
			})
		})
	}
}

func TestOpenMemory(t *testing.T) {
	db, err := Open(context.Background(), "memory://")
	require.NoError(t, err)
	_, ok := db.BlogPostRepo().(*MemoryBlogPostRepo)
	assert.True(t, ok)
	assert.NoError(t, db.Close(context.Background()))
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	_, err := Open(context.Background(), "redis://localhost:6379")
	require.Error(t, err)
	assert.True(t, errs.IsUnsupportedBackendError(err))
	assert.True(t, strings.Contains(err.Error(), "redis"))
}

func TestGormRepoTreatsMalformedIDAsMissing(t *testing.T) {
	repo := NewBlogPostRepo(nil)
	ctx := context.Background()

	_, err := repo.FindByID(ctx, "not-a-uuid")
	assert.True(t, errs.IsNotFound(err))
	assert.True(t, errs.IsNotFound(repo.Update(ctx, "not-a-uuid", models.BlogPostPatch{Title: strPtr("x")})))
	assert.NoError(t, repo.Delete(ctx, "not-a-uuid"))
}

func TestGormLogLevel(t *testing.T) {
	assert.Equal(t, gormLogLevel("warn"), gormLogLevel(""))
	assert.NotEqual(t, gormLogLevel("silent"), gormLogLevel("info"))
}

func TestSupabaseDSN(t *testing.T) {
	dsn := SupabaseDSN("db.example.co", "postgres", "secret", "blog", "5432")
	assert.Equal(t, "host=db.example.co user=postgres password=secret dbname=blog port=5432 sslmode=require", dsn)
}

func TestIsKeywordDSN(t *testing.T) {
	assert.True(t, isKeywordDSN("host=localhost user=app dbname=blog"))
	assert.False(t, isKeywordDSN("postgres://host=weird@localhost/blog"))
	assert.False(t, isKeywordDSN("memory://"))
}

package database

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/google/uuid"
)

type memoryEntry struct {
	seq  uint64
	post models.BlogPost
}

// MemoryBlogPostRepo is an in-process store, mostly for tests
type MemoryBlogPostRepo struct {
	mu      sync.RWMutex
	nextSeq uint64
	posts   map[string]memoryEntry
}

var _ BlogPostStore = (*MemoryBlogPostRepo)(nil)

func NewMemoryBlogPostRepo() *MemoryBlogPostRepo {
	return &MemoryBlogPostRepo{
		posts: make(map[string]memoryEntry),
	}
}

func (r *MemoryBlogPostRepo) FindAll(_ context.Context) ([]*models.BlogPost, error) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]memoryEntry, 0, len(r.posts))
	for _, e := range r.posts {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq < entries[j].seq })

	out := make([]*models.BlogPost, 0, len(entries))
	for _, e := range entries {
		post := e.post
		out = append(out, &post)
	}
	return out, nil
}

func (r *MemoryBlogPostRepo) FindByID(_ context.Context, id string) (*models.BlogPost, error) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.posts[id]
	if !ok {
		return nil, notFound(id)
	}
	post := e.post
	return &post, nil
}

func (r *MemoryBlogPostRepo) Add(_ context.Context, blogPost *models.BlogPost) error {

	r.mu.Lock()
	defer r.mu.Unlock()

	r.insertLocked(blogPost)
	return nil
}

func (r *MemoryBlogPostRepo) InsertMany(_ context.Context, blogPosts []*models.BlogPost) error {

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, blogPost := range blogPosts {
		r.insertLocked(blogPost)
	}
	return nil
}

func (r *MemoryBlogPostRepo) insertLocked(blogPost *models.BlogPost) {
	if blogPost.ID == "" {
		blogPost.ID = uuid.NewString()
	}
	if blogPost.Created.IsZero() {
		blogPost.Created = time.Now().UTC()
	}
	r.nextSeq++
	r.posts[blogPost.ID] = memoryEntry{seq: r.nextSeq, post: *blogPost}
}

func (r *MemoryBlogPostRepo) Update(_ context.Context, id string, patch models.BlogPostPatch) error {

	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.posts[id]
	if !ok {
		return notFound(id)
	}
	patch.Apply(&e.post)
	r.posts[id] = e
	return nil
}

func (r *MemoryBlogPostRepo) Delete(_ context.Context, id string) error {

	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.posts, id)
	return nil
}

func (r *MemoryBlogPostRepo) Count(_ context.Context) (int64, error) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	return int64(len(r.posts)), nil
}

func (r *MemoryBlogPostRepo) Drop(_ context.Context) error {

	r.mu.Lock()
	defer r.mu.Unlock()

	r.posts = make(map[string]memoryEntry)
	return nil
}

func (r *MemoryBlogPostRepo) Close(_ context.Context) error {
	return nil
}

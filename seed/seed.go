// Package seed generates synthetic blog posts and loads them into a store.
package seed

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/database"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/rs/zerolog/log"
)

// Payload is the create request body for a generated post
type Payload struct {
	Author  models.Author `json:"author"`
	Title   string        `json:"title"`
	Content string        `json:"content"`
}

// Generator produces random blog posts. It is safe for concurrent use.
type Generator struct {
	mu    sync.Mutex
	faker *gofakeit.Faker
}

// NewGenerator returns a generator whose output is fixed by seed. A zero seed
// draws a random one.
func NewGenerator(seed uint64) *Generator {
	return &Generator{faker: gofakeit.New(seed)}
}

var defaultGenerator = NewGenerator(0)

// GenerateBlogPost returns a post with a random author, title and body
func GenerateBlogPost() models.BlogPost {
	return defaultGenerator.BlogPost()
}

func (g *Generator) BlogPost() models.BlogPost {
	g.mu.Lock()
	defer g.mu.Unlock()

	return models.BlogPost{
		Author: models.Author{
			FirstName: g.faker.FirstName(),
			LastName:  g.faker.LastName(),
		},
		Title:   strings.TrimSuffix(g.faker.Sentence(g.faker.Number(3, 8)), "."),
		Content: g.faker.Paragraph(g.faker.Number(1, 3), 4, 12, "\n\n"),
	}
}

func (g *Generator) BlogPosts(n int) []*models.BlogPost {
	posts := make([]*models.BlogPost, 0, n)
	for i := 0; i < n; i++ {
		post := g.BlogPost()
		posts = append(posts, &post)
	}
	return posts
}

func (g *Generator) Payload() Payload {
	post := g.BlogPost()
	return Payload{
		Author:  post.Author,
		Title:   post.Title,
		Content: post.Content,
	}
}

// Seed inserts n generated posts with a single bulk insert and returns them
// with their store assigned ids
func Seed(ctx context.Context, store database.BlogPostStore, n int) ([]*models.BlogPost, error) {
	return defaultGenerator.Seed(ctx, store, n)
}

func (g *Generator) Seed(ctx context.Context, store database.BlogPostStore, n int) ([]*models.BlogPost, error) {
	if n < 0 {
		return nil, fmt.Errorf("seed count must not be negative, got %d", n)
	}
	log.Info().Int("count", n).Msg("seeding blogging data")

	posts := g.BlogPosts(n)
	if err := store.InsertMany(ctx, posts); err != nil {
		return nil, fmt.Errorf("seeding %d blog posts: %w", n, err)
	}
	return posts, nil
}

// TearDown drops every blog post from the store
func TearDown(ctx context.Context, store database.BlogPostStore) error {
	log.Warn().Msg("deleting database")
	if err := store.Drop(ctx); err != nil {
		return fmt.Errorf("dropping blog posts: %w", err)
	}
	return nil
}

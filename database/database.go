package database

import (
	"context"
	"net/url"
	"strings"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/errs"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
)

const (
	DefaultMongoDatabase   = "blog-app"
	DefaultMongoCollection = "blogposts"
)

// BlogPostStore is the storage contract shared by every backend. Missing
// records are reported with an error wrapping errs.ErrNotFound.
type BlogPostStore interface {
	FindAll(ctx context.Context) ([]*models.BlogPost, error)
	FindByID(ctx context.Context, id string) (*models.BlogPost, error)
	Add(ctx context.Context, blogPost *models.BlogPost) error
	InsertMany(ctx context.Context, blogPosts []*models.BlogPost) error
	Update(ctx context.Context, id string, patch models.BlogPostPatch) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	Drop(ctx context.Context) error
	Close(ctx context.Context) error
}

type Database struct {
	blogPostRepo BlogPostStore
}

// New wraps an already opened store
func New(blogPostRepo BlogPostStore) Database {
	return Database{blogPostRepo: blogPostRepo}
}

func (d Database) BlogPostRepo() BlogPostStore {
	return d.blogPostRepo
}

func (d Database) Close(ctx context.Context) error {
	if d.blogPostRepo == nil {
		return nil
	}
	return d.blogPostRepo.Close(ctx)
}

type openOptions struct {
	mongoDatabase   string
	mongoCollection string
	gormLogLevel    string
}

type OpenOption func(*openOptions)

// WithMongoDatabase overrides the database name when the URL has no path
func WithMongoDatabase(name string) OpenOption {
	return func(o *openOptions) {
		if name != "" {
			o.mongoDatabase = name
		}
	}
}

func WithMongoCollection(name string) OpenOption {
	return func(o *openOptions) {
		if name != "" {
			o.mongoCollection = name
		}
	}
}

func WithGormLogLevel(level string) OpenOption {
	return func(o *openOptions) {
		o.gormLogLevel = level
	}
}

// Open picks a backend from the connection string scheme:
// mongodb:// and mongodb+srv:// use MongoDB, postgres:// and postgresql:// use
// gorm, memory:// keeps everything in process.
func Open(ctx context.Context, connectionString string, opts ...OpenOption) (Database, error) {
	o := openOptions{
		mongoDatabase:   DefaultMongoDatabase,
		mongoCollection: DefaultMongoCollection,
	}
	for _, opt := range opts {
		opt(&o)
	}

	if isKeywordDSN(connectionString) {
		return openPostgres(ctx, connectionString, o)
	}

	u, err := url.Parse(connectionString)
	if err != nil {
		return Database{}, errs.NewInvalidFieldError("connection_string", err.Error())
	}

	switch strings.ToLower(u.Scheme) {
	case "mongodb", "mongodb+srv":
		client, err := ConnectMongo(ctx, connectionString)
		if err != nil {
			return Database{}, err
		}
		dbName := strings.TrimPrefix(u.Path, "/")
		if dbName == "" {
			dbName = o.mongoDatabase
		}
		return New(NewMongoBlogPostRepo(client, dbName, o.mongoCollection)), nil
	case "postgres", "postgresql":
		return openPostgres(ctx, connectionString, o)
	case "memory":
		return New(NewMemoryBlogPostRepo()), nil
	default:
		return Database{}, errs.NewUnsupportedBackendError(u.Scheme)
	}
}

func openPostgres(ctx context.Context, dsn string, o openOptions) (Database, error) {
	db, err := OpenPostgres(dsn, o.gormLogLevel)
	if err != nil {
		return Database{}, err
	}
	if err := models.AutoMigrate(db.WithContext(ctx)); err != nil {
		closeGorm(db)
		return Database{}, errs.NewDatabaseError("migrate", "blog_posts", err)
	}
	return New(NewBlogPostRepo(db)), nil
}

func isKeywordDSN(connectionString string) bool {
	return !strings.Contains(connectionString, "://") && strings.Contains(connectionString, "host=")
}

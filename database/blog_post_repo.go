package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/errs"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlogPostRepo stores blog posts in a relational database through gorm
type BlogPostRepo struct {
	db *gorm.DB
}

var _ BlogPostStore = (*BlogPostRepo)(nil)

func NewBlogPostRepo(db *gorm.DB) *BlogPostRepo {
	return &BlogPostRepo{db}
}

// GetDB returns the underlying database connection for debugging purposes
func (r *BlogPostRepo) GetDB() *gorm.DB {
	return r.db
}

// FindAll returns all blog posts from the database, oldest first
func (r *BlogPostRepo) FindAll(ctx context.Context) ([]*models.BlogPost, error) {
	blogPosts := []*models.BlogPost{}
	err := r.db.WithContext(ctx).Order("created asc").Find(&blogPosts).Error
	return blogPosts, err
}

// FindByID returns a blog post by its ID
func (r *BlogPostRepo) FindByID(ctx context.Context, id string) (*models.BlogPost, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, notFound(id)
	}

	var blogPost models.BlogPost
	err := r.db.WithContext(ctx).First(&blogPost, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &blogPost, nil
}

// Add inserts a new blog post into the database
func (r *BlogPostRepo) Add(ctx context.Context, blogPost *models.BlogPost) error {
	return r.db.WithContext(ctx).Create(blogPost).Error
}

func (r *BlogPostRepo) InsertMany(ctx context.Context, blogPosts []*models.BlogPost) error {
	if len(blogPosts) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(blogPosts, 100).Error
}

// Update writes only the columns present in the patch
func (r *BlogPostRepo) Update(ctx context.Context, id string, patch models.BlogPostPatch) error {
	if _, err := uuid.Parse(id); err != nil {
		return notFound(id)
	}
	if patch.IsEmpty() {
		_, err := r.FindByID(ctx, id)
		return err
	}

	result := r.db.WithContext(ctx).
		Model(&models.BlogPost{}).
		Where("id = ?", id).
		Updates(patch.Columns())
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

// Delete removes a blog post from the database by id. Unknown ids are not an error.
func (r *BlogPostRepo) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	return r.db.WithContext(ctx).Delete(&models.BlogPost{}, "id = ?", id).Error
}

func (r *BlogPostRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.BlogPost{}).Count(&count).Error
	return count, err
}

// Drop removes every blog post
func (r *BlogPostRepo) Drop(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&models.BlogPost{}).Error
}

func (r *BlogPostRepo) Close(_ context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(id string) error {
	return fmt.Errorf("blog post %s: %w", id, errs.ErrNotFound)
}

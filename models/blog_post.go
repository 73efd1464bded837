package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Author is the structured name of a blog post's writer
type Author struct {
	FirstName string `json:"firstName" bson:"firstName" gorm:"column:author_first_name;type:text;not null"`
	LastName  string `json:"lastName" bson:"lastName" gorm:"column:author_last_name;type:text;not null"`
}

// DisplayName joins the name parts the way clients show them
func (a Author) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(a.FirstName) + " " + strings.TrimSpace(a.LastName))
}

// BlogPost represents a stored blog post. ID and Created are owned by the store.
type BlogPost struct {
	ID      string    `json:"id" bson:"_id" gorm:"type:uuid;primaryKey;not null"`
	Author  Author    `json:"author" bson:"author" gorm:"embedded"`
	Title   string    `json:"title" bson:"title" gorm:"type:text;not null"`
	Content string    `json:"content" bson:"content" gorm:"type:text;not null"`
	Created time.Time `json:"created" bson:"created" gorm:"type:timestamptz;not null;default:CURRENT_TIMESTAMP"`
}

func (BlogPost) TableName() string {
	return "blog_posts"
}

// BeforeCreate fills the identity fields for the relational store
func (p *BlogPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.Created.IsZero() {
		p.Created = time.Now().UTC()
	}
	return nil
}

// BlogPostView is the external representation of a blog post
type BlogPostView struct {
	ID      string    `json:"id"`
	Author  string    `json:"author"`
	Title   string    `json:"title"`
	Content string    `json:"content"`
	Created time.Time `json:"created"`
}

func (p BlogPost) Serialize() BlogPostView {
	return BlogPostView{
		ID:      p.ID,
		Author:  p.Author.DisplayName(),
		Title:   p.Title,
		Content: p.Content,
		Created: p.Created,
	}
}

// BlogPostPatch holds the updatable fields of a blog post. Nil means unchanged.
type BlogPostPatch struct {
	Title           *string
	Content         *string
	AuthorFirstName *string
	AuthorLastName  *string
}

func (p BlogPostPatch) IsEmpty() bool {
	return p.Title == nil && p.Content == nil && p.AuthorFirstName == nil && p.AuthorLastName == nil
}

// Apply copies the supplied fields onto post, leaving ID and Created alone
func (p BlogPostPatch) Apply(post *BlogPost) {
	if p.Title != nil {
		post.Title = *p.Title
	}
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.AuthorFirstName != nil {
		post.Author.FirstName = *p.AuthorFirstName
	}
	if p.AuthorLastName != nil {
		post.Author.LastName = *p.AuthorLastName
	}
}

// Columns maps the patch onto relational column names
func (p BlogPostPatch) Columns() map[string]any {
	columns := make(map[string]any, 4)
	if p.Title != nil {
		columns["title"] = *p.Title
	}
	if p.Content != nil {
		columns["content"] = *p.Content
	}
	if p.AuthorFirstName != nil {
		columns["author_first_name"] = *p.AuthorFirstName
	}
	if p.AuthorLastName != nil {
		columns["author_last_name"] = *p.AuthorLastName
	}
	return columns
}

// Document maps the patch onto document field paths
func (p BlogPostPatch) Document() map[string]any {
	doc := make(map[string]any, 4)
	if p.Title != nil {
		doc["title"] = *p.Title
	}
	if p.Content != nil {
		doc["content"] = *p.Content
	}
	if p.AuthorFirstName != nil {
		doc["author.firstName"] = *p.AuthorFirstName
	}
	if p.AuthorLastName != nil {
		doc["author.lastName"] = *p.AuthorLastName
	}
	return doc
}

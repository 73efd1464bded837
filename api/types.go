package api

import "github.com/c-bert/blog-app-mongoose-challenge-solution/models"

// routeHandlers contains all the handlers for different route types
type routeHandlers struct {
	blogPostHandler blogPostHandler
	healthHandler   healthHandler
}

// ErrorResponse represents an error response from the API
type ErrorResponse struct {
	Error   string `json:"error"`
	Status  string `json:"status"`
	Field   string `json:"field,omitempty"`
	Details string `json:"details,omitempty"`
	Cause   string `json:"cause,omitempty"`
}

// BlogPostCollection is the body of GET /posts
type BlogPostCollection struct {
	Posts []models.BlogPostView `json:"posts"`
}

// AuthorRequest carries name parts in request bodies. Nil means absent.
type AuthorRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

// CreateBlogPostRequest is the body of POST /posts
type CreateBlogPostRequest struct {
	Author  *AuthorRequest `json:"author"`
	Title   string         `json:"title"`
	Content string         `json:"content"`
}

// UpdateBlogPostRequest is the body of PUT /posts/{id}
type UpdateBlogPostRequest struct {
	ID      *string        `json:"id,omitempty"`
	Author  *AuthorRequest `json:"author,omitempty"`
	Title   *string        `json:"title,omitempty"`
	Content *string        `json:"content,omitempty"`
}

// HealthResponse is the body of GET /healthz
type HealthResponse struct {
	Status    string `json:"status"`
	StartedAt string `json:"startedAt"`
	Uptime    string `json:"uptime"`
}

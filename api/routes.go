package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts the blog post collection and the health check
func setupRoutes(r chi.Router, handlers *routeHandlers) {
	r.Get("/healthz", handlers.healthHandler.health())

	r.Route("/posts", func(r chi.Router) {
		r.Get("/", handlers.blogPostHandler.getAllBlogPosts())
		r.Post("/", handlers.blogPostHandler.createBlogPost())
		r.Get("/{id}", handlers.blogPostHandler.getBlogPost())
		r.Put("/{id}", handlers.blogPostHandler.updateBlogPost())
		r.Delete("/{id}", handlers.blogPostHandler.deleteBlogPost())
	})
}

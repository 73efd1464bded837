package api

import (
	"time"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/database"
)

// initializeHandlers creates and returns all handlers organized in a routeHandlers struct
func initializeHandlers(database database.Database, startupTime time.Time, responderOpts ...ResponderOption) *routeHandlers {
	return &routeHandlers{
		blogPostHandler: newBlogPostHandler(database.BlogPostRepo(), responderOpts...),
		healthHandler:   newHealthHandler(startupTime),
	}
}

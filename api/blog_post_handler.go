package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/c-bert/blog-app-mongoose-challenge-solution/database"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/errs"
	"github.com/c-bert/blog-app-mongoose-challenge-solution/models"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const maxRequestBodySize int64 = 1 << 20

type blogPostHandler struct {
	responder    Responder
	logger       zerolog.Logger
	blogPostRepo database.BlogPostStore
}

func newBlogPostHandler(blogPostRepo database.BlogPostStore, responderOpts ...ResponderOption) blogPostHandler {
	logger := log.With().Str("handlerName", "blogPostHandler").Logger()

	return blogPostHandler{
		responder:    NewResponder(logger, responderOpts...),
		logger:       logger,
		blogPostRepo: blogPostRepo,
	}
}

// getAllBlogPosts retrieves every blog post
// @Summary List blog posts
// @Tags Blog Posts
// @Produce json
// @Success 200 {object} BlogPostCollection
// @Failure 500 {object} ErrorResponse
// @Router /posts [get]
func (h blogPostHandler) getAllBlogPosts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPosts, err := h.blogPostRepo.FindAll(r.Context())
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog posts", err))
			return
		}

		response := BlogPostCollection{Posts: make([]models.BlogPostView, 0, len(blogPosts))}
		for _, blogPost := range blogPosts {
			response.Posts = append(response.Posts, blogPost.Serialize())
		}

		h.responder.WriteJSON(w, response)
	}
}

// getBlogPost retrieves a specific blog post by ID
// @Summary Get blog post
// @Tags Blog Posts
// @Produce json
// @Param id path string true "Blog Post ID"
// @Success 200 {object} models.BlogPostView
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [get]
func (h blogPostHandler) getBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, ok := h.pathID(w, r)
		if !ok {
			return
		}

		blogPost, err := h.blogPostRepo.FindByID(r.Context(), blogPostID)
		if err != nil {
			h.responder.WriteError(w, wrapDatabaseError("find", "blog post", err))
			return
		}

		h.responder.WriteJSON(w, blogPost.Serialize())
	}
}

// createBlogPost creates a new blog post
// @Summary Create blog post
// @Tags Blog Posts
// @Accept json
// @Produce json
// @Param blogPost body CreateBlogPostRequest true "Blog post data"
// @Success 201 {object} models.BlogPostView
// @Failure 400 {object} ErrorResponse
// @Router /posts [post]
func (h blogPostHandler) createBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateBlogPostRequest
		if err := h.decode(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		blogPost, err := req.toBlogPost()
		if err != nil {
			h.logger.Warn().Err(err).Msg("rejected blog post")
			h.responder.WriteError(w, err)
			return
		}

		if err := h.blogPostRepo.Add(r.Context(), &blogPost); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("create", "blog post", err))
			return
		}

		h.logger.Info().Str("blogPostID", blogPost.ID).Msg("created blog post")
		w.Header().Set("Location", "/posts/"+blogPost.ID)
		h.responder.WriteJSONStatus(w, http.StatusCreated, blogPost.Serialize())
	}
}

// updateBlogPost updates the supplied fields of an existing blog post
// @Summary Update blog post
// @Tags Blog Posts
// @Accept json
// @Param id path string true "Blog Post ID"
// @Param blogPost body UpdateBlogPostRequest true "Fields to change"
// @Success 204
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /posts/{id} [put]
func (h blogPostHandler) updateBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, ok := h.pathID(w, r)
		if !ok {
			return
		}

		var req UpdateBlogPostRequest
		if err := h.decode(w, r, &req); err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if req.ID != nil && *req.ID != blogPostID {
			h.responder.WriteError(w, errs.NewIDMismatchError(blogPostID, *req.ID))
			return
		}

		patch, err := req.toPatch()
		if err != nil {
			h.responder.WriteError(w, err)
			return
		}

		if err := h.blogPostRepo.Update(r.Context(), blogPostID, patch); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("update", "blog post", err))
			return
		}

		h.logger.Info().Str("blogPostID", blogPostID).Msg("updated blog post")
		h.responder.WriteNoContent(w)
	}
}

// deleteBlogPost deletes a blog post by ID. Unknown ids also get a 204.
// @Summary Delete blog post
// @Tags Blog Posts
// @Param id path string true "Blog Post ID"
// @Success 204
// @Router /posts/{id} [delete]
func (h blogPostHandler) deleteBlogPost() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		blogPostID, ok := h.pathID(w, r)
		if !ok {
			return
		}

		if err := h.blogPostRepo.Delete(r.Context(), blogPostID); err != nil {
			h.responder.WriteError(w, wrapDatabaseError("delete", "blog post", err))
			return
		}

		h.logger.Info().Str("blogPostID", blogPostID).Msg("deleted blog post")
		h.responder.WriteNoContent(w)
	}
}

func (h blogPostHandler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	blogPostID := strings.TrimSpace(chi.URLParam(r, "id"))
	if blogPostID == "" {
		h.responder.WriteError(w, errs.NewMissingRequiredFieldError("id"))
		return "", false
	}
	return blogPostID, true
}

// decode reads at most maxRequestBodySize bytes of JSON into dst
func (h blogPostHandler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	bodyBytes, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxRequestBodySize))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return errs.NewMaxBodySizeExceededError(maxBytesErr.Limit)
		}
		h.logger.Error().Err(err).Msg("Failed to read request body")
		return errs.NewBadRequestError("failed to read request body")
	}

	if err := json.Unmarshal(bodyBytes, dst); err != nil {
		h.logger.Warn().Err(err).Int("bodySize", len(bodyBytes)).Msg("Failed to decode blog post request body")
		return errs.NewInvalidJSONError(err)
	}
	return nil
}

func (req CreateBlogPostRequest) toBlogPost() (models.BlogPost, error) {
	switch {
	case req.Author == nil:
		return models.BlogPost{}, errs.NewMissingRequiredFieldError("author")
	case req.Author.FirstName == nil || strings.TrimSpace(*req.Author.FirstName) == "":
		return models.BlogPost{}, errs.NewMissingRequiredFieldError("author.firstName")
	case req.Author.LastName == nil || strings.TrimSpace(*req.Author.LastName) == "":
		return models.BlogPost{}, errs.NewMissingRequiredFieldError("author.lastName")
	case strings.TrimSpace(req.Title) == "":
		return models.BlogPost{}, errs.NewMissingRequiredFieldError("title")
	case req.Content == "":
		return models.BlogPost{}, errs.NewMissingRequiredFieldError("content")
	}

	return models.BlogPost{
		Author: models.Author{
			FirstName: strings.TrimSpace(*req.Author.FirstName),
			LastName:  strings.TrimSpace(*req.Author.LastName),
		},
		Title:   req.Title,
		Content: req.Content,
	}, nil
}

func (req UpdateBlogPostRequest) toPatch() (models.BlogPostPatch, error) {
	var patch models.BlogPostPatch

	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			return patch, errs.NewInvalidFieldError("title", "must not be empty")
		}
		patch.Title = req.Title
	}
	patch.Content = req.Content

	if req.Author != nil {
		if req.Author.FirstName != nil {
			first := strings.TrimSpace(*req.Author.FirstName)
			if first == "" {
				return patch, errs.NewInvalidFieldError("author.firstName", "must not be empty")
			}
			patch.AuthorFirstName = &first
		}
		if req.Author.LastName != nil {
			last := strings.TrimSpace(*req.Author.LastName)
			if last == "" {
				return patch, errs.NewInvalidFieldError("author.lastName", "must not be empty")
			}
			patch.AuthorLastName = &last
		}
	}

	if patch.IsEmpty() {
		return patch, errs.NewBadRequestErrorWithField("no updatable fields supplied", "body", "Supply at least one of title, content, author")
	}
	return patch, nil
}

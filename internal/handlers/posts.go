package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
	"github.com/emilythestrangee/copymyprompt/backend/internal/service"
)

type PostHandler struct {
	posts *service.Posts
}

func NewPostHandler(posts *service.Posts) *PostHandler {
	return &PostHandler{posts: posts}
}

// CreatePost creates a new post (PROTECTED - requires authentication)
func (h *PostHandler) CreatePost(c *gin.Context) {
	var input models.CreatePostRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	post, err := h.posts.Create(c.Request.Context(), currentUser(c), input)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, post, "Post created successfully")
}

// GetPosts serves the feed. The following filter uses the token's user,
// or the userId query parameter for anonymous callers.
func (h *PostHandler) GetPosts(c *gin.Context) {
	q := service.FeedQuery{
		Filter:     service.FeedFilter(c.DefaultQuery("filter", string(service.FilterNew))),
		ViewerID:   viewer(c),
		CategoryID: queryID(c, "categoryId"),
	}
	if q.ViewerID == nil {
		q.ViewerID = queryID(c, "userId")
	}

	posts, err := h.posts.FindAll(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, posts, "")
}

// GetPost returns a single post by ID
func (h *PostHandler) GetPost(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	post, err := h.posts.FindOne(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, post, "")
}

func (h *PostHandler) MyPosts(c *gin.Context) {
	posts, err := h.posts.ByUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, posts, "")
}

func (h *PostHandler) LikedPosts(c *gin.Context) {
	posts, err := h.posts.LikedBy(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, posts, "")
}

func (h *PostHandler) ByCategory(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	posts, err := h.posts.ByCategory(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, posts, "")
}

// Prompts serves the featured, trending and thisWeek listings.
func (h *PostHandler) Prompts(c *gin.Context) {
	posts, err := h.posts.Prompts(c.Request.Context(), c.Param("type"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, posts, "")
}

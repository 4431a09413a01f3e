package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
	"github.com/emilythestrangee/copymyprompt/backend/internal/service"
)

// InteractionHandler serves the likes, shares and copies endpoints. They
// differ only in the service behind them.
type InteractionHandler[T any, PT service.Row[T]] struct {
	svc *service.Interactions[T, PT]
}

func NewInteractionHandler[T any, PT service.Row[T]](svc *service.Interactions[T, PT]) *InteractionHandler[T, PT] {
	return &InteractionHandler[T, PT]{svc: svc}
}

func (h *InteractionHandler[T, PT]) Create(c *gin.Context) {
	var input models.InteractionRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	row, err := h.svc.Create(c.Request.Context(), input.PostID, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, row, "Post "+h.svc.Kind().Verb+" successfully")
}

func (h *InteractionHandler[T, PT]) FindAll(c *gin.Context) {
	rows, err := h.svc.FindAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rows, "")
}

func (h *InteractionHandler[T, PT]) FindByPost(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	rows, err := h.svc.FindByPost(c.Request.Context(), postID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rows, "")
}

// Mine lists the caller's rows with their posts.
func (h *InteractionHandler[T, PT]) Mine(c *gin.Context) {
	rows, err := h.svc.FindByUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rows, "")
}

func (h *InteractionHandler[T, PT]) Check(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	check, err := h.svc.Check(c.Request.Context(), postID, currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, check, "")
}

func (h *InteractionHandler[T, PT]) Remove(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	if err := h.svc.Remove(c.Request.Context(), postID, currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, h.svc.Kind().Name+" removed successfully")
}

// RatingHandler adds value/body handling on top of the shared endpoints.
type RatingHandler struct {
	*InteractionHandler[models.Rating, *models.Rating]
	ratings *service.Ratings
}

func NewRatingHandler(ratings *service.Ratings) *RatingHandler {
	return &RatingHandler{
		InteractionHandler: NewInteractionHandler(ratings.Interactions),
		ratings:            ratings,
	}
}

func (h *RatingHandler) Create(c *gin.Context) {
	var input models.CreateRatingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	rating, err := h.ratings.Create(c.Request.Context(), input.PostID, currentUser(c), input.Value, input.Body)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, rating, "Post rated successfully")
}

func (h *RatingHandler) Update(c *gin.Context) {
	postID, ok := paramID(c, "postId")
	if !ok {
		return
	}

	var input models.UpdateRatingRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	rating, err := h.ratings.Update(c.Request.Context(), postID, currentUser(c), input.Value, input.Body)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rating, "Rating updated successfully")
}

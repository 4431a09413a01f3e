package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/auth"
	"github.com/emilythestrangee/copymyprompt/backend/internal/middleware"
	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
	"github.com/emilythestrangee/copymyprompt/backend/internal/service"
	"github.com/emilythestrangee/copymyprompt/backend/internal/storage"
)

// Uploader stores an uploaded image part.
type Uploader interface {
	Upload(ctx context.Context, file *multipart.FileHeader) (*storage.Object, error)
}

// HealthChecker reports the state of the database.
type HealthChecker interface {
	Health() map[string]string
}

// Handler combines all handler types
type Handler struct {
	Auth     *AuthHandler
	Post     *PostHandler
	Category *CategoryHandler
	Like     *InteractionHandler[models.Like, *models.Like]
	Share    *InteractionHandler[models.Share, *models.Share]
	Copy     *InteractionHandler[models.Copy, *models.Copy]
	Rating   *RatingHandler
	User     *UserHandler
	Upload   *UploadHandler
	Health   *HealthHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(svc *service.Services, tokens *auth.Tokens, uploader Uploader, health HealthChecker) *Handler {
	return &Handler{
		Auth:     NewAuthHandler(svc.Users, tokens),
		Post:     NewPostHandler(svc.Posts),
		Category: NewCategoryHandler(svc.Categories),
		Like:     NewInteractionHandler(svc.Likes),
		Share:    NewInteractionHandler(svc.Shares),
		Copy:     NewInteractionHandler(svc.Copies),
		Rating:   NewRatingHandler(svc.Ratings),
		User:     NewUserHandler(svc.Users, svc.Follows),
		Upload:   NewUploadHandler(uploader),
		Health:   NewHealthHandler(health),
	}
}

func respond(c *gin.Context, status int, data any, message string) {
	body := gin.H{"data": data}
	if message != "" {
		body["message"] = message
	}
	c.JSON(status, body)
}

// fail writes the error response for err. Domain errors carry their own
// client message; anything unexpected is logged and hidden.
func fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, service.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrConflict):
		status = http.StatusConflict
	case errors.Is(err, service.ErrBadRequest),
		errors.Is(err, storage.ErrTooLarge),
		errors.Is(err, storage.ErrUnsupportedType):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrUnauthorized):
		status = http.StatusUnauthorized
	}

	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(status, gin.H{"error": clientMessage(err)})
}

func clientMessage(err error) string {
	var svcErr *service.Error
	switch {
	case errors.As(err, &svcErr):
		return svcErr.Message
	case errors.Is(err, storage.ErrTooLarge):
		return "File size must be less than 5MB"
	case errors.Is(err, storage.ErrUnsupportedType):
		return "Only image files are allowed (jpeg, jpg, png, gif, webp)"
	}
	return err.Error()
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// currentUser returns the caller's id on routes behind RequireAuth.
func currentUser(c *gin.Context) uint {
	s, _ := middleware.SessionFrom(c)
	return s.UserID
}

// viewer returns the caller's id when a valid token was sent.
func viewer(c *gin.Context) *uint {
	if s, ok := middleware.SessionFrom(c); ok {
		return &s.UserID
	}
	return nil
}

// paramID parses a positive integer path parameter, writing a 400 when it
// is malformed.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func queryID(c *gin.Context, name string) *uint {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return nil
	}
	v := uint(id)
	return &v
}

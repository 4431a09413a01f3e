package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/service"
)

type CategoryHandler struct {
	categories *service.Categories
}

func NewCategoryHandler(categories *service.Categories) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories, err := h.categories.FindAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, categories, "")
}

type UploadHandler struct {
	uploader Uploader
}

func NewUploadHandler(uploader Uploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// UploadImage stores the multipart field "image" and returns its URL.
func (h *UploadHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}

	obj, err := h.uploader.Upload(c.Request.Context(), file)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, obj, "Image uploaded successfully")
}

type HealthHandler struct {
	db HealthChecker
}

func NewHealthHandler(db HealthChecker) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Health(c *gin.Context) {
	stats := h.db.Health()
	status := http.StatusOK
	if stats["status"] != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, stats)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/auth"
	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
	"github.com/emilythestrangee/copymyprompt/backend/internal/service"
)

type AuthHandler struct {
	users  *service.Users
	tokens *auth.Tokens
}

func NewAuthHandler(users *service.Users, tokens *auth.Tokens) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// Register returns the account for the given email, creating it first
// when needed, together with a fresh token. Existing accounts with a
// password must send it.
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, created, err := h.users.Register(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}

	if !created {
		h.issue(c, http.StatusOK, user, "Signed in successfully")
		return
	}
	h.issue(c, http.StatusCreated, user, "User registered successfully")
}

// Login handles email/password login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		fail(c, err)
		return
	}

	h.issue(c, http.StatusOK, user, "Login successful")
}

// Me returns the authenticated user
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.users.FindOne(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "")
}

func (h *AuthHandler) issue(c *gin.Context, status int, user *models.User, message string) {
	token, err := h.tokens.Issue(user.ID, user.Username)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, status, models.AuthResponse{Token: token, User: *user}, message)
}

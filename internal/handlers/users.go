package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
	"github.com/emilythestrangee/copymyprompt/backend/internal/service"
)

type UserHandler struct {
	users   *service.Users
	follows *service.Follows
}

func NewUserHandler(users *service.Users, follows *service.Follows) *UserHandler {
	return &UserHandler{users: users, follows: follows}
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var input models.CreateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Create(c.Request.Context(), input)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, user, "User created successfully")
}

func (h *UserHandler) GetUsers(c *gin.Context) {
	users, err := h.users.FindAll(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, users, "")
}

// SearchUser looks a user up by exact username or email.
func (h *UserHandler) SearchUser(c *gin.Context) {
	var (
		user *models.User
		err  error
	)
	switch {
	case c.Query("username") != "":
		user, err = h.users.FindByUsername(c.Request.Context(), c.Query("username"))
	case c.Query("email") != "":
		user, err = h.users.FindByEmail(c.Request.Context(), c.Query("email"))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "username or email query parameter required"})
		return
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "")
}

func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.users.FindOne(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "")
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	var input models.UpdateUserRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.Update(c.Request.Context(), currentUser(c), input)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "User updated successfully")
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.users.Remove(c.Request.Context(), currentUser(c)); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "User deleted successfully")
}

func (h *UserHandler) FollowUser(c *gin.Context) {
	target, ok := paramID(c, "userId")
	if !ok {
		return
	}

	follow, err := h.follows.Follow(c.Request.Context(), currentUser(c), target)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, follow, "Successfully followed user")
}

func (h *UserHandler) UnfollowUser(c *gin.Context) {
	target, ok := paramID(c, "userId")
	if !ok {
		return
	}

	if err := h.follows.Unfollow(c.Request.Context(), currentUser(c), target); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Successfully unfollowed user")
}

func (h *UserHandler) GetFollowing(c *gin.Context) {
	users, err := h.follows.Following(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, users, "")
}

func (h *UserHandler) GetFollowers(c *gin.Context) {
	users, err := h.follows.Followers(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, users, "")
}

func (h *UserHandler) CheckFollowing(c *gin.Context) {
	target, ok := paramID(c, "userId")
	if !ok {
		return
	}

	check, err := h.follows.Check(c.Request.Context(), currentUser(c), target)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, check, "")
}

// GetProfile returns a user's public profile
func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	profile, err := h.users.Profile(c.Request.Context(), userID, viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, profile, "")
}

// GetUserPosts returns a user's profile together with their posts
func (h *UserHandler) GetUserPosts(c *gin.Context) {
	userID, ok := paramID(c, "userId")
	if !ok {
		return
	}

	profile, err := h.users.ProfileWithPosts(c.Request.Context(), userID, viewer(c))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, profile, "")
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var input models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, err)
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentUser(c), input)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, user, "Profile updated successfully")
}

func (h *UserHandler) TopCreators(c *gin.Context) {
	creators, err := h.users.TopCreators(c.Request.Context(), c.DefaultQuery("sortBy", service.SortByPosts))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, creators, "")
}

func (h *UserHandler) CreatorsWithPosts(c *gin.Context) {
	users, err := h.users.CreatorsWithPosts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, users, "")
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

// Top creator orderings.
const (
	SortByPosts     = "posts"
	SortByFollowers = "followers"
	SortByCopies    = "copies"

	topCreatorsLimit = 10
)

// Profile is the public view of a user. IsFollowing is set only when a
// different viewer asked for it.
type Profile struct {
	ID             uint          `json:"id"`
	Username       string        `json:"username"`
	Image          string        `json:"image"`
	Bio            string        `json:"bio"`
	FollowersCount int           `json:"followers_count"`
	FollowingCount int           `json:"following_count"`
	PostsCount     int64         `json:"posts_count"`
	CreatedAt      time.Time     `json:"created_at"`
	IsFollowing    *bool         `json:"is_following,omitempty"`
	Posts          []models.Post `json:"posts,omitempty"`
}

type Creator struct {
	ID             uint   `json:"id"`
	Username       string `json:"username"`
	Image          string `json:"image"`
	Bio            string `json:"bio"`
	FollowersCount int    `json:"followers_count"`
	FollowingCount int    `json:"following_count"`
	PostsCount     int64  `json:"posts_count"`
	TotalCopies    int64  `json:"total_copies"`
}

type Users struct {
	db *gorm.DB
}

func NewUsers(db *gorm.DB) *Users {
	return &Users{db: db}
}

func (s *Users) Create(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	user := models.User{
		Username: req.Username,
		Email:    req.Email,
		Image:    req.Image,
		Source:   req.Source,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, translateUnique(err, "Username or email already exists")
	}
	return &user, nil
}

// Register returns the account registered under req.Email, creating it
// first when it does not exist yet. created reports whether a new account
// was stored. An existing account with a password is only returned when
// req.Password matches it.
func (s *Users) Register(ctx context.Context, req models.RegisterRequest) (user *models.User, created bool, err error) {
	existing, err := s.FindByEmail(ctx, req.Email)
	if err == nil {
		if err := checkPassword(existing, req.Password); err != nil {
			return nil, false, err
		}
		return existing, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	user = &models.User{
		Username: req.Username,
		Email:    req.Email,
		Image:    req.Image,
		Source:   req.Source,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, false, fmt.Errorf("hash password: %w", err)
		}
		user.Password = string(hash)
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, false, translateUnique(err, "Username or email already exists")
	}
	return user, true, nil
}

// Authenticate checks an email/password pair. Accounts created without a
// password cannot log in this way.
func (s *Users) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, unauthorized("Invalid credentials")
	}
	if err != nil {
		return nil, err
	}
	if user.Password == "" {
		return nil, unauthorized("Invalid credentials")
	}
	if err := checkPassword(&user, password); err != nil {
		return nil, err
	}
	return &user, nil
}

// checkPassword passes accounts without a stored password.
func checkPassword(user *models.User, password string) error {
	if user.Password == "" {
		return nil
	}
	if password == "" {
		return unauthorized("Invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return unauthorized("Invalid credentials")
	}
	return nil
}

func (s *Users) FindAll(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).Order("created_at DESC, id DESC").Find(&users).Error
	return users, err
}

func (s *Users) FindOne(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := loadUser(s.db.WithContext(ctx), id, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Users) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User with username %s not found", username)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *Users) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("User with email %s not found", email)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies the non-nil fields of req.
func (s *Users) Update(ctx context.Context, id uint, req models.UpdateUserRequest) (*models.User, error) {
	updates := map[string]any{}
	setIf(updates, "username", req.Username)
	setIf(updates, "email", req.Email)
	setIf(updates, "image", req.Image)
	setIf(updates, "source", req.Source)
	setIf(updates, "bio", req.Bio)
	setIf(updates, "phone", req.Phone)

	return s.update(ctx, id, updates, "Username or email already exists")
}

// UpdateProfile changes username, image and bio only.
func (s *Users) UpdateProfile(ctx context.Context, id uint, req models.UpdateProfileRequest) (*models.User, error) {
	updates := map[string]any{}
	setIf(updates, "username", req.Username)
	setIf(updates, "image", req.Image)
	setIf(updates, "bio", req.Bio)

	return s.update(ctx, id, updates, "Username already exists")
}

func (s *Users) update(ctx context.Context, id uint, updates map[string]any, conflictMsg string) (*models.User, error) {
	user, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(user).Updates(updates).Error; err != nil {
			return nil, translateUnique(err, conflictMsg)
		}
	}
	return s.FindOne(ctx, id)
}

// Remove deletes a user. The user's follows and interactions are removed
// first, in the same transaction, so the counters on other users and on
// other people's posts stay consistent.
func (s *Users) Remove(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := loadUser(tx, id, &user); err != nil {
			return err
		}
		if err := releaseFollows(tx, id); err != nil {
			return err
		}
		if err := releaseInteractions(tx, id); err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

var interactionTables = []struct{ table, counter string }{
	{"post_likes", "likes_count"},
	{"post_shares", "shares_count"},
	{"post_copies", "copies_count"},
	{"post_ratings", "ratings_count"},
}

func releaseFollows(tx *gorm.DB, userID uint) error {
	stmts := []string{
		"UPDATE users SET followers_count = followers_count - 1 WHERE id IN (SELECT following_id FROM user_follows WHERE follower_id = ?)",
		"UPDATE users SET following_count = following_count - 1 WHERE id IN (SELECT follower_id FROM user_follows WHERE following_id = ?)",
	}
	for _, stmt := range stmts {
		if err := tx.Exec(stmt, userID).Error; err != nil {
			return fmt.Errorf("release follow counters: %w", err)
		}
	}
	if err := tx.Where("follower_id = ? OR following_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
		return fmt.Errorf("delete follows: %w", err)
	}
	return nil
}

// releaseInteractions relies on the (post_id, user_id) uniqueness: each
// post holds at most one row per table for the user.
func releaseInteractions(tx *gorm.DB, userID uint) error {
	err := tx.Exec(
		"UPDATE posts SET ratings_value = ratings_value - "+
			"(SELECT value FROM post_ratings WHERE post_ratings.post_id = posts.id AND post_ratings.user_id = ?) "+
			"WHERE id IN (SELECT post_id FROM post_ratings WHERE user_id = ?)",
		userID, userID,
	).Error
	if err != nil {
		return fmt.Errorf("release ratings value: %w", err)
	}

	for _, t := range interactionTables {
		err := tx.Exec(
			"UPDATE posts SET "+t.counter+" = "+t.counter+" - 1 WHERE id IN (SELECT post_id FROM "+t.table+" WHERE user_id = ?)",
			userID,
		).Error
		if err != nil {
			return fmt.Errorf("release %s: %w", t.counter, err)
		}
		if err := tx.Exec("DELETE FROM "+t.table+" WHERE user_id = ?", userID).Error; err != nil {
			return fmt.Errorf("delete %s: %w", t.table, err)
		}
	}
	return nil
}

// Profile builds the public profile of userID as seen by viewerID.
func (s *Users) Profile(ctx context.Context, userID uint, viewerID *uint) (*Profile, error) {
	return s.profile(ctx, userID, viewerID, false)
}

// ProfileWithPosts is Profile plus the user's posts, newest first.
func (s *Users) ProfileWithPosts(ctx context.Context, userID uint, viewerID *uint) (*Profile, error) {
	return s.profile(ctx, userID, viewerID, true)
}

func (s *Users) profile(ctx context.Context, userID uint, viewerID *uint, withPosts bool) (*Profile, error) {
	db := s.db.WithContext(ctx)

	user, err := s.FindOne(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{
		ID:             user.ID,
		Username:       user.Username,
		Image:          user.Image,
		Bio:            user.Bio,
		FollowersCount: user.FollowersCount,
		FollowingCount: user.FollowingCount,
		CreatedAt:      user.CreatedAt,
	}

	if withPosts {
		posts := []models.Post{}
		err := db.Where("user_id = ?", userID).
			Preload("Category").
			Order("created_at DESC, id DESC").
			Find(&posts).Error
		if err != nil {
			return nil, err
		}
		profile.Posts = posts
		profile.PostsCount = int64(len(posts))
	} else if err := db.Model(&models.Post{}).Where("user_id = ?", userID).Count(&profile.PostsCount).Error; err != nil {
		return nil, err
	}

	if viewerID != nil && *viewerID != userID {
		follow, err := findFollow(db, *viewerID, userID)
		if err != nil {
			return nil, err
		}
		isFollowing := follow != nil
		profile.IsFollowing = &isFollowing
	}

	return profile, nil
}

// TopCreators ranks users by post count, followers or total copies of
// their posts. Counts and ordering come from one aggregate query, ties
// broken by user id.
func (s *Users) TopCreators(ctx context.Context, sortBy string) ([]Creator, error) {
	query := s.db.WithContext(ctx).
		Table("users").
		Select("users.id, users.username, users.image, users.bio, users.followers_count, users.following_count, " +
			"COUNT(posts.id) AS posts_count, COALESCE(SUM(posts.copies_count), 0) AS total_copies").
		Joins("LEFT JOIN posts ON posts.user_id = users.id").
		Group("users.id, users.username, users.image, users.bio, users.followers_count, users.following_count")

	switch sortBy {
	case SortByFollowers:
		query = query.Order("users.followers_count DESC")
	case SortByCopies:
		query = query.Order("total_copies DESC")
	case SortByPosts, "":
		query = query.Order("posts_count DESC")
	default:
		return nil, badRequest("sortBy must be one of posts, followers, copies")
	}

	creators := []Creator{}
	err := query.Order("users.id ASC").Limit(topCreatorsLimit).Scan(&creators).Error
	return creators, err
}

// CreatorsWithPosts lists every user with at least one post, together with
// their posts, most followed first.
func (s *Users) CreatorsWithPosts(ctx context.Context) ([]models.User, error) {
	users := []models.User{}
	err := s.db.WithContext(ctx).
		Select("id", "username", "image", "bio", "followers_count", "following_count", "created_at").
		Where("EXISTS (SELECT 1 FROM posts WHERE posts.user_id = users.id)").
		Preload("Posts", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at DESC, id DESC")
		}).
		Preload("Posts.Category").
		Order("followers_count DESC, id ASC").
		Find(&users).Error
	return users, err
}

func setIf[T any](updates map[string]any, column string, value *T) {
	if value != nil {
		updates[column] = *value
	}
}

func translateUnique(err error, msg string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return conflict("%s", msg)
	}
	return err
}

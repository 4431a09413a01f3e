package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

// FeedFilter selects the ordering and scope of the post feed.
type FeedFilter string

const (
	FilterNew       FeedFilter = "new"
	FilterPopular   FeedFilter = "popular"
	FilterFollowing FeedFilter = "following"
)

// FeedQuery describes a feed request. ViewerID is only needed for the
// following filter.
type FeedQuery struct {
	Filter     FeedFilter
	ViewerID   *uint
	CategoryID *uint
}

// Prompt listing types served by Prompts.
const (
	PromptsFeatured = "featured"
	PromptsTrending = "trending"
	PromptsThisWeek = "thisWeek"

	promptsLimit = 12
)

type Posts struct {
	db    *gorm.DB
	cache Cache
	ttl   time.Duration
	now   func() time.Time
}

func NewPosts(db *gorm.DB, cache Cache, ttl time.Duration) *Posts {
	if cache == nil {
		cache = nopCache{}
	}
	return &Posts{db: db, cache: cache, ttl: ttl, now: time.Now}
}

// Create publishes a post owned by userID.
func (s *Posts) Create(ctx context.Context, userID uint, req models.CreatePostRequest) (*models.Post, error) {
	if req.Price < 0 {
		return nil, badRequest("Price must not be negative")
	}

	db := s.db.WithContext(ctx)

	var category models.Category
	err := db.Select("id").First(&category, req.CategoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Category not found")
	}
	if err != nil {
		return nil, err
	}

	post := models.Post{
		Title:      req.Title,
		Prompt:     req.Prompt,
		Image:      req.Image,
		Price:      req.Price,
		Model:      req.Model,
		CategoryID: &category.ID,
		UserID:     userID,
	}
	if err := db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("insert post: %w", err)
	}

	return s.FindOne(ctx, post.ID)
}

// FindAll assembles the feed. The following filter resolves the viewer's
// follow list first and returns an empty feed without touching posts when
// there is no viewer or the viewer follows nobody.
func (s *Posts) FindAll(ctx context.Context, q FeedQuery) ([]models.Post, error) {
	query := s.listing(ctx)

	switch q.Filter {
	case FilterPopular:
		query = query.Order("copies_count DESC").Order("created_at DESC")
	case FilterFollowing:
		if q.ViewerID == nil {
			return []models.Post{}, nil
		}
		var ids []uint
		err := s.db.WithContext(ctx).
			Model(&models.Follow{}).
			Where("follower_id = ?", *q.ViewerID).
			Pluck("following_id", &ids).Error
		if err != nil {
			return nil, fmt.Errorf("resolve following: %w", err)
		}
		if len(ids) == 0 {
			return []models.Post{}, nil
		}
		query = query.Where("user_id IN ?", ids).Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	if q.CategoryID != nil {
		query = query.Where("category_id = ?", *q.CategoryID)
	}

	return s.find(query.Order("id DESC"))
}

func (s *Posts) FindOne(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := s.listing(ctx).First(&post, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("Post not found")
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Posts) ByCategory(ctx context.Context, categoryID uint) ([]models.Post, error) {
	return s.find(s.listing(ctx).
		Where("category_id = ?", categoryID).
		Order("created_at DESC, id DESC"))
}

func (s *Posts) ByUser(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.find(s.listing(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC"))
}

// LikedBy lists the posts userID liked, most recently liked first.
func (s *Posts) LikedBy(ctx context.Context, userID uint) ([]models.Post, error) {
	return s.find(s.listing(ctx).
		Joins("JOIN post_likes ON post_likes.post_id = posts.id").
		Where("post_likes.user_id = ?", userID).
		Order("post_likes.created_at DESC").
		Order("posts.id DESC"))
}

// Prompts returns up to twelve posts for a named listing. Listings are
// served from the cache when possible; cache failures only get logged.
func (s *Posts) Prompts(ctx context.Context, kind string) ([]models.Post, error) {
	query := s.listing(ctx).Limit(promptsLimit)

	switch kind {
	case PromptsFeatured:
		query = query.Order("copies_count DESC").Order("created_at DESC")
	case PromptsTrending:
		query = query.Order("likes_count DESC").Order("created_at DESC")
	case PromptsThisWeek:
		now := s.now()
		weekAgo := time.Date(now.Year(), now.Month(), now.Day()-7, 0, 0, 0, 0, now.Location())
		query = query.Where("created_at >= ?", weekAgo).Order("created_at DESC")
	default:
		return nil, badRequest("Unknown prompt type %q", kind)
	}

	key := promptsKey(kind)
	var cached []models.Post
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		slog.WarnContext(ctx, "prompt cache read failed", "key", key, "error", err)
	}
	if hit {
		return cached, nil
	}

	posts, err := s.find(query.Order("id DESC"))
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, posts, s.ttl); err != nil {
		slog.WarnContext(ctx, "prompt cache write failed", "key", key, "error", err)
	}
	return posts, nil
}

// InvalidatePrompts drops the cached listings whose order depends on
// interaction counters.
func (s *Posts) InvalidatePrompts(ctx context.Context) {
	if err := s.cache.Delete(ctx, promptsKey(PromptsFeatured), promptsKey(PromptsTrending)); err != nil {
		slog.WarnContext(ctx, "prompt cache invalidation failed", "error", err)
	}
}

func (s *Posts) listing(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Post{}).
		Preload("User", publicUserColumns).
		Preload("Category")
}

func (s *Posts) find(query *gorm.DB) ([]models.Post, error) {
	posts := []models.Post{}
	if err := query.Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

func promptsKey(kind string) string {
	return "prompts:" + kind
}

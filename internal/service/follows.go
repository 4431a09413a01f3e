package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

// Notifier is told about new follow relationships after they commit.
type Notifier interface {
	NewFollower(ctx context.Context, follower, following models.User)
}

type nopNotifier struct{}

func (nopNotifier) NewFollower(context.Context, models.User, models.User) {}

// Follows manages user-to-user follow relationships together with the
// following_count/followers_count counters on both users.
type Follows struct {
	db       *gorm.DB
	notifier Notifier
}

func NewFollows(db *gorm.DB, notifier Notifier) *Follows {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &Follows{db: db, notifier: notifier}
}

// Follow makes followerID follow followingID.
func (s *Follows) Follow(ctx context.Context, followerID, followingID uint) (*models.Follow, error) {
	if followerID == followingID {
		return nil, conflict("You cannot follow yourself")
	}

	var follower, following models.User
	follow := &models.Follow{FollowerID: followerID, FollowingID: followingID}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := loadUser(tx, followerID, &follower); err != nil {
			return err
		}
		if err := loadUser(tx, followingID, &following); err != nil {
			return err
		}

		existing, err := findFollow(tx, followerID, followingID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("You are already following this user")
		}

		if err := tx.Create(follow).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("You are already following this user")
			}
			return fmt.Errorf("insert follow: %w", err)
		}

		return adjustFollowCounts(tx, followerID, followingID, 1)
	})
	if err != nil {
		return nil, err
	}

	following.FollowersCount++
	s.notifier.NewFollower(ctx, follower, following)
	return follow, nil
}

// Unfollow removes the relationship and decrements both counters.
func (s *Follows) Unfollow(ctx context.Context, followerID, followingID uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follow, err := findFollow(tx, followerID, followingID)
		if err != nil {
			return err
		}
		if follow == nil {
			return notFound("You are not following this user")
		}

		if err := tx.Delete(follow).Error; err != nil {
			return fmt.Errorf("delete follow: %w", err)
		}

		return adjustFollowCounts(tx, followerID, followingID, -1)
	})
}

// Following lists the users userID follows, most recent first.
func (s *Follows) Following(ctx context.Context, userID uint) ([]models.FollowSummary, error) {
	var follows []models.Follow
	err := s.db.WithContext(ctx).
		Where("follower_id = ?", userID).
		Preload("Following").
		Order("created_at DESC, id DESC").
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.FollowSummary, 0, len(follows))
	for _, f := range follows {
		if f.Following != nil {
			out = append(out, summarize(*f.Following, f))
		}
	}
	return out, nil
}

// Followers lists the users following userID, most recent first.
func (s *Follows) Followers(ctx context.Context, userID uint) ([]models.FollowSummary, error) {
	var follows []models.Follow
	err := s.db.WithContext(ctx).
		Where("following_id = ?", userID).
		Preload("Follower").
		Order("created_at DESC, id DESC").
		Find(&follows).Error
	if err != nil {
		return nil, err
	}

	out := make([]models.FollowSummary, 0, len(follows))
	for _, f := range follows {
		if f.Follower != nil {
			out = append(out, summarize(*f.Follower, f))
		}
	}
	return out, nil
}

// Check reports whether followerID follows followingID.
func (s *Follows) Check(ctx context.Context, followerID, followingID uint) (Check[models.Follow], error) {
	follow, err := findFollow(s.db.WithContext(ctx), followerID, followingID)
	if err != nil {
		return Check[models.Follow]{}, err
	}
	return Check[models.Follow]{Exists: follow != nil, Row: follow}, nil
}

func findFollow(tx *gorm.DB, followerID, followingID uint) (*models.Follow, error) {
	var follow models.Follow
	err := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).First(&follow).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find follow: %w", err)
	}
	return &follow, nil
}

func adjustFollowCounts(tx *gorm.DB, followerID, followingID uint, delta int) error {
	err := tx.Model(&models.User{}).
		Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("update following count: %w", err)
	}
	err = tx.Model(&models.User{}).
		Where("id = ?", followingID).
		UpdateColumn("followers_count", gorm.Expr("followers_count + ?", delta)).Error
	if err != nil {
		return fmt.Errorf("update followers count: %w", err)
	}
	return nil
}

func loadUser(tx *gorm.DB, id uint, user *models.User) error {
	err := tx.First(user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("User with ID %d not found", id)
	}
	return err
}

func summarize(u models.User, f models.Follow) models.FollowSummary {
	return models.FollowSummary{
		ID:             u.ID,
		Username:       u.Username,
		Image:          u.Image,
		Bio:            u.Bio,
		FollowersCount: u.FollowersCount,
		FollowedAt:     f.CreatedAt,
	}
}

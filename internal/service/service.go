package service

import (
	"time"

	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

// Options carries the optional collaborators of the service layer. Nil
// values fall back to no-op implementations.
type Options struct {
	Cache     Cache
	PromptTTL time.Duration
	Notifier  Notifier
}

// Services groups every domain service over a single database handle.
type Services struct {
	Users      *Users
	Posts      *Posts
	Categories *Categories
	Follows    *Follows
	Likes      *Interactions[models.Like, *models.Like]
	Shares     *Interactions[models.Share, *models.Share]
	Copies     *Interactions[models.Copy, *models.Copy]
	Ratings    *Ratings
}

func New(db *gorm.DB, opts Options) *Services {
	posts := NewPosts(db, opts.Cache, opts.PromptTTL)

	likes := NewInteractions[models.Like](db, Kind{Name: "Like", Verb: "liked"},
		CountColumn[models.Like]("likes_count"))
	shares := NewInteractions[models.Share](db, Kind{Name: "Share", Verb: "shared"},
		CountColumn[models.Share]("shares_count"))
	copies := NewInteractions[models.Copy](db, Kind{Name: "Copy", Verb: "copied"},
		CountColumn[models.Copy]("copies_count"))

	// featured orders by copies, trending by likes
	likes.OnChange(posts.InvalidatePrompts)
	copies.OnChange(posts.InvalidatePrompts)

	return &Services{
		Users:      NewUsers(db),
		Posts:      posts,
		Categories: NewCategories(db),
		Follows:    NewFollows(db, opts.Notifier),
		Likes:      likes,
		Shares:     shares,
		Copies:     copies,
		Ratings:    NewRatings(db),
	}
}

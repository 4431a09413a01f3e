package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

// Row is satisfied by pointers to the interaction models (*models.Like,
// *models.Share, *models.Copy, *models.Rating).
type Row[T any] interface {
	*T
	Bind(postID, userID uint)
}

// CounterFunc returns the posts column updates that account for adding
// (delta = 1) or removing (delta = -1) row.
type CounterFunc[T any] func(row *T, delta int) map[string]any

// CountColumn keeps a single posts column equal to the number of rows.
func CountColumn[T any](column string) CounterFunc[T] {
	return func(_ *T, delta int) map[string]any {
		return map[string]any{column: gorm.Expr(column+" + ?", delta)}
	}
}

// Kind names an interaction for client-facing messages.
type Kind struct {
	Name string // "Like"
	Verb string // "liked"
}

// Check is the result of an existence probe: Row is nil when Exists is false.
type Check[T any] struct {
	Exists bool `json:"exists"`
	Row    *T   `json:"row,omitempty"`
}

// Interactions manages one interaction kind. Every row insert or delete
// and the matching posts counter update commit in the same transaction.
type Interactions[T any, PT Row[T]] struct {
	db       *gorm.DB
	kind     Kind
	counter  CounterFunc[T]
	onChange func(ctx context.Context)
}

func NewInteractions[T any, PT Row[T]](db *gorm.DB, kind Kind, counter CounterFunc[T]) *Interactions[T, PT] {
	return &Interactions[T, PT]{db: db, kind: kind, counter: counter}
}

// OnChange registers fn to run after every committed create or remove.
func (s *Interactions[T, PT]) OnChange(fn func(ctx context.Context)) {
	s.onChange = fn
}

func (s *Interactions[T, PT]) Kind() Kind { return s.kind }

// Create records that userID interacted with postID.
func (s *Interactions[T, PT]) Create(ctx context.Context, postID, userID uint) (*T, error) {
	return s.create(ctx, postID, userID, nil)
}

func (s *Interactions[T, PT]) create(ctx context.Context, postID, userID uint, fill func(PT)) (*T, error) {
	row := PT(new(T))
	row.Bind(postID, userID)
	if fill != nil {
		fill(row)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requirePost(tx, postID); err != nil {
			return err
		}

		existing, err := s.find(tx, postID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return conflict("You have already %s this post", s.kind.Verb)
		}

		if err := tx.Create(row).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("You have already %s this post", s.kind.Verb)
			}
			return fmt.Errorf("insert %s: %w", s.kind.Name, err)
		}

		return s.adjust(tx, postID, row, 1)
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx)
	return (*T)(row), nil
}

// Remove deletes the user's interaction with the post.
func (s *Interactions[T, PT]) Remove(ctx context.Context, postID, userID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := s.find(tx, postID, userID)
		if err != nil {
			return err
		}
		if row == nil {
			return notFound("%s not found", s.kind.Name)
		}

		if err := tx.Delete(row).Error; err != nil {
			return fmt.Errorf("delete %s: %w", s.kind.Name, err)
		}

		return s.adjust(tx, postID, row, -1)
	})
	if err != nil {
		return err
	}

	s.changed(ctx)
	return nil
}

// FindAll lists every row with its post and user, newest first.
func (s *Interactions[T, PT]) FindAll(ctx context.Context) ([]T, error) {
	rows := []T{}
	err := s.db.WithContext(ctx).
		Preload("Post").
		Preload("User", publicUserColumns).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// FindByPost lists the rows for a post with the interacting user.
func (s *Interactions[T, PT]) FindByPost(ctx context.Context, postID uint) ([]T, error) {
	rows := []T{}
	err := s.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Preload("User", publicUserColumns).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// FindByUser lists a user's rows with the post, its author and category.
func (s *Interactions[T, PT]) FindByUser(ctx context.Context, userID uint) ([]T, error) {
	rows := []T{}
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Preload("Post.User", publicUserColumns).
		Preload("Post.Category").
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

// Check reports whether the user has interacted with the post.
func (s *Interactions[T, PT]) Check(ctx context.Context, postID, userID uint) (Check[T], error) {
	row, err := s.find(s.db.WithContext(ctx), postID, userID)
	if err != nil {
		return Check[T]{}, err
	}
	return Check[T]{Exists: row != nil, Row: row}, nil
}

func (s *Interactions[T, PT]) find(tx *gorm.DB, postID, userID uint) (*T, error) {
	var row T
	err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.kind.Name, err)
	}
	return &row, nil
}

func (s *Interactions[T, PT]) adjust(tx *gorm.DB, postID uint, row *T, delta int) error {
	err := tx.Model(&models.Post{}).
		Where("id = ?", postID).
		UpdateColumns(s.counter(row, delta)).Error
	if err != nil {
		return fmt.Errorf("update post counters: %w", err)
	}
	return nil
}

func (s *Interactions[T, PT]) changed(ctx context.Context) {
	if s.onChange != nil {
		s.onChange(ctx)
	}
}

func requirePost(tx *gorm.DB, postID uint) error {
	var post models.Post
	err := tx.Select("id").First(&post, postID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("Post not found")
	}
	return err
}

// publicUserColumns limits preloaded users to what other users may see.
func publicUserColumns(db *gorm.DB) *gorm.DB {
	return db.Select("id", "username", "image", "bio", "followers_count", "following_count", "created_at")
}

package service

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Ratings is the rating interaction: on top of ratings_count it keeps
// posts.ratings_value equal to the sum of the post's rating values.
type Ratings struct {
	*Interactions[models.Rating, *models.Rating]
}

func NewRatings(db *gorm.DB) *Ratings {
	counter := func(row *models.Rating, delta int) map[string]any {
		return map[string]any{
			"ratings_count": gorm.Expr("ratings_count + ?", delta),
			"ratings_value": gorm.Expr("ratings_value + ?", delta*row.Value),
		}
	}
	return &Ratings{
		Interactions: NewInteractions[models.Rating, *models.Rating](db, Kind{Name: "Rating", Verb: "rated"}, counter),
	}
}

// Create rates a post with value (1-5) and an optional review body.
func (s *Ratings) Create(ctx context.Context, postID, userID uint, value int, body string) (*models.Rating, error) {
	if err := validateRating(value); err != nil {
		return nil, err
	}
	return s.create(ctx, postID, userID, func(r *models.Rating) {
		r.Value = value
		r.Body = body
	})
}

// Update changes the value and/or body of an existing rating. A nil value
// leaves ratings_value untouched; otherwise the difference between the new
// and old value is applied to it.
func (s *Ratings) Update(ctx context.Context, postID, userID uint, value *int, body *string) (*models.Rating, error) {
	if value != nil {
		if err := validateRating(*value); err != nil {
			return nil, err
		}
	}

	var rating *models.Rating
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		rating, err = s.find(tx, postID, userID)
		if err != nil {
			return err
		}
		if rating == nil {
			return notFound("Rating not found")
		}

		delta := 0
		if value != nil {
			delta = *value - rating.Value
			rating.Value = *value
		}
		if body != nil {
			rating.Body = *body
		}

		err = tx.Model(rating).Updates(map[string]any{
			"value": rating.Value,
			"body":  rating.Body,
		}).Error
		if err != nil {
			return fmt.Errorf("update rating: %w", err)
		}

		if delta == 0 {
			return nil
		}
		err = tx.Model(&models.Post{}).
			Where("id = ?", postID).
			UpdateColumn("ratings_value", gorm.Expr("ratings_value + ?", delta)).Error
		if err != nil {
			return fmt.Errorf("update post ratings value: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.changed(ctx)
	return rating, nil
}

func validateRating(value int) error {
	if value < MinRating || value > MaxRating {
		return badRequest("Rating value must be between %d and %d", MinRating, MaxRating)
	}
	return nil
}

package service

import (
	"context"

	"gorm.io/gorm"

	"github.com/emilythestrangee/copymyprompt/backend/internal/models"
)

type Categories struct {
	db *gorm.DB
}

func NewCategories(db *gorm.DB) *Categories {
	return &Categories{db: db}
}

func (s *Categories) FindAll(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.WithContext(ctx).Order("id").Find(&categories).Error
	return categories, err
}

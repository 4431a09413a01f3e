package models

import "time"

type Post struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Title      string    `gorm:"size:255" json:"title"`
	Prompt     string    `gorm:"type:text;not null" json:"prompt"`
	Image      string    `gorm:"type:text;not null" json:"image"`
	Price      float64   `gorm:"type:numeric(10,2);not null;default:0" json:"price"`
	Model      string    `gorm:"size:100" json:"model"`
	CategoryID *uint     `gorm:"index" json:"category_id"`
	Category   *Category `gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL" json:"category,omitempty"`
	UserID     uint      `gorm:"not null;index" json:"user_id"`
	User       *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`

	LikesCount   int `gorm:"not null;default:0" json:"likes_count"`
	SharesCount  int `gorm:"not null;default:0" json:"shares_count"`
	CopiesCount  int `gorm:"not null;default:0" json:"copies_count"`
	RatingsCount int `gorm:"not null;default:0" json:"ratings_count"`
	RatingsValue int `gorm:"not null;default:0" json:"ratings_value"` // sum of rating values

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CreatePostRequest struct {
	Title      string  `json:"title" binding:"max=255"`
	Prompt     string  `json:"prompt" binding:"required"`
	Image      string  `json:"image" binding:"required"`
	Price      float64 `json:"price" binding:"gte=0"`
	Model      string  `json:"model" binding:"max=100"`
	CategoryID uint    `json:"category_id" binding:"required"`
}

package models

import "time"

// Like, Share, Copy and Rating are one-per-user-per-post interactions.
// Each kind has its own table with a unique (post_id, user_id) index and
// a matching counter column on posts.

type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_pair" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_likes_pair;index" json:"user_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Like) TableName() string { return "post_likes" }

func (l *Like) Bind(postID, userID uint) { l.PostID, l.UserID = postID, userID }

type Share struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_shares_pair" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_shares_pair;index" json:"user_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Share) TableName() string { return "post_shares" }

func (s *Share) Bind(postID, userID uint) { s.PostID, s.UserID = postID, userID }

type Copy struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_copies_pair" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_copies_pair;index" json:"user_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (Copy) TableName() string { return "post_copies" }

func (c *Copy) Bind(postID, userID uint) { c.PostID, c.UserID = postID, userID }

type Rating struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PostID    uint      `gorm:"not null;uniqueIndex:idx_post_ratings_pair" json:"post_id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_post_ratings_pair;index" json:"user_id"`
	Post      *Post     `gorm:"foreignKey:PostID;constraint:OnDelete:CASCADE" json:"post,omitempty"`
	User      *User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	Value     int       `gorm:"not null" json:"value"` // 1-5
	Body      string    `gorm:"type:text" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

func (Rating) TableName() string { return "post_ratings" }

func (r *Rating) Bind(postID, userID uint) { r.PostID, r.UserID = postID, userID }

type InteractionRequest struct {
	PostID uint `json:"post_id" binding:"required"`
}

type CreateRatingRequest struct {
	PostID uint   `json:"post_id" binding:"required"`
	Value  int    `json:"value" binding:"required,min=1,max=5"`
	Body   string `json:"body"`
}

type UpdateRatingRequest struct {
	Value *int    `json:"value" binding:"omitempty,min=1,max=5"`
	Body  *string `json:"body"`
}

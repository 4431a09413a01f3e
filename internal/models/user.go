package models

import "time"

type User struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Username string `gorm:"size:50;unique;not null" json:"username"`
	Email    string `gorm:"size:100;unique;not null" json:"email,omitempty"`
	Password string `json:"-"` // bcrypt hash, empty for provider sign-ins
	Image    string `gorm:"size:500" json:"image"`
	Source   string `gorm:"size:50;not null" json:"source,omitempty"` // "email", "google", ...
	Bio      string `gorm:"type:text" json:"bio"`
	Phone    string `gorm:"size:32" json:"-"`

	FollowingCount int `gorm:"not null;default:0" json:"following_count"`
	FollowersCount int `gorm:"not null;default:0" json:"followers_count"`

	Posts []Post `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"posts,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Image    string `json:"image" binding:"max=500"`
	Source   string `json:"source" binding:"required,max=50"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type CreateUserRequest struct {
	Username string `json:"username" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email,max=100"`
	Image    string `json:"image" binding:"max=500"`
	Source   string `json:"source" binding:"required,max=50"`
}

// UpdateUserRequest carries partial updates; nil fields are left untouched.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,max=50"`
	Email    *string `json:"email" binding:"omitempty,email,max=100"`
	Image    *string `json:"image" binding:"omitempty,max=500"`
	Source   *string `json:"source" binding:"omitempty,max=50"`
	Bio      *string `json:"bio"`
	Phone    *string `json:"phone" binding:"omitempty,max=32"`
}

// UpdateProfileRequest is the self-service subset: no email changes.
type UpdateProfileRequest struct {
	Username *string `json:"username" binding:"omitempty,max=50"`
	Image    *string `json:"image" binding:"omitempty,max=500"`
	Bio      *string `json:"bio"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

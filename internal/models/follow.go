package models

import "time"

// Follow records that FollowerID follows FollowingID.
type Follow struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	FollowerID  uint      `gorm:"not null;uniqueIndex:idx_user_follows_pair" json:"follower_id"`
	FollowingID uint      `gorm:"not null;uniqueIndex:idx_user_follows_pair;index" json:"following_id"`
	Follower    *User     `gorm:"foreignKey:FollowerID;constraint:OnDelete:CASCADE" json:"follower,omitempty"`
	Following   *User     `gorm:"foreignKey:FollowingID;constraint:OnDelete:CASCADE" json:"following,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

func (Follow) TableName() string { return "user_follows" }

// FollowSummary is the other side of a follow relationship.
type FollowSummary struct {
	ID             uint      `json:"id"`
	Username       string    `json:"username"`
	Image          string    `json:"image"`
	Bio            string    `json:"bio"`
	FollowersCount int       `json:"followers_count"`
	FollowedAt     time.Time `json:"followed_at"`
}

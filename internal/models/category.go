package models

import "time"

type Category struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultCategories are inserted the first time the schema is migrated.
var DefaultCategories = []string{"Technology", "Science", "Art", "Business", "Health"}

package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account identified by email. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint        `gorm:"primaryKey" json:"id"`
	Email        string      `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash string      `gorm:"size:255;not null" json:"-"`
	CreatedAt    time.Time   `json:"created_at"`
	Documents    []Document  `json:"-"`
	History      []QAHistory `json:"-"`
}

// BeforeCreate hook ensures the creation timestamp is set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	return nil
}

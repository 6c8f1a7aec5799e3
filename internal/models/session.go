package models

import "time"

// Session is a backend record of an issued token. Only the SHA-256 hash of
// the token is stored; logout deletes the row, which revokes the token even
// though the JWT itself is still within its validity window.
type Session struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	TokenHash string    `gorm:"uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Reputation tracks a per-user score adjusted by peer feedback. One row per
// user, created lazily on the first adjustment.
type Reputation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"uniqueIndex;not null" json:"user_id"`
	Score     int       `gorm:"default:0" json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

package models

import "time"

// Flag is a user report against an entry.
type Flag struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	EntryID   uint      `gorm:"index;not null" json:"entry_id"`
	Reason    string    `gorm:"size:512" json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

package models

import "time"

// Like marks that a user liked an entry. The unique (user, entry) index is
// the source of truth for "has liked"; a second insert is a conflict.
type Like struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_like_user_entry" json:"user_id"`
	EntryID   uint      `gorm:"not null;uniqueIndex:idx_like_user_entry;index" json:"entry_id"`
	CreatedAt time.Time `json:"created_at"`
	User      User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"user"`
}

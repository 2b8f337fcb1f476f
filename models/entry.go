package models

import "time"

// Entry represents a journal entry created by a user. Like and comment counts
// are derived from the Like/Comment tables, never stored on the row.
type Entry struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"index;not null" json:"user_id"`
	Title       string    `gorm:"size:255;not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	CategoryID  *uint     `gorm:"index" json:"category_id"`
	IsPinned    bool      `gorm:"default:false" json:"is_pinned"`
	IsVoiceNote bool      `gorm:"default:false" json:"is_voice_note"`
	Points      int       `gorm:"default:0" json:"points"`
	Attachments string    `gorm:"type:text" json:"attachments"` // JSON array of attachment URLs
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	User     User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"author"`
	Category *Category `json:"category,omitempty"`
	Tags     []Tag     `gorm:"many2many:entry_tags;" json:"tags"`

	// Derived counters, populated by controllers via COUNT queries.
	LikeCount    int64 `gorm:"-" json:"like_count"`
	CommentCount int64 `gorm:"-" json:"comment_count"`
	LikedByMe    bool  `gorm:"-" json:"liked_by_me"`
}

// Tag labels entries for search, recommendations and topic clustering.
type Tag struct {
	ID      uint    `gorm:"primaryKey" json:"id"`
	Name    string  `gorm:"size:64;uniqueIndex;not null" json:"name"`
	Entries []Entry `gorm:"many2many:entry_tags;" json:"-"`
}

// Category is an optional user-facing grouping for entries.
type Category struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"size:64;uniqueIndex;not null" json:"name"`
}

package models

import "time"

// Notification types created by the social handlers.
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationFollow  = "follow"
)

// Notification is a durable record addressed to UserID. The matching live
// push is best-effort; the row is what survives a missed push.
type Notification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;not null" json:"user_id"`
	Type      string    `gorm:"size:32;not null" json:"type"`
	Message   string    `gorm:"size:512" json:"message"`
	ActorID   uint      `json:"actor_id"`
	TargetID  uint      `json:"target_id"`
	IsRead    bool      `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

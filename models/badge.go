package models

import "time"

// Badge is awarded when a user crosses a points threshold or unlocks an
// achievement condition.
type Badge struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"size:64;not null" json:"name"`
	Description string    `gorm:"size:255" json:"description"`
	ImageURL    string    `gorm:"size:512" json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	Users       []User    `gorm:"many2many:user_badges;" json:"-"`
}

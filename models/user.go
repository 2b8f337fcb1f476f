package models

import (
	"time"

	"gorm.io/gorm"
)

// Subscription tiers and statuses mirror the values Stripe webhooks write back.
const (
	TierFree       = "FREE"
	TierPro        = "PRO"
	TierEnterprise = "ENTERPRISE"

	SubscriptionActive   = "ACTIVE"
	SubscriptionInactive = "INACTIVE"
)

// User represents a ClubDev member. Passwords are stored as bcrypt hashes only.
type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Username     string `gorm:"size:64;not null" json:"username"`
	Email        string `gorm:"size:255" json:"email"`
	PasswordHash string `gorm:"size:255" json:"-"`
	Provider     string `gorm:"size:32" json:"provider"`
	ProviderID   string `gorm:"size:255" json:"provider_id"`
	AvatarURL    string `gorm:"size:512" json:"avatar_url"`
	Bio          string `gorm:"size:255" json:"bio"`

	// Gamification
	Points        int        `gorm:"default:0" json:"points"`
	CurrentStreak int        `gorm:"default:0" json:"current_streak"`
	LongestStreak int        `gorm:"default:0" json:"longest_streak"`
	LastEntryAt   *time.Time `json:"last_entry_at"`

	// Subscription state, maintained by the Stripe webhook handler.
	StripeCustomerID    string     `gorm:"size:64;index" json:"-"`
	SubscriptionTier    string     `gorm:"size:16;default:'FREE'" json:"subscription_tier"`
	SubscriptionStatus  string     `gorm:"size:16;default:'INACTIVE'" json:"subscription_status"`
	SubscriptionEndDate *time.Time `json:"subscription_end_date"`

	// Integration tokens are never serialized.
	GitHubToken string `gorm:"size:255" json:"-"`
	NotionToken string `gorm:"size:255" json:"-"`

	// UI preference surfaced by the animation-preference endpoint.
	ReducedMotion bool `gorm:"default:false" json:"reduced_motion"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Entries  []Entry   `json:"-"`
	Comments []Comment `json:"-"`
	Badges   []Badge   `gorm:"many2many:user_badges;" json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}

package models

import "time"

// EmailSubscription is a landing-page mailing list entry.
type EmailSubscription struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;not null" json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

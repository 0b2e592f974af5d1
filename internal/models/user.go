// Package models contains data structures for the application's domain models.
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gender enumerates the profile gender / preference values.
type Gender string

const (
	// GenderMale is the MALE profile value.
	GenderMale Gender = "MALE"
	// GenderFemale is the FEMALE profile value.
	GenderFemale Gender = "FEMALE"
)

// ValidGender reports whether s is one of the accepted enum values.
func ValidGender(s string) bool {
	return Gender(s) == GenderMale || Gender(s) == GenderFemale
}

// User is the identity anchor: one row per connected wallet. The row also
// carries the token balance and the one-shot mission flags, so every token
// operation is a conditional update against this single record.
type User struct {
	ID         string `gorm:"primaryKey;size:36" json:"id"`
	Wallet     string `gorm:"uniqueIndex;size:44;not null" json:"wallet"`
	Name       string `gorm:"size:100" json:"name"`
	Bio        string `gorm:"type:text" json:"bio"`
	Image      string `json:"image"`
	Gender     Gender `gorm:"type:varchar(10)" json:"gender,omitempty"`
	LookingFor Gender `gorm:"type:varchar(10)" json:"looking_for,omitempty"`
	Onboarded  bool   `gorm:"default:false" json:"onboarded"`

	Tokens         int64      `gorm:"not null;default:0" json:"tokens"`
	LastDailyClaim *time.Time `json:"last_daily_claim"`

	// One-time social mission flags, monotonic false -> true.
	VisitedX         bool `gorm:"default:false" json:"visited_x"`
	VisitedInstagram bool `gorm:"default:false" json:"visited_instagram"`
	VisitedTiktok    bool `gorm:"default:false" json:"visited_tiktok"`
	VisitedYoutube   bool `gorm:"default:false" json:"visited_youtube"`
	VisitedTelegram  bool `gorm:"default:false" json:"visited_telegram"`

	// ID of the user whose referral link was used on first connect, if any.
	// Written once at creation; the referral award keys off it.
	ReferredBy string `gorm:"size:36;index" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns an opaque UUID identifier.
func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// ProfileComplete reports whether the three display fields required for the
// swipe deck are all present. Onboarded is derived from this, never asserted
// independently.
func (u *User) ProfileComplete() bool {
	return u.Name != "" && u.Bio != "" && u.Image != ""
}

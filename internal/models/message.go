package models

import "time"

// Message is a chat message between two matched users. Rows are immutable
// after creation; realtime delivery happens on a channel derived from the
// two participant IDs, never stored.
type Message struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	FromUserID string    `gorm:"size:36;not null;index" json:"from_user_id"`
	ToUserID   string    `gorm:"size:36;not null;index" json:"to_user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

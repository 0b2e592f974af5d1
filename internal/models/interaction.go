package models

import "time"

// LikeEdge is a directed like from one user to another.
// At most one edge exists per ordered (from, to) pair.
type LikeEdge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FromID    string    `gorm:"size:36;not null;uniqueIndex:idx_like_pair" json:"from_id"`
	ToID      string    `gorm:"size:36;not null;uniqueIndex:idx_like_pair" json:"to_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (LikeEdge) TableName() string {
	return "user_likes"
}

// DislikeEdge is a directed dislike from one user to another.
// At most one edge exists per ordered (from, to) pair.
type DislikeEdge struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	FromID    string    `gorm:"size:36;not null;uniqueIndex:idx_dislike_pair" json:"from_id"`
	ToID      string    `gorm:"size:36;not null;uniqueIndex:idx_dislike_pair" json:"to_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM.
func (DislikeEdge) TableName() string {
	return "user_dislikes"
}

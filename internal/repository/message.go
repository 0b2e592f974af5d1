package repository

import (
	"context"

	"exon/internal/models"

	"gorm.io/gorm"
)

// MessageRepository persists chat messages. Rows are immutable: there is no
// update or delete path.
type MessageRepository interface {
	Create(ctx context.Context, msg *models.Message) error
	// ListBetween returns messages exchanged between two users in either
	// direction, oldest first.
	ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]models.Message, error)
}

type messageRepository struct {
	db *gorm.DB
}

// NewMessageRepository returns a new MessageRepository implementation.
func NewMessageRepository(db *gorm.DB) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *models.Message) error {
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *messageRepository) ListBetween(ctx context.Context, userA, userB string, limit, offset int) ([]models.Message, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	var msgs []models.Message
	if err := r.db.WithContext(ctx).
		Where("(from_user_id = ? AND to_user_id = ?) OR (from_user_id = ? AND to_user_id = ?)",
			userA, userB, userB, userA).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&msgs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return msgs, nil
}

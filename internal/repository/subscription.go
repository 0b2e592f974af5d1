package repository

import (
	"context"

	"exon/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository stores landing-page email subscriptions.
type SubscriptionRepository interface {
	// Subscribe inserts the email, ignoring duplicates.
	Subscribe(ctx context.Context, email string) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository returns a new SubscriptionRepository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Subscribe(ctx context.Context, email string) error {
	sub := &models.EmailSubscription{Email: email}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(sub).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

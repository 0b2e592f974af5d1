package repository

import (
	"context"

	"exon/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InteractionRepository records directed like/dislike edges between users.
// Recording is idempotent: the unique pair index plus ON CONFLICT DO NOTHING
// makes a repeat swipe a silent no-op at the database level.
type InteractionRepository interface {
	RecordLike(ctx context.Context, fromID, toID string) error
	RecordDislike(ctx context.Context, fromID, toID string) error
	HasLike(ctx context.Context, fromID, toID string) (bool, error)
	LikedIDs(ctx context.Context, fromID string) ([]string, error)
	DislikedIDs(ctx context.Context, fromID string) ([]string, error)
	LikerIDs(ctx context.Context, toID string) ([]string, error)
}

type interactionRepository struct {
	db *gorm.DB
}

// NewInteractionRepository returns a new InteractionRepository implementation.
func NewInteractionRepository(db *gorm.DB) InteractionRepository {
	return &interactionRepository{db: db}
}

var pairConflict = clause.OnConflict{
	Columns:   []clause.Column{{Name: "from_id"}, {Name: "to_id"}},
	DoNothing: true,
}

func (r *interactionRepository) RecordLike(ctx context.Context, fromID, toID string) error {
	edge := &models.LikeEdge{FromID: fromID, ToID: toID}
	if err := r.db.WithContext(ctx).Clauses(pairConflict).Create(edge).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *interactionRepository) RecordDislike(ctx context.Context, fromID, toID string) error {
	edge := &models.DislikeEdge{FromID: fromID, ToID: toID}
	if err := r.db.WithContext(ctx).Clauses(pairConflict).Create(edge).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *interactionRepository) HasLike(ctx context.Context, fromID, toID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.LikeEdge{}).
		Where("from_id = ? AND to_id = ?", fromID, toID).
		Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *interactionRepository) LikedIDs(ctx context.Context, fromID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.LikeEdge{}).
		Where("from_id = ?", fromID).
		Pluck("to_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *interactionRepository) DislikedIDs(ctx context.Context, fromID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.DislikeEdge{}).
		Where("from_id = ?", fromID).
		Pluck("to_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *interactionRepository) LikerIDs(ctx context.Context, toID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&models.LikeEdge{}).
		Where("to_id = ?", toID).
		Pluck("from_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

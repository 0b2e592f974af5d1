// Package repository implements the data access layer for the application.
package repository

import (
	"context"
	"errors"
	"strings"

	"exon/internal/cache"
	"exon/internal/models"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByWallet(ctx context.Context, wallet string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// Update writes the profile columns for user.ID. Token balance and claim
	// state are owned by the ledger and are never written here.
	Update(ctx context.Context, user *models.User) error
	// ListCandidates returns users with complete profiles, excluding the
	// requester, in creation order. No ranking is applied.
	ListCandidates(ctx context.Context, excludeID string, lookingFor models.Gender, limit, offset int) ([]models.User, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.User, error)
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	key := cache.UserKey(id)

	err := cache.Aside(ctx, key, &user, cache.UserTTL, func() error {
		if err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("User", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByWallet(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("wallet = ?", wallet).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("User already exists")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}

// Update writes only the profile columns; tokens, last_daily_claim and the
// visited flags move exclusively through the ledger's conditional updates.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Updates(map[string]any{
			"name":        user.Name,
			"bio":         user.Bio,
			"image":       user.Image,
			"gender":      user.Gender,
			"looking_for": user.LookingFor,
			"onboarded":   user.Onboarded,
		}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateUser(ctx, user.ID)
	return nil
}

func (r *userRepository) ListCandidates(ctx context.Context, excludeID string, lookingFor models.Gender, limit, offset int) ([]models.User, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}

	q := r.db.WithContext(ctx).
		Where("id <> ?", excludeID).
		Where("name <> '' AND bio <> '' AND image <> ''").
		Order("created_at ASC").
		Limit(limit).
		Offset(offset)
	if lookingFor != "" {
		q = q.Where("gender = ?", lookingFor)
	}

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (r *userRepository) ListByIDs(ctx context.Context, ids []string) ([]models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var users []models.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

package service

import (
	"context"
	"strings"

	"exon/internal/config"
	"exon/internal/models"
	"exon/internal/repository"
	"exon/internal/wallet"
)

const (
	maxNameLen = 100
	maxBioLen  = 2000
)

// UpdateProfileInput carries a partial profile update. Nil pointers leave the
// corresponding field untouched.
type UpdateProfileInput struct {
	UserID    string
	Signature string

	Name       *string
	Bio        *string
	Image      *string
	Gender     *string
	LookingFor *string
}

// ProfileService manages the mutable profile fields of a user.
type ProfileService struct {
	userRepo repository.UserRepository
	cfg      *config.Config
}

// NewProfileService returns a new ProfileService.
func NewProfileService(userRepo repository.UserRepository, cfg *config.Config) *ProfileService {
	return &ProfileService{
		userRepo: userRepo,
		cfg:      cfg,
	}
}

// Get returns the user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// Update applies a signed partial profile update. The signature over the
// login message gates every write; when it does not verify, nothing changes.
// Onboarded is recomputed from the resulting profile, never set directly.
func (s *ProfileService) Update(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	ok, err := wallet.VerifySignature(user.Wallet, s.cfg.LoginMessage, in.Signature)
	if err != nil {
		return nil, models.NewValidationError("Malformed signature")
	}
	if !ok {
		return nil, models.NewUnauthorizedError("Signature verification failed")
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if len(name) > maxNameLen {
			return nil, models.NewValidationError("Name is too long")
		}
		user.Name = name
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if len(bio) > maxBioLen {
			return nil, models.NewValidationError("Bio is too long")
		}
		user.Bio = bio
	}
	if in.Image != nil {
		user.Image = strings.TrimSpace(*in.Image)
	}
	if in.Gender != nil {
		if *in.Gender != "" && !models.ValidGender(*in.Gender) {
			return nil, models.NewValidationError("Invalid gender value")
		}
		user.Gender = models.Gender(*in.Gender)
	}
	if in.LookingFor != nil {
		if *in.LookingFor != "" && !models.ValidGender(*in.LookingFor) {
			return nil, models.NewValidationError("Invalid looking_for value")
		}
		user.LookingFor = models.Gender(*in.LookingFor)
	}

	user.Onboarded = user.ProfileComplete()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package service

import (
	"context"
	"net/mail"
	"strings"

	"exon/internal/models"
	"exon/internal/repository"
)

// SubscriptionService records landing-page email signups.
type SubscriptionService struct {
	repo repository.SubscriptionRepository
}

// NewSubscriptionService returns a new SubscriptionService.
func NewSubscriptionService(repo repository.SubscriptionRepository) *SubscriptionService {
	return &SubscriptionService{repo: repo}
}

// Subscribe validates and stores an email address. Resubscribing an existing
// address succeeds without creating a duplicate.
func (s *SubscriptionService) Subscribe(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return models.NewValidationError("Email is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return models.NewValidationError("Invalid email address")
	}
	return s.repo.Subscribe(ctx, email)
}

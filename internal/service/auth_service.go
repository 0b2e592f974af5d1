// Package service contains the business logic layer.
package service

import (
	"context"

	"exon/internal/config"
	"exon/internal/ledger"
	"exon/internal/middleware"
	"exon/internal/models"
	"exon/internal/repository"
	"exon/internal/wallet"
)

// ConnectInput carries a wallet-connect attempt.
type ConnectInput struct {
	Wallet    string
	Signature string
	// Referrer is the optional user ID from a referral link.
	Referrer string
}

// ConnectResult is the outcome of a successful wallet connect.
type ConnectResult struct {
	User    *models.User
	Token   string
	Created bool
}

// AuthService handles wallet-based sign-in. The wallet proves ownership by
// signing the configured login message; a valid signature either resolves the
// existing account or creates one.
type AuthService struct {
	userRepo repository.UserRepository
	ledger   *ledger.Ledger
	cfg      *config.Config
}

// NewAuthService returns a new AuthService.
func NewAuthService(userRepo repository.UserRepository, l *ledger.Ledger, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		ledger:   l,
		cfg:      cfg,
	}
}

// Connect verifies the signed login message and returns a session token for
// the wallet's account, creating the account on first connect. A referral is
// credited only on creation, so reconnecting can never re-award it.
func (s *AuthService) Connect(ctx context.Context, in ConnectInput) (*ConnectResult, error) {
	if !wallet.ValidAddress(in.Wallet) {
		return nil, models.NewValidationError("Invalid wallet address")
	}

	ok, err := wallet.VerifySignature(in.Wallet, s.cfg.LoginMessage, in.Signature)
	if err != nil {
		return nil, models.NewValidationError("Malformed signature")
	}
	if !ok {
		return nil, models.NewUnauthorizedError("Signature verification failed")
	}

	user, err := s.userRepo.GetByWallet(ctx, in.Wallet)
	if err != nil {
		return nil, err
	}

	created := false
	if user == nil {
		user = &models.User{Wallet: in.Wallet}
		if referrer := s.resolveReferrer(ctx, in.Referrer, in.Wallet); referrer != "" {
			user.ReferredBy = referrer
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return nil, err
		}
		created = true

		if user.ReferredBy != "" {
			if err := s.ledger.AwardReferral(ctx, user.ReferredBy); err != nil {
				middleware.Logger.WarnContext(ctx, "Referral award failed",
					"referrer_id", user.ReferredBy, "error", err)
			}
		}
	}

	token, err := middleware.IssueSessionToken(s.cfg.JWTSecret, user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	return &ConnectResult{User: user, Token: token, Created: created}, nil
}

// resolveReferrer returns the referrer's user ID when the referral is usable.
// Unknown referrers and self-referrals are silently ignored.
func (s *AuthService) resolveReferrer(ctx context.Context, referrerID, newWallet string) string {
	if referrerID == "" {
		return ""
	}
	referrer, err := s.userRepo.GetByID(ctx, referrerID)
	if err != nil || referrer == nil {
		return ""
	}
	if referrer.Wallet == newWallet {
		return ""
	}
	return referrer.ID
}

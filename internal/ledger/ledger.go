// Package ledger implements every mutation of the per-user token balance:
// the daily claim, one-time social-mission claims, the referral award, and
// the message-send fee.
//
// Each operation is a single conditional UPDATE whose WHERE clause carries
// the "not yet claimed" / "sufficient balance" check, so two concurrent
// requests can never both win: the database applies the increment and the
// guard atomically, and RowsAffected tells us which side we landed on.
package ledger

import (
	"context"
	"errors"
	"time"

	"exon/internal/cache"
	"exon/internal/models"
	"exon/internal/observability"

	"gorm.io/gorm"
)

const (
	// DailyAward is credited at most once per UTC calendar day.
	DailyAward int64 = 200
	// SocialAward is credited at most once per social platform, ever.
	SocialAward int64 = 50
	// ReferralAward is credited to the referrer when a referred wallet
	// connects for the first time.
	ReferralAward int64 = 500
	// MessageFee is debited from the sender for every chat message.
	MessageFee int64 = 5
)

// socialColumns maps the public platform key to the flag column guarding its
// one-time award. Only keys present here are claimable.
var socialColumns = map[string]string{
	"x":         "visited_x",
	"instagram": "visited_instagram",
	"tiktok":    "visited_tiktok",
	"youtube":   "visited_youtube",
	"telegram":  "visited_telegram",
}

// Platforms returns the claimable social platform keys.
func Platforms() []string {
	keys := make([]string, 0, len(socialColumns))
	for k := range socialColumns {
		keys = append(keys, k)
	}
	return keys
}

// ClaimResult reports the outcome of a claim operation.
type ClaimResult struct {
	Tokens         int64
	AlreadyClaimed bool
	LastDailyClaim *time.Time
}

// Ledger performs token balance mutations.
type Ledger struct {
	db *gorm.DB
}

// New returns a Ledger backed by the given database.
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// ClaimDaily credits DailyAward once per UTC calendar day for the wallet.
// A repeat claim on the same day is a no-op reported via AlreadyClaimed.
func (l *Ledger) ClaimDaily(ctx context.Context, wallet string) (*ClaimResult, error) {
	now := time.Now().UTC()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("wallet = ?", wallet).
		Where("last_daily_claim IS NULL OR last_daily_claim < ?", dayStart).
		Updates(map[string]any{
			"tokens":           gorm.Expr("tokens + ?", DailyAward),
			"last_daily_claim": now,
		})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}

	user, err := l.fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}

	awarded := res.RowsAffected > 0
	if awarded {
		observability.TokensAwarded.WithLabelValues("daily").Add(float64(DailyAward))
		cache.InvalidateUser(ctx, user.ID)
	}

	return &ClaimResult{
		Tokens:         user.Tokens,
		AlreadyClaimed: !awarded,
		LastDailyClaim: user.LastDailyClaim,
	}, nil
}

// ClaimSocial credits SocialAward for the given platform, at most once ever
// per (wallet, platform). Unknown platforms are a validation error.
func (l *Ledger) ClaimSocial(ctx context.Context, wallet, platform string) (*ClaimResult, error) {
	column, ok := socialColumns[platform]
	if !ok {
		return nil, models.NewValidationError("Unknown social platform")
	}

	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("wallet = ?", wallet).
		Where(column+" = ?", false).
		Updates(map[string]any{
			"tokens": gorm.Expr("tokens + ?", SocialAward),
			column:   true,
		})
	if res.Error != nil {
		return nil, models.NewInternalError(res.Error)
	}

	user, err := l.fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}

	awarded := res.RowsAffected > 0
	if awarded {
		observability.TokensAwarded.WithLabelValues("social").Add(float64(SocialAward))
		cache.InvalidateUser(ctx, user.ID)
	}

	return &ClaimResult{
		Tokens:         user.Tokens,
		AlreadyClaimed: !awarded,
		LastDailyClaim: user.LastDailyClaim,
	}, nil
}

// AwardReferral credits ReferralAward to the referrer. The caller invokes
// this exactly once, when a referred wallet is first created; the new user's
// referred_by column records that the award happened.
func (l *Ledger) AwardReferral(ctx context.Context, referrerID string) error {
	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", referrerID).
		Update("tokens", gorm.Expr("tokens + ?", ReferralAward))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", referrerID)
	}
	observability.TokensAwarded.WithLabelValues("referral").Add(float64(ReferralAward))
	cache.InvalidateUser(ctx, referrerID)
	return nil
}

// DebitMessageFee deducts MessageFee from the user, rejecting the spend when
// the balance is insufficient. Balances never go negative.
func (l *Ledger) DebitMessageFee(ctx context.Context, userID string) error {
	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Where("tokens >= ?", MessageFee).
		Update("tokens", gorm.Expr("tokens - ?", MessageFee))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := l.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Count(&count).Error; err != nil {
			return models.NewInternalError(err)
		}
		if count == 0 {
			return models.NewNotFoundError("User", userID)
		}
		return models.NewInsufficientTokensError(MessageFee)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// RefundMessageFee returns MessageFee to the user. Used when the message
// insert fails after the fee was already debited.
func (l *Ledger) RefundMessageFee(ctx context.Context, userID string) error {
	res := l.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("tokens", gorm.Expr("tokens + ?", MessageFee))
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("User", userID)
	}
	cache.InvalidateUser(ctx, userID)
	return nil
}

// Balance reads the current balance and last daily claim, bypassing caches.
func (l *Ledger) Balance(ctx context.Context, wallet string) (*ClaimResult, error) {
	user, err := l.fetch(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return &ClaimResult{
		Tokens:         user.Tokens,
		LastDailyClaim: user.LastDailyClaim,
	}, nil
}

func (l *Ledger) fetch(ctx context.Context, wallet string) (*models.User, error) {
	var user models.User
	if err := l.db.WithContext(ctx).Where("wallet = ?", wallet).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("User", wallet)
		}
		return nil, models.NewInternalError(err)
	}
	return &user, nil
}

package service

import (
	"context"

	"exon/internal/middleware"
	"exon/internal/models"
	"exon/internal/notifications"
	"exon/internal/repository"
)

// SwipeResult reports the outcome of a recorded swipe.
type SwipeResult struct {
	Matched bool `json:"matched"`
}

// MatchService implements the swipe deck and match derivation. A match is
// never stored: it is the presence of like edges in both directions, derived
// on read and announced over pub/sub when the second edge lands.
type MatchService struct {
	userRepo        repository.UserRepository
	interactionRepo repository.InteractionRepository
	notifier        *notifications.Notifier
}

// NewMatchService returns a new MatchService.
func NewMatchService(
	userRepo repository.UserRepository,
	interactionRepo repository.InteractionRepository,
	notifier *notifications.Notifier,
) *MatchService {
	return &MatchService{
		userRepo:        userRepo,
		interactionRepo: interactionRepo,
		notifier:        notifier,
	}
}

// Discover returns swipe candidates for the user: complete profiles matching
// the gender preference, excluding the requester, anyone they disliked, and
// anyone they already matched with.
func (s *MatchService) Discover(ctx context.Context, userID string, limit, offset int) ([]models.User, error) {
	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates, err := s.userRepo.ListCandidates(ctx, userID, me.LookingFor, limit, offset)
	if err != nil {
		return nil, err
	}

	disliked, err := s.interactionRepo.DislikedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	matched, err := s.matchedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	hidden := make(map[string]struct{}, len(disliked)+len(matched))
	for _, id := range disliked {
		hidden[id] = struct{}{}
	}
	for _, id := range matched {
		hidden[id] = struct{}{}
	}

	deck := make([]models.User, 0, len(candidates))
	for _, candidate := range candidates {
		if _, skip := hidden[candidate.ID]; skip {
			continue
		}
		deck = append(deck, candidate)
	}
	return deck, nil
}

// Matches returns the users the given user has matched with.
func (s *MatchService) Matches(ctx context.Context, userID string) ([]models.User, error) {
	ids, err := s.matchedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.userRepo.ListByIDs(ctx, ids)
}

// matchedIDs intersects outgoing likes with incoming likes.
func (s *MatchService) matchedIDs(ctx context.Context, userID string) ([]string, error) {
	liked, err := s.interactionRepo.LikedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	likers, err := s.interactionRepo.LikerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	likerSet := make(map[string]struct{}, len(likers))
	for _, id := range likers {
		likerSet[id] = struct{}{}
	}

	var matched []string
	for _, id := range liked {
		if _, ok := likerSet[id]; ok {
			matched = append(matched, id)
		}
	}
	return matched, nil
}

// Like records a like edge from the user to the target. A self-swipe is a
// silent no-op. When the reverse edge already exists, both users are notified
// of the new match; delivery is best-effort and never fails the swipe.
func (s *MatchService) Like(ctx context.Context, userID, targetID string) (*SwipeResult, error) {
	if userID == targetID {
		return &SwipeResult{}, nil
	}
	target, err := s.userRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := s.interactionRepo.RecordLike(ctx, userID, targetID); err != nil {
		return nil, err
	}

	reverse, err := s.interactionRepo.HasLike(ctx, targetID, userID)
	if err != nil {
		return nil, err
	}
	if !reverse {
		return &SwipeResult{}, nil
	}

	me, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.announceMatch(ctx, me, target)
	return &SwipeResult{Matched: true}, nil
}

// Dislike records a dislike edge from the user to the target. A self-swipe is
// a silent no-op.
func (s *MatchService) Dislike(ctx context.Context, userID, targetID string) error {
	if userID == targetID {
		return nil
	}
	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		return err
	}
	return s.interactionRepo.RecordDislike(ctx, userID, targetID)
}

func (s *MatchService) announceMatch(ctx context.Context, a, b *models.User) {
	if s.notifier == nil {
		return
	}
	for _, pair := range [2][2]*models.User{{a, b}, {b, a}} {
		recipient, other := pair[0], pair[1]
		if err := s.notifier.PublishUser(ctx, recipient.ID, notifications.EventNewMatch, other); err != nil {
			middleware.Logger.WarnContext(ctx, "Match notification publish failed",
				"user_id", recipient.ID, "error", err)
		}
	}
}

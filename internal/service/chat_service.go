package service

import (
	"context"
	"strings"

	"exon/internal/ledger"
	"exon/internal/middleware"
	"exon/internal/models"
	"exon/internal/notifications"
	"exon/internal/observability"
	"exon/internal/repository"
)

const maxMessageLen = 2000

// ChatService handles paid message sending and history between matched users.
type ChatService struct {
	messageRepo repository.MessageRepository
	userRepo    repository.UserRepository
	ledger      *ledger.Ledger
	notifier    *notifications.Notifier
}

// NewChatService returns a new ChatService.
func NewChatService(
	messageRepo repository.MessageRepository,
	userRepo repository.UserRepository,
	l *ledger.Ledger,
	notifier *notifications.Notifier,
) *ChatService {
	return &ChatService{
		messageRepo: messageRepo,
		userRepo:    userRepo,
		ledger:      l,
		notifier:    notifier,
	}
}

// SendMessage debits the sender's message fee, persists the message, and
// publishes it to the pair's chat channel.
//
// The fee is taken before the insert so a failed debit rejects the message
// outright; a failed insert refunds the fee. A failed publish after the
// insert only degrades delivery: the message is durable and history serves
// it, so the send still succeeds.
func (s *ChatService) SendMessage(ctx context.Context, fromID, toID, content string) (*models.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, models.NewValidationError("Message content is required")
	}
	if len(content) > maxMessageLen {
		return nil, models.NewValidationError("Message content is too long")
	}
	if fromID == toID {
		return nil, models.NewValidationError("Cannot message yourself")
	}
	if _, err := s.userRepo.GetByID(ctx, toID); err != nil {
		return nil, err
	}

	if err := s.ledger.DebitMessageFee(ctx, fromID); err != nil {
		return nil, err
	}

	msg := &models.Message{
		FromUserID: fromID,
		ToUserID:   toID,
		Content:    content,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		if refundErr := s.ledger.RefundMessageFee(ctx, fromID); refundErr != nil {
			middleware.Logger.ErrorContext(ctx, "Message fee refund failed",
				"user_id", fromID, "error", refundErr)
		}
		return nil, err
	}
	observability.MessagesSent.Inc()

	if s.notifier != nil {
		if err := s.notifier.PublishChat(ctx, fromID, toID, notifications.EventNewMessage, msg); err != nil {
			observability.PublishFailures.Inc()
			middleware.Logger.WarnContext(ctx, "Chat message publish failed",
				"channel", notifications.ChatChannel(fromID, toID), "error", err)
		}
	}

	return msg, nil
}

// History returns the conversation between the user and the other party,
// oldest first.
func (s *ChatService) History(ctx context.Context, userID, otherID string, limit, offset int) ([]models.Message, error) {
	if _, err := s.userRepo.GetByID(ctx, otherID); err != nil {
		return nil, err
	}
	return s.messageRepo.ListBetween(ctx, userID, otherID, limit, offset)
}

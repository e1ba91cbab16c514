package chat

import (
	"context"
	"strings"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/models"
	"kawanchat/server/internal/notify"
	"kawanchat/server/internal/store"

	"go.uber.org/zap"
)

// FriendChecker answers whether two users are friends
type FriendChecker interface {
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

// Service is the caller-facing side of messaging: it authorises the caller,
// then delegates to the relay.
type Service struct {
	relay    *Relay
	users    store.Querier
	friends  FriendChecker
	notifier notify.Notifier
	log      *zap.Logger
}

func NewService(relay *Relay, users store.Querier, friends FriendChecker, notifier notify.Notifier, log *zap.Logger) *Service {
	return &Service{
		relay:    relay,
		users:    users,
		friends:  friends,
		notifier: notifier,
		log:      log,
	}
}

// Send persists a message from sender to recipientID and pushes it to both
// of them.
func (s *Service) Send(ctx context.Context, sender models.User, recipientID int64, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperror.ErrEmptyMessage
	}
	if sender.ID == recipientID {
		return nil, apperror.ErrSelfMessage
	}

	exists, err := s.users.UserExists(ctx, recipientID)
	if err != nil {
		return nil, apperror.Unavailable("user lookup failed", err)
	}
	if !exists {
		return nil, apperror.UserNotFound(recipientID)
	}

	friends, err := s.friends.AreFriends(ctx, sender.ID, recipientID)
	if err != nil {
		return nil, err
	}
	if !friends {
		return nil, apperror.ErrNotFriends
	}

	msg, err := s.relay.Save(ctx, models.Message{
		SenderID:    sender.ID,
		RecipientID: recipientID,
		Content:     content,
	})
	if err != nil {
		return nil, err
	}

	notification := models.ChatNotification{
		ID:            msg.ID,
		SenderID:      msg.SenderID,
		RecipientID:   msg.RecipientID,
		Content:       msg.Content,
		Timestamp:     msg.Timestamp,
		MessageStatus: msg.Status,
	}
	s.notifier.SendToUser(ctx, msg.RecipientID, notify.DestMessages, notification)
	s.notifier.SendToUser(ctx, msg.SenderID, notify.DestMessages, notification)

	s.log.Debug("message sent",
		zap.Int64("message_id", msg.ID),
		zap.Int64("sender_id", msg.SenderID),
		zap.Int64("recipient_id", msg.RecipientID),
	)
	return msg, nil
}

// History returns the conversation between a and b. The caller must be one
// of them.
func (s *Service) History(ctx context.Context, caller models.User, a, b int64) ([]models.Message, error) {
	if caller.ID != a && caller.ID != b {
		return nil, apperror.ErrConversationForbidden
	}
	return s.relay.History(ctx, a, b)
}

// LastMessage returns the preview of the latest message between a and b, or
// nil when they never talked.
func (s *Service) LastMessage(ctx context.Context, caller models.User, a, b int64) (*models.LastMessage, error) {
	if caller.ID != a && caller.ID != b {
		return nil, apperror.ErrConversationForbidden
	}

	msg, err := s.relay.LastMessage(ctx, a, b)
	if err != nil || msg == nil {
		return nil, err
	}
	last := msg.ToLastMessage()
	return &last, nil
}

// MarkSeen marks senderID's messages to recipientID as seen. Only the
// recipient may do this.
func (s *Service) MarkSeen(ctx context.Context, caller models.User, senderID, recipientID int64) (int64, error) {
	if caller.ID != recipientID {
		return 0, apperror.ErrMarkSeenForbidden
	}
	return s.relay.MarkSeen(ctx, senderID, recipientID)
}

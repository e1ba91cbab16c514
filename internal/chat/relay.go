// Package chat persists one-to-one messages and pushes them to both parties.
package chat

import (
	"context"
	"errors"
	"time"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/chatroom"
	"kawanchat/server/internal/models"
	"kawanchat/server/internal/store"
)

// Relay stores and reads messages. It never creates a message outside a
// channel, and reads never create channels.
type Relay struct {
	q        store.Querier
	channels *chatroom.Resolver
	now      func() time.Time
}

// NewRelay stores messages through q and finds their channels with channels
func NewRelay(q store.Querier, channels *chatroom.Resolver) *Relay {
	return &Relay{q: q, channels: channels, now: time.Now}
}

// Save resolves the pair's channel, stamps the message and persists it as
// UNSEEN.
func (r *Relay) Save(ctx context.Context, msg models.Message) (*models.Message, error) {
	ch, err := r.channels.GetOrCreate(ctx, msg.SenderID, msg.RecipientID)
	if err != nil {
		return nil, err
	}

	msg.ChannelID = ch.ID
	msg.Timestamp = r.now()
	msg.Status = models.MessageStatusUnseen

	if err := r.q.CreateMessage(ctx, &msg); err != nil {
		return nil, apperror.Unavailable("failed to save message", err)
	}
	return &msg, nil
}

// History returns the pair's messages oldest first. A pair that never talked
// has an empty history.
func (r *Relay) History(ctx context.Context, a, b int64) ([]models.Message, error) {
	channelID, ok, err := r.channels.ExistingID(ctx, a, b)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []models.Message{}, nil
	}

	messages, err := r.q.MessagesByChannel(ctx, channelID)
	if err != nil {
		return nil, apperror.Unavailable("failed to load messages", err)
	}
	return messages, nil
}

// LastMessage returns the most recent message in either direction, or nil
func (r *Relay) LastMessage(ctx context.Context, a, b int64) (*models.Message, error) {
	channelID, ok, err := r.channels.ExistingID(ctx, a, b)
	if err != nil || !ok {
		return nil, err
	}

	msg, err := r.q.LastMessageByChannel(ctx, channelID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperror.Unavailable("failed to load last message", err)
	}
	return msg, nil
}

// MarkSeen flips every UNSEEN message from sender to recipient to SEEN and
// returns how many changed. No channel means nothing to mark.
func (r *Relay) MarkSeen(ctx context.Context, senderID, recipientID int64) (int64, error) {
	channelID, ok, err := r.channels.ExistingID(ctx, senderID, recipientID)
	if err != nil || !ok {
		return 0, err
	}

	n, err := r.q.MarkMessagesSeen(ctx, channelID, senderID)
	if err != nil {
		return 0, apperror.Unavailable("failed to mark messages seen", err)
	}
	return n, nil
}

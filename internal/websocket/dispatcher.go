package websocket

import (
	"context"
	"encoding/json"
	"time"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/models"

	"go.uber.org/zap"
)

// MessageSender sends chat messages on behalf of a user
type MessageSender interface {
	Send(ctx context.Context, sender models.User, recipientID int64, content string) (*models.Message, error)
}

// FriendRequests is the part of the friendship ledger reachable over the socket
type FriendRequests interface {
	SendRequest(ctx context.Context, senderID, recipientID int64) (*models.FriendRequest, error)
	Respond(ctx context.Context, requestID, responderID int64, decision models.Decision) error
	AreFriends(ctx context.Context, a, b int64) (bool, error)
}

// Dispatcher routes inbound frames to the chat and friendship services and
// relays typing indicators between friends.
type Dispatcher struct {
	chat    MessageSender
	friends FriendRequests
	hub     *Hub
	timeout time.Duration
	log     *zap.Logger
}

var _ InboundHandler = (*Dispatcher)(nil)

// NewDispatcher gives each inbound frame at most timeout to finish
func NewDispatcher(chat MessageSender, friends FriendRequests, hub *Hub, timeout time.Duration, log *zap.Logger) *Dispatcher {
	return &Dispatcher{
		chat:    chat,
		friends: friends,
		hub:     hub,
		timeout: timeout,
		log:     log,
	}
}

// Handle runs one frame and answers the sending session with an ack or an
// error. Typing frames are only answered on failure.
func (d *Dispatcher) Handle(ctx context.Context, c *Client, msg IncomingMessage) {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	var (
		data interface{}
		err  error
	)
	switch msg.Type {
	case EventChatSend:
		data, err = d.chatSend(ctx, c, msg.Payload)
	case EventFriendRequest:
		data, err = d.friendRequest(ctx, c, msg.Payload)
	case EventFriendRespond:
		err = d.friendRespond(ctx, c, msg.Payload)
	case EventTypingStart, EventTypingStop:
		err = d.typing(ctx, c, msg.Type, msg.Payload)
	default:
		err = apperror.InvalidArg("UNKNOWN_EVENT", "unknown event type "+string(msg.Type))
	}

	if err != nil {
		if apperror.CodeOf(err) == apperror.CodeInternal || apperror.CodeOf(err) == apperror.CodeUnavailable {
			d.log.Error("websocket event failed",
				zap.String("type", string(msg.Type)),
				zap.Int64("user_id", c.User.ID),
				zap.Error(err),
			)
		}
		c.ReplyError(msg.Ref, err)
		return
	}

	// typing indicators are not acknowledged
	if msg.Type != EventTypingStart && msg.Type != EventTypingStop {
		c.ReplyAck(msg.Ref, data)
	}
}

func (d *Dispatcher) chatSend(ctx context.Context, c *Client, raw json.RawMessage) (interface{}, error) {
	var p ChatSendPayload
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	msg, err := d.chat.Send(ctx, c.User, p.RecipientID, p.Content)
	if err != nil {
		return nil, err
	}
	return msg, nil
}

func (d *Dispatcher) friendRequest(ctx context.Context, c *Client, raw json.RawMessage) (interface{}, error) {
	var p FriendRequestPayload
	if err := decode(raw, &p); err != nil {
		return nil, err
	}

	req, err := d.friends.SendRequest(ctx, c.User.ID, p.RecipientID)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func (d *Dispatcher) friendRespond(ctx context.Context, c *Client, raw json.RawMessage) error {
	var p FriendRespondPayload
	if err := decode(raw, &p); err != nil {
		return err
	}
	return d.friends.Respond(ctx, p.RequestID, c.User.ID, p.Decision)
}

// typing forwards the indicator to the recipient's sessions if they are friends
func (d *Dispatcher) typing(ctx context.Context, c *Client, event EventType, raw json.RawMessage) error {
	var p TypingPayload
	if err := decode(raw, &p); err != nil {
		return err
	}

	ok, err := d.friends.AreFriends(ctx, c.User.ID, p.RecipientID)
	if err != nil {
		return err
	}
	if !ok {
		return apperror.ErrNotFriends
	}

	return d.hub.SendToUser(p.RecipientID, WSMessage{
		Type: event,
		Payload: TypingPayload{
			UserID:      c.User.ID,
			UserName:    c.User.Name,
			RecipientID: p.RecipientID,
		},
		Timestamp: time.Now(),
	})
}

func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return apperror.InvalidArg("INVALID_PAYLOAD", "payload is required")
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return apperror.InvalidArg("INVALID_PAYLOAD", "payload does not match the event type")
	}
	return nil
}

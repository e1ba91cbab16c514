package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSender struct {
	err  error
	sent []string
}

func (f *fakeSender) Send(_ context.Context, sender models.User, recipientID int64, content string) (*models.Message, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, content)
	return &models.Message{ID: 1, SenderID: sender.ID, RecipientID: recipientID, Content: content, Status: models.MessageStatusUnseen}, nil
}

type fakeFriends struct {
	friends   map[[2]int64]bool
	responses []models.Decision
}

func (f *fakeFriends) SendRequest(_ context.Context, senderID, recipientID int64) (*models.FriendRequest, error) {
	if senderID == recipientID {
		return nil, apperror.ErrSelfRequest
	}
	return &models.FriendRequest{ID: 9, SenderID: senderID, RecipientID: recipientID, Status: models.FriendRequestStatusPending}, nil
}

func (f *fakeFriends) Respond(_ context.Context, _, _ int64, decision models.Decision) error {
	f.responses = append(f.responses, decision)
	return nil
}

func (f *fakeFriends) AreFriends(_ context.Context, a, b int64) (bool, error) {
	return f.friends[[2]int64{a, b}] || f.friends[[2]int64{b, a}], nil
}

func frame(t *testing.T, typ EventType, ref string, payload interface{}) IncomingMessage {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return IncomingMessage{Type: typ, Ref: ref, Payload: raw}
}

func decodePayload(t *testing.T, msg WSMessage, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(msg.Payload)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, v))
}

func TestDispatcher_Handle(t *testing.T) {
	hub, _ := startHub(t, nil)
	sender := &fakeSender{}
	friends := &fakeFriends{friends: map[[2]int64]bool{{1, 2}: true}}
	d := NewDispatcher(sender, friends, hub, time.Second, zap.NewNop())

	a := newTestClient(hub, alice)
	b := newTestClient(hub, bob)
	require.True(t, hub.Join(a))
	require.True(t, hub.Join(b))
	assert.Eventually(t, func() bool {
		users, _ := hub.Stats()
		return users == 2
	}, time.Second, 5*time.Millisecond)

	t.Run("happy path - chat.send is acknowledged with the message", func(t *testing.T) {
		d.Handle(context.Background(), a, frame(t, EventChatSend, "c1", ChatSendPayload{RecipientID: 2, Content: "hi"}))

		msg := receive(t, a)
		require.Equal(t, EventAck, msg.Type)
		var ack struct {
			Ref  string         `json:"ref"`
			Data models.Message `json:"data"`
		}
		decodePayload(t, msg, &ack)
		assert.Equal(t, "c1", ack.Ref)
		assert.Equal(t, "hi", ack.Data.Content)
		assert.Equal(t, []string{"hi"}, sender.sent)
	})

	t.Run("happy path - friend.respond", func(t *testing.T) {
		d.Handle(context.Background(), b, frame(t, EventFriendRespond, "r1", FriendRespondPayload{RequestID: 9, Decision: models.DecisionAccepted}))

		msg := receive(t, b)
		assert.Equal(t, EventAck, msg.Type)
		assert.Equal(t, []models.Decision{models.DecisionAccepted}, friends.responses)
	})

	t.Run("happy path - typing reaches the friend", func(t *testing.T) {
		d.Handle(context.Background(), a, frame(t, EventTypingStart, "", TypingPayload{RecipientID: 2}))

		msg := receive(t, b)
		assert.Equal(t, EventTypingStart, msg.Type)
		var p TypingPayload
		decodePayload(t, msg, &p)
		assert.Equal(t, int64(1), p.UserID)
		assert.Equal(t, "Alice", p.UserName)
	})

	t.Run("sad path - typing to a stranger", func(t *testing.T) {
		d.Handle(context.Background(), a, frame(t, EventTypingStop, "t2", TypingPayload{RecipientID: 3}))

		msg := receive(t, a)
		require.Equal(t, EventError, msg.Type)
		var p ErrorPayload
		decodePayload(t, msg, &p)
		assert.Equal(t, "t2", p.Ref)
		assert.Equal(t, apperror.ReasonOf(apperror.ErrNotFriends), p.Reason)
	})

	t.Run("sad path - domain error carries code and reason", func(t *testing.T) {
		d.Handle(context.Background(), a, frame(t, EventFriendRequest, "f1", FriendRequestPayload{RecipientID: 1}))

		msg := receive(t, a)
		require.Equal(t, EventError, msg.Type)
		var p ErrorPayload
		decodePayload(t, msg, &p)
		assert.Equal(t, string(apperror.CodeOf(apperror.ErrSelfRequest)), p.Code)
		assert.Equal(t, apperror.ReasonOf(apperror.ErrSelfRequest), p.Reason)
	})

	t.Run("sad path - malformed payload", func(t *testing.T) {
		d.Handle(context.Background(), a, IncomingMessage{Type: EventChatSend, Ref: "m1", Payload: json.RawMessage(`"nope"`)})

		var p ErrorPayload
		decodePayload(t, receive(t, a), &p)
		assert.Equal(t, "INVALID_PAYLOAD", p.Reason)
	})

	t.Run("sad path - unknown event", func(t *testing.T) {
		d.Handle(context.Background(), a, IncomingMessage{Type: "group.create", Ref: "u1"})

		var p ErrorPayload
		decodePayload(t, receive(t, a), &p)
		assert.Equal(t, "UNKNOWN_EVENT", p.Reason)
		assert.Equal(t, "u1", p.Ref)
	})

	t.Run("sad path - internal errors are not leaked", func(t *testing.T) {
		failing := NewDispatcher(&fakeSender{err: assert.AnError}, friends, hub, time.Second, zap.NewNop())
		failing.Handle(context.Background(), a, frame(t, EventChatSend, "x1", ChatSendPayload{RecipientID: 2, Content: "hi"}))

		var p ErrorPayload
		decodePayload(t, receive(t, a), &p)
		assert.Equal(t, "internal server error", p.Message)
	})
}

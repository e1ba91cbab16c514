package websocket

import (
	"encoding/json"
	"time"

	"kawanchat/server/internal/models"
	"kawanchat/server/internal/notify"
)

// EventType represents different WebSocket event types
type EventType string

const (
	// Server to client
	EventNotification EventType = "notification"
	EventAck          EventType = "ack"
	EventError        EventType = "error"

	// Client to server
	EventChatSend      EventType = "chat.send"
	EventFriendRequest EventType = "friend.request"
	EventFriendRespond EventType = "friend.respond"

	// Typing events, relayed between friends
	EventTypingStart EventType = "typing_start"
	EventTypingStop  EventType = "typing_stop"
)

// WSMessage is the envelope of every frame sent to a client. Destination is
// set for notifications.
type WSMessage struct {
	Type        EventType          `json:"type"`
	Destination notify.Destination `json:"destination,omitempty"`
	Payload     interface{}        `json:"payload"`
	Timestamp   time.Time          `json:"timestamp"`
}

// IncomingMessage represents frames received from clients. Ref is echoed back
// in the ack or error for the frame.
type IncomingMessage struct {
	Type    EventType       `json:"type"`
	Ref     string          `json:"ref,omitempty"`
	Payload json.RawMessage `json:"payload"`
}

// ChatSendPayload is the payload of chat.send
type ChatSendPayload struct {
	RecipientID int64  `json:"recipientId"`
	Content     string `json:"content"`
}

// FriendRequestPayload is the payload of friend.request
type FriendRequestPayload struct {
	RecipientID int64 `json:"recipientId"`
}

// FriendRespondPayload is the payload of friend.respond
type FriendRespondPayload struct {
	RequestID int64           `json:"requestId"`
	Decision  models.Decision `json:"decision"`
}

// TypingPayload represents typing indicator payload
type TypingPayload struct {
	UserID      int64  `json:"userId"`
	UserName    string `json:"userName,omitempty"`
	RecipientID int64  `json:"recipientId"`
}

// AckPayload confirms an inbound frame was processed
type AckPayload struct {
	Ref  string      `json:"ref,omitempty"`
	Data interface{} `json:"data,omitempty"`
}

// ErrorPayload represents error event payload
type ErrorPayload struct {
	Ref     string `json:"ref,omitempty"`
	Code    string `json:"code"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

package models

import "time"

type MessageStatus string

const (
	MessageStatusUnseen MessageStatus = "UNSEEN"
	MessageStatusSeen   MessageStatus = "SEEN"
)

// ConversationChannel is the stable record backing a one-to-one conversation
type ConversationChannel struct {
	ID         int64  `json:"id" db:"id"`
	ChannelKey string `json:"channelKey" db:"channel_key"` // Format: <minId>_<maxId>
	UserA      int64  `json:"userA" db:"user_a"`
	UserB      int64  `json:"userB" db:"user_b"`
}

// Message represents a chat message inside a conversation channel
type Message struct {
	ID          int64         `json:"id" db:"id"`
	ChannelID   int64         `json:"channelId" db:"channel_id"`
	SenderID    int64         `json:"senderId" db:"sender_id"`
	RecipientID int64         `json:"recipientId" db:"recipient_id"`
	Content     string        `json:"content" db:"content"`
	Timestamp   time.Time     `json:"timestamp" db:"sent_at"`
	Status      MessageStatus `json:"messageStatus" db:"status"`
}

// LastMessage is the preview of the most recent message between two users
type LastMessage struct {
	SenderID      int64         `json:"senderId"`
	Content       string        `json:"content"`
	MessageStatus MessageStatus `json:"messageStatus"`
}

// ToLastMessage converts Message to LastMessage
func (m *Message) ToLastMessage() LastMessage {
	return LastMessage{
		SenderID:      m.SenderID,
		Content:       m.Content,
		MessageStatus: m.Status,
	}
}

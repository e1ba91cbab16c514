package models

import "time"

// FriendRequestNotification is pushed to the recipient of a new request
type FriendRequestNotification struct {
	ID          int64               `json:"id"`
	SenderID    int64               `json:"senderId"`
	SenderName  string              `json:"senderName"`
	RecipientID int64               `json:"recipientId"`
	Content     string              `json:"content"`
	Timestamp   time.Time           `json:"timeStamp"`
	Status      FriendRequestStatus `json:"status"`
}

// RequestResponseNotification is pushed when a request is answered. Both
// parties of an accepted request get the same shape with different content.
type RequestResponseNotification struct {
	RequestID    int64      `json:"requestId"`
	SenderID     int64      `json:"senderId"`
	RecipientID  int64      `json:"recipientId"`
	SenderName   string     `json:"senderName"`
	Content      string     `json:"content"`
	FriendsSince *time.Time `json:"friendsSince,omitempty"`
	Status       Decision   `json:"status"`
}

// FriendStatusNotification is pushed to each friend on a presence flip
type FriendStatusNotification struct {
	ID         int64      `json:"id"`
	UserName   string     `json:"userName"`
	LiveStatus LiveStatus `json:"liveStatus"`
}

// ChatNotification is pushed to both parties of a new message
type ChatNotification struct {
	ID            int64         `json:"id"`
	SenderID      int64         `json:"senderId"`
	RecipientID   int64         `json:"recipientId"`
	Content       string        `json:"content"`
	Timestamp     time.Time     `json:"timeStamp"`
	MessageStatus MessageStatus `json:"messageStatus"`
}

// RemovalNotification is pushed to both parties of a removed friendship
type RemovalNotification struct {
	UserID  int64  `json:"userId"`
	Message string `json:"message"`
}

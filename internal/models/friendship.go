package models

import "time"

type FriendRequestStatus string

const (
	FriendRequestStatusPending  FriendRequestStatus = "PENDING"
	FriendRequestStatusAccepted FriendRequestStatus = "ACCEPTED"
	FriendRequestStatusRejected FriendRequestStatus = "REJECTED"
)

// Decision is the recipient's answer to a friend request
type Decision string

const (
	DecisionAccepted Decision = "ACCEPTED"
	DecisionRejected Decision = "REJECTED"
)

func (d Decision) Valid() bool {
	return d == DecisionAccepted || d == DecisionRejected
}

type LiveStatus string

const (
	LiveStatusOnline  LiveStatus = "ONLINE"
	LiveStatusOffline LiveStatus = "OFFLINE"
)

func LiveStatusOf(online bool) LiveStatus {
	if online {
		return LiveStatusOnline
	}
	return LiveStatusOffline
}

// FriendRequest is created PENDING and answered exactly once
type FriendRequest struct {
	ID          int64               `json:"id" db:"id"`
	SenderID    int64               `json:"senderId" db:"sender_id"`
	RecipientID int64               `json:"recipientId" db:"recipient_id"`
	Status      FriendRequestStatus `json:"status" db:"status"`
	SentAt      time.Time           `json:"sentAt" db:"sent_at"`
}

// Friendship is an unordered pair; (A,B) and (B,A) are the same friendship
type Friendship struct {
	ID        int64     `json:"id" db:"id"`
	UserA     int64     `json:"userA" db:"user_a"`
	UserB     int64     `json:"userB" db:"user_b"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Involves reports whether userID is one side of the friendship
func (f *Friendship) Involves(userID int64) bool {
	return f.UserA == userID || f.UserB == userID
}

// FriendEntry is a friendship seen from one side, joined with the other user.
// This is the unit stored in the friends cache.
type FriendEntry struct {
	FriendID     int64     `json:"friendId"`
	FriendName   string    `json:"friendName"`
	FriendEmail  string    `json:"friendEmail"`
	FriendsSince time.Time `json:"friendsSince"`
}

// FriendSummary includes the friend's derived live status
type FriendSummary struct {
	ID           int64      `json:"id"`
	UserName     string     `json:"userName"`
	FriendsSince time.Time  `json:"friendsSince"`
	LiveStatus   LiveStatus `json:"liveStatus"`
}

// FriendDetail is the single-friend view
type FriendDetail struct {
	ID           int64      `json:"id"`
	UserName     string     `json:"userName"`
	Email        string     `json:"email"`
	FriendsSince time.Time  `json:"friendsSince"`
	LiveStatus   LiveStatus `json:"liveStatus"`
}

// PendingRequest is a friend request joined with the counterpart's name
type PendingRequest struct {
	ID            int64     `json:"id"`
	SenderID      int64     `json:"senderId"`
	SenderName    string    `json:"senderName"`
	RecipientID   int64     `json:"recipientId"`
	RecipientName string    `json:"recipientName"`
	SentAt        time.Time `json:"sentAt"`
}

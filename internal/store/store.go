// Package store defines the relational store the coordination core runs on.
// Two backends implement it: postgres (pgx) and memory.
package store

import (
	"context"
	"errors"

	"kawanchat/server/internal/models"
)

var (
	// ErrNotFound is returned by single-row lookups that match nothing.
	ErrNotFound = errors.New("store: record not found")
	// ErrDuplicateKey is returned when an insert violates a unique constraint.
	ErrDuplicateKey = errors.New("store: duplicate key")
)

// Querier is the set of operations available both inside and outside a
// transaction.
type Querier interface {
	UserByID(ctx context.Context, id int64) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserExists(ctx context.Context, id int64) (bool, error)

	CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error
	// FriendRequestForUpdate loads a request and locks it, together with
	// every other request between the same two users, for the rest of the
	// enclosing transaction. Locks are taken in a fixed order.
	FriendRequestForUpdate(ctx context.Context, id int64) (*models.FriendRequest, error)
	PendingRequestExists(ctx context.Context, senderID, recipientID int64) (bool, error)
	UpdateFriendRequestStatus(ctx context.Context, id int64, status models.FriendRequestStatus) error
	SettlePendingRequest(ctx context.Context, senderID, recipientID int64, status models.FriendRequestStatus) (int64, error)
	PendingRequestsTo(ctx context.Context, recipientID int64) ([]models.PendingRequest, error)
	PendingRequestsFrom(ctx context.Context, senderID int64) ([]models.PendingRequest, error)

	CreateFriendship(ctx context.Context, f *models.Friendship) error
	FriendshipExists(ctx context.Context, a, b int64) (bool, error)
	FriendshipBetween(ctx context.Context, a, b int64) (*models.Friendship, error)
	DeleteFriendshipsBetween(ctx context.Context, a, b int64) (int64, error)
	// FriendsOf lists the user's friendships joined with the other party,
	// oldest friendship first.
	FriendsOf(ctx context.Context, userID int64) ([]models.FriendEntry, error)
	FriendIDs(ctx context.Context, userID int64) ([]int64, error)

	ChannelByKey(ctx context.Context, key string) (*models.ConversationChannel, error)
	CreateChannel(ctx context.Context, ch *models.ConversationChannel) error

	CreateMessage(ctx context.Context, msg *models.Message) error
	// MessagesByChannel returns the channel's messages in chronological order
	MessagesByChannel(ctx context.Context, channelID int64) ([]models.Message, error)
	LastMessageByChannel(ctx context.Context, channelID int64) (*models.Message, error)
	MarkMessagesSeen(ctx context.Context, channelID, senderID int64) (int64, error)
}

// Store is a Querier that can also run a function atomically
type Store interface {
	Querier
	// WithTx runs fn in a single transaction. Any error returned by fn rolls
	// the transaction back and is returned unchanged.
	WithTx(ctx context.Context, fn func(q Querier) error) error
}

// Package memory is an in-process store backend with the same uniqueness
// rules as the postgres schema. Transactions run against a copy of the data
// that replaces the original only on success. The message log is shared with
// the copy and only duplicated when the transaction writes a message.
package memory

import (
	"context"
	"sync"

	"kawanchat/server/internal/models"
	"kawanchat/server/internal/store"
)

type data struct {
	seq         int64
	users       map[int64]models.User
	requests    map[int64]models.FriendRequest
	friendships map[int64]models.Friendship
	channels    map[int64]models.ConversationChannel
	messages    map[int64]models.Message

	// messagesShared marks messages as borrowed from the committed data
	messagesShared bool
}

func newData() *data {
	return &data{
		users:       make(map[int64]models.User),
		requests:    make(map[int64]models.FriendRequest),
		friendships: make(map[int64]models.Friendship),
		channels:    make(map[int64]models.ConversationChannel),
		messages:    make(map[int64]models.Message),
	}
}

func (d *data) clone() *data {
	c := &data{
		seq:         d.seq,
		users:       make(map[int64]models.User, len(d.users)),
		requests:    make(map[int64]models.FriendRequest, len(d.requests)),
		friendships: make(map[int64]models.Friendship, len(d.friendships)),
		channels:    make(map[int64]models.ConversationChannel, len(d.channels)),
		messages:    d.messages,

		messagesShared: true,
	}
	for k, v := range d.users {
		c.users[k] = v
	}
	for k, v := range d.requests {
		c.requests[k] = v
	}
	for k, v := range d.friendships {
		c.friendships[k] = v
	}
	for k, v := range d.channels {
		c.channels[k] = v
	}
	return c
}

// writableMessages returns a message map the caller may modify
func (d *data) writableMessages() map[int64]models.Message {
	if d.messagesShared {
		own := make(map[int64]models.Message, len(d.messages)+1)
		for k, v := range d.messages {
			own[k] = v
		}
		d.messages = own
		d.messagesShared = false
	}
	return d.messages
}

func (d *data) nextID() int64 {
	d.seq++
	return d.seq
}

// Store is safe for concurrent use. Every call, and every transaction as a
// whole, is serialized.
type Store struct {
	mu sync.Mutex
	d  *data
}

var _ store.Store = (*Store)(nil)

// New returns an empty store
func New() *Store {
	return &Store{d: newData()}
}

// PutUser inserts or replaces a user. A zero ID is assigned from the sequence.
func (s *Store) PutUser(u models.User) models.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if u.ID == 0 {
		u.ID = s.d.nextID()
	} else if u.ID > s.d.seq {
		s.d.seq = u.ID
	}
	s.d.users[u.ID] = u
	return u
}

// WithTx runs fn against a private copy of the data and commits it when fn
// returns nil. The store is locked for the whole call, so fn must not call
// back into s.
func (s *Store) WithTx(ctx context.Context, fn func(q store.Querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.d.clone()
	if err := fn(&querier{d: work}); err != nil {
		return err
	}
	s.d = work
	return nil
}

func (s *Store) run(fn func(q *querier) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&querier{d: s.d})
}

func (s *Store) UserByID(ctx context.Context, id int64) (u *models.User, err error) {
	err = s.run(func(q *querier) error { u, err = q.UserByID(ctx, id); return err })
	return u, err
}

func (s *Store) UserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	err = s.run(func(q *querier) error { u, err = q.UserByEmail(ctx, email); return err })
	return u, err
}

func (s *Store) UserExists(ctx context.Context, id int64) (ok bool, err error) {
	err = s.run(func(q *querier) error { ok, err = q.UserExists(ctx, id); return err })
	return ok, err
}

func (s *Store) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	return s.run(func(q *querier) error { return q.CreateFriendRequest(ctx, req) })
}

func (s *Store) FriendRequestForUpdate(ctx context.Context, id int64) (r *models.FriendRequest, err error) {
	err = s.run(func(q *querier) error { r, err = q.FriendRequestForUpdate(ctx, id); return err })
	return r, err
}

func (s *Store) PendingRequestExists(ctx context.Context, senderID, recipientID int64) (ok bool, err error) {
	err = s.run(func(q *querier) error { ok, err = q.PendingRequestExists(ctx, senderID, recipientID); return err })
	return ok, err
}

func (s *Store) UpdateFriendRequestStatus(ctx context.Context, id int64, status models.FriendRequestStatus) error {
	return s.run(func(q *querier) error { return q.UpdateFriendRequestStatus(ctx, id, status) })
}

func (s *Store) SettlePendingRequest(ctx context.Context, senderID, recipientID int64, status models.FriendRequestStatus) (n int64, err error) {
	err = s.run(func(q *querier) error { n, err = q.SettlePendingRequest(ctx, senderID, recipientID, status); return err })
	return n, err
}

func (s *Store) PendingRequestsTo(ctx context.Context, recipientID int64) (out []models.PendingRequest, err error) {
	err = s.run(func(q *querier) error { out, err = q.PendingRequestsTo(ctx, recipientID); return err })
	return out, err
}

func (s *Store) PendingRequestsFrom(ctx context.Context, senderID int64) (out []models.PendingRequest, err error) {
	err = s.run(func(q *querier) error { out, err = q.PendingRequestsFrom(ctx, senderID); return err })
	return out, err
}

func (s *Store) CreateFriendship(ctx context.Context, f *models.Friendship) error {
	return s.run(func(q *querier) error { return q.CreateFriendship(ctx, f) })
}

func (s *Store) FriendshipExists(ctx context.Context, a, b int64) (ok bool, err error) {
	err = s.run(func(q *querier) error { ok, err = q.FriendshipExists(ctx, a, b); return err })
	return ok, err
}

func (s *Store) FriendshipBetween(ctx context.Context, a, b int64) (f *models.Friendship, err error) {
	err = s.run(func(q *querier) error { f, err = q.FriendshipBetween(ctx, a, b); return err })
	return f, err
}

func (s *Store) DeleteFriendshipsBetween(ctx context.Context, a, b int64) (n int64, err error) {
	err = s.run(func(q *querier) error { n, err = q.DeleteFriendshipsBetween(ctx, a, b); return err })
	return n, err
}

func (s *Store) FriendsOf(ctx context.Context, userID int64) (out []models.FriendEntry, err error) {
	err = s.run(func(q *querier) error { out, err = q.FriendsOf(ctx, userID); return err })
	return out, err
}

func (s *Store) FriendIDs(ctx context.Context, userID int64) (out []int64, err error) {
	err = s.run(func(q *querier) error { out, err = q.FriendIDs(ctx, userID); return err })
	return out, err
}

func (s *Store) ChannelByKey(ctx context.Context, key string) (ch *models.ConversationChannel, err error) {
	err = s.run(func(q *querier) error { ch, err = q.ChannelByKey(ctx, key); return err })
	return ch, err
}

func (s *Store) CreateChannel(ctx context.Context, ch *models.ConversationChannel) error {
	return s.run(func(q *querier) error { return q.CreateChannel(ctx, ch) })
}

func (s *Store) CreateMessage(ctx context.Context, msg *models.Message) error {
	return s.run(func(q *querier) error { return q.CreateMessage(ctx, msg) })
}

func (s *Store) MessagesByChannel(ctx context.Context, channelID int64) (out []models.Message, err error) {
	err = s.run(func(q *querier) error { out, err = q.MessagesByChannel(ctx, channelID); return err })
	return out, err
}

func (s *Store) LastMessageByChannel(ctx context.Context, channelID int64) (m *models.Message, err error) {
	err = s.run(func(q *querier) error { m, err = q.LastMessageByChannel(ctx, channelID); return err })
	return m, err
}

func (s *Store) MarkMessagesSeen(ctx context.Context, channelID, senderID int64) (n int64, err error) {
	err = s.run(func(q *querier) error { n, err = q.MarkMessagesSeen(ctx, channelID, senderID); return err })
	return n, err
}

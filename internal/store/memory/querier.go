package memory

import (
	"context"
	"sort"
	"time"

	"kawanchat/server/internal/models"
	"kawanchat/server/internal/store"
)

// querier operates on data without locking; the caller holds Store.mu
type querier struct {
	d *data
}

var _ store.Querier = (*querier)(nil)

func samePair(a1, b1, a2, b2 int64) bool {
	return (a1 == a2 && b1 == b2) || (a1 == b2 && b1 == a2)
}

func (q *querier) UserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := q.d.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (q *querier) UserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range q.d.users {
		if u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (q *querier) UserExists(_ context.Context, id int64) (bool, error) {
	_, ok := q.d.users[id]
	return ok, nil
}

func (q *querier) CreateFriendRequest(ctx context.Context, req *models.FriendRequest) error {
	if req.Status == models.FriendRequestStatusPending {
		exists, _ := q.PendingRequestExists(ctx, req.SenderID, req.RecipientID)
		if exists {
			return store.ErrDuplicateKey
		}
	}
	req.ID = q.d.nextID()
	q.d.requests[req.ID] = *req
	return nil
}

func (q *querier) FriendRequestForUpdate(_ context.Context, id int64) (*models.FriendRequest, error) {
	r, ok := q.d.requests[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (q *querier) PendingRequestExists(_ context.Context, senderID, recipientID int64) (bool, error) {
	for _, r := range q.d.requests {
		if r.SenderID == senderID && r.RecipientID == recipientID && r.Status == models.FriendRequestStatusPending {
			return true, nil
		}
	}
	return false, nil
}

func (q *querier) UpdateFriendRequestStatus(_ context.Context, id int64, status models.FriendRequestStatus) error {
	r, ok := q.d.requests[id]
	if !ok {
		return store.ErrNotFound
	}
	r.Status = status
	q.d.requests[id] = r
	return nil
}

func (q *querier) SettlePendingRequest(_ context.Context, senderID, recipientID int64, status models.FriendRequestStatus) (int64, error) {
	var n int64
	for id, r := range q.d.requests {
		if r.SenderID == senderID && r.RecipientID == recipientID && r.Status == models.FriendRequestStatusPending {
			r.Status = status
			q.d.requests[id] = r
			n++
		}
	}
	return n, nil
}

func (q *querier) pendingRequests(match func(r models.FriendRequest) bool) []models.PendingRequest {
	out := []models.PendingRequest{}
	for _, r := range q.d.requests {
		if r.Status != models.FriendRequestStatusPending || !match(r) {
			continue
		}
		out = append(out, models.PendingRequest{
			ID:            r.ID,
			SenderID:      r.SenderID,
			SenderName:    q.d.users[r.SenderID].Name,
			RecipientID:   r.RecipientID,
			RecipientName: q.d.users[r.RecipientID].Name,
			SentAt:        r.SentAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SentAt.Equal(out[j].SentAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].SentAt.After(out[j].SentAt)
	})
	return out
}

func (q *querier) PendingRequestsTo(_ context.Context, recipientID int64) ([]models.PendingRequest, error) {
	return q.pendingRequests(func(r models.FriendRequest) bool { return r.RecipientID == recipientID }), nil
}

func (q *querier) PendingRequestsFrom(_ context.Context, senderID int64) ([]models.PendingRequest, error) {
	return q.pendingRequests(func(r models.FriendRequest) bool { return r.SenderID == senderID }), nil
}

func (q *querier) CreateFriendship(_ context.Context, f *models.Friendship) error {
	for _, existing := range q.d.friendships {
		if samePair(existing.UserA, existing.UserB, f.UserA, f.UserB) {
			return store.ErrDuplicateKey
		}
	}
	if f.CreatedAt.IsZero() {
		f.CreatedAt = time.Now()
	}
	f.ID = q.d.nextID()
	q.d.friendships[f.ID] = *f
	return nil
}

func (q *querier) FriendshipExists(ctx context.Context, a, b int64) (bool, error) {
	_, err := q.FriendshipBetween(ctx, a, b)
	if err == store.ErrNotFound {
		return false, nil
	}
	return err == nil, err
}

func (q *querier) FriendshipBetween(_ context.Context, a, b int64) (*models.Friendship, error) {
	for _, f := range q.d.friendships {
		if samePair(f.UserA, f.UserB, a, b) {
			f := f
			return &f, nil
		}
	}
	return nil, store.ErrNotFound
}

func (q *querier) DeleteFriendshipsBetween(_ context.Context, a, b int64) (int64, error) {
	var n int64
	for id, f := range q.d.friendships {
		if samePair(f.UserA, f.UserB, a, b) {
			delete(q.d.friendships, id)
			n++
		}
	}
	return n, nil
}

func (q *querier) FriendsOf(_ context.Context, userID int64) ([]models.FriendEntry, error) {
	friendships := make([]models.Friendship, 0)
	for _, f := range q.d.friendships {
		if f.Involves(userID) {
			friendships = append(friendships, f)
		}
	}
	sort.Slice(friendships, func(i, j int) bool {
		if friendships[i].CreatedAt.Equal(friendships[j].CreatedAt) {
			return friendships[i].ID < friendships[j].ID
		}
		return friendships[i].CreatedAt.Before(friendships[j].CreatedAt)
	})

	out := make([]models.FriendEntry, 0, len(friendships))
	for _, f := range friendships {
		otherID := f.UserA
		if otherID == userID {
			otherID = f.UserB
		}
		other := q.d.users[otherID]
		out = append(out, models.FriendEntry{
			FriendID:     otherID,
			FriendName:   other.Name,
			FriendEmail:  other.Email,
			FriendsSince: f.CreatedAt,
		})
	}
	return out, nil
}

func (q *querier) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	entries, _ := q.FriendsOf(ctx, userID)
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.FriendID)
	}
	return ids, nil
}

func (q *querier) ChannelByKey(_ context.Context, key string) (*models.ConversationChannel, error) {
	for _, ch := range q.d.channels {
		if ch.ChannelKey == key {
			ch := ch
			return &ch, nil
		}
	}
	return nil, store.ErrNotFound
}

func (q *querier) CreateChannel(ctx context.Context, ch *models.ConversationChannel) error {
	if _, err := q.ChannelByKey(ctx, ch.ChannelKey); err == nil {
		return store.ErrDuplicateKey
	}
	ch.ID = q.d.nextID()
	q.d.channels[ch.ID] = *ch
	return nil
}

func (q *querier) CreateMessage(_ context.Context, msg *models.Message) error {
	if _, ok := q.d.channels[msg.ChannelID]; !ok {
		return store.ErrNotFound
	}
	msg.ID = q.d.nextID()
	q.d.writableMessages()[msg.ID] = *msg
	return nil
}

func (q *querier) MessagesByChannel(_ context.Context, channelID int64) ([]models.Message, error) {
	out := []models.Message{}
	for _, m := range q.d.messages {
		if m.ChannelID == channelID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (q *querier) LastMessageByChannel(ctx context.Context, channelID int64) (*models.Message, error) {
	msgs, _ := q.MessagesByChannel(ctx, channelID)
	if len(msgs) == 0 {
		return nil, store.ErrNotFound
	}
	last := msgs[len(msgs)-1]
	return &last, nil
}

func (q *querier) MarkMessagesSeen(_ context.Context, channelID, senderID int64) (int64, error) {
	var n int64
	for id, m := range q.d.messages {
		if m.ChannelID == channelID && m.SenderID == senderID && m.Status == models.MessageStatusUnseen {
			m.Status = models.MessageStatusSeen
			q.d.writableMessages()[id] = m
			n++
		}
	}
	return n, nil
}

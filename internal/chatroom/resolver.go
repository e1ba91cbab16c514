// Package chatroom resolves the single conversation channel backing each pair
// of users.
package chatroom

import (
	"context"
	"errors"
	"fmt"

	"kawanchat/server/internal/apperror"
	"kawanchat/server/internal/models"
	"kawanchat/server/internal/store"
)

// ChannelKey is the order-independent key for the pair: "<min>_<max>"
func ChannelKey(a, b int64) string {
	lo, hi := order(a, b)
	return fmt.Sprintf("%d_%d", lo, hi)
}

func order(a, b int64) (int64, int64) {
	if a > b {
		return b, a
	}
	return a, b
}

// Resolver gets or creates conversation channels
type Resolver struct {
	q store.Querier
}

// NewResolver resolves channels through q, which may be a store or a
// transaction.
func NewResolver(q store.Querier) *Resolver {
	return &Resolver{q: q}
}

// GetOrCreate returns the channel between a and b, creating it on first use.
// Concurrent first callers for the same pair all get the same record: the
// losers of the insert race re-read the winner's row once.
func (r *Resolver) GetOrCreate(ctx context.Context, a, b int64) (*models.ConversationChannel, error) {
	key := ChannelKey(a, b)

	ch, err := r.q.ChannelByKey(ctx, key)
	if err == nil {
		return ch, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, apperror.Unavailable("chat channel lookup failed", err)
	}

	lo, hi := order(a, b)
	for _, id := range []int64{lo, hi} {
		exists, err := r.q.UserExists(ctx, id)
		if err != nil {
			return nil, apperror.Unavailable("user lookup failed", err)
		}
		if !exists {
			return nil, apperror.UserNotFound(id)
		}
	}

	ch = &models.ConversationChannel{ChannelKey: key, UserA: lo, UserB: hi}
	err = r.q.CreateChannel(ctx, ch)
	switch {
	case err == nil:
		return ch, nil
	case errors.Is(err, store.ErrDuplicateKey):
		existing, rerr := r.q.ChannelByKey(ctx, key)
		if rerr != nil {
			return nil, apperror.ChannelCreationFailed(key, rerr)
		}
		return existing, nil
	default:
		return nil, apperror.Unavailable("chat channel creation failed", err)
	}
}

// ExistingID looks the channel up without creating it
func (r *Resolver) ExistingID(ctx context.Context, a, b int64) (int64, bool, error) {
	ch, err := r.q.ChannelByKey(ctx, ChannelKey(a, b))
	if errors.Is(err, store.ErrNotFound) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, apperror.Unavailable("chat channel lookup failed", err)
	}
	return ch.ID, true, nil
}

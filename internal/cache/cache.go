// Package cache stores friend lists keyed by the owner's contact address.
// Entries never carry live status; that is recomputed on every read.
//
// Every contact has a version that Evict bumps. Get reports the version it
// observed and Set only writes when the version is still the same, so a list
// loaded before an eviction is never written back after it.
package cache

//go:generate mockgen -destination=../mocks/mock_friends_cache.go -package=mocks kawanchat/server/internal/cache FriendsCache

import (
	"context"
	"sync"
	"time"

	"kawanchat/server/internal/models"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	keyPrefix     = "friends:"
	versionPrefix = "friends-version:"
)

// FriendsCache is the friend-list cache the ledger reads through and evicts.
// The version returned by Get is reported on a miss too; pass it to Set.
type FriendsCache interface {
	Get(ctx context.Context, contact string) (entries []models.FriendEntry, version uint64, ok bool, err error)
	Set(ctx context.Context, contact string, version uint64, entries []models.FriendEntry) error
	Evict(ctx context.Context, contact string) error
}

// LRU is an in-process FriendsCache with a size bound and per-entry TTL.
// Versions outlive the entries they guard and are kept for every contact
// that was ever evicted.
type LRU struct {
	mu       sync.Mutex
	lru      *expirable.LRU[string, []models.FriendEntry]
	versions map[string]uint64
}

var _ FriendsCache = (*LRU)(nil)

// NewLRU holds up to size friend lists, each for at most ttl
func NewLRU(size int, ttl time.Duration) *LRU {
	return &LRU{
		lru:      expirable.NewLRU[string, []models.FriendEntry](size, nil, ttl),
		versions: make(map[string]uint64),
	}
}

func (c *LRU) Get(_ context.Context, contact string) ([]models.FriendEntry, uint64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	version := c.versions[contact]
	entries, ok := c.lru.Get(keyPrefix + contact)
	if !ok {
		return nil, version, false, nil
	}
	return clone(entries), version, true, nil
}

func (c *LRU) Set(_ context.Context, contact string, version uint64, entries []models.FriendEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.versions[contact] != version {
		return nil
	}
	c.lru.Add(keyPrefix+contact, clone(entries))
	return nil
}

func (c *LRU) Evict(_ context.Context, contact string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.versions[contact]++
	c.lru.Remove(keyPrefix + contact)
	return nil
}

func clone(entries []models.FriendEntry) []models.FriendEntry {
	out := make([]models.FriendEntry, len(entries))
	copy(out, entries)
	return out
}

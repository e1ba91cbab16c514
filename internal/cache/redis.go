package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"kawanchat/server/internal/models"

	"github.com/go-redis/redis"
	"github.com/pkg/errors"
)

// Redis is a FriendsCache shared by every process pointed at the same server.
// The list lives at friends:<contact> with a TTL and the version at
// friends-version:<contact> without one.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

var _ FriendsCache = (*Redis)(nil)

// NewRedis caches friend lists in client for ttl
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, contact string) ([]models.FriendEntry, uint64, bool, error) {
	vals, err := c.client.WithContext(ctx).MGet(keyPrefix+contact, versionPrefix+contact).Result()
	if err != nil {
		return nil, 0, false, errors.Wrap(err, "redis mget")
	}

	version, err := parseVersion(vals[1])
	if err != nil {
		return nil, 0, false, err
	}

	data, ok := vals[0].(string)
	if !ok {
		return nil, version, false, nil
	}

	var entries []models.FriendEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, 0, false, errors.Wrap(err, "decode cached friends")
	}
	return entries, version, true, nil
}

// Set writes entries under WATCH on the version key. A version that moved,
// before or during the write, leaves the cache untouched.
func (c *Redis) Set(ctx context.Context, contact string, version uint64, entries []models.FriendEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return errors.Wrap(err, "encode friends")
	}

	verKey := versionPrefix + contact
	err = c.client.WithContext(ctx).Watch(func(tx *redis.Tx) error {
		raw, err := tx.Get(verKey).Result()
		if err != nil && err != redis.Nil {
			return errors.Wrap(err, "redis get version")
		}
		current, err := parseVersion(raw)
		if err != nil {
			return err
		}
		if current != version {
			return nil
		}

		_, err = tx.Pipelined(func(pipe redis.Pipeliner) error {
			pipe.Set(keyPrefix+contact, data, c.ttl)
			return nil
		})
		return err
	}, verKey)
	if err == redis.TxFailedErr {
		return nil
	}
	return errors.Wrap(err, "redis set")
}

func (c *Redis) Evict(ctx context.Context, contact string) error {
	_, err := c.client.WithContext(ctx).TxPipelined(func(pipe redis.Pipeliner) error {
		pipe.Incr(versionPrefix + contact)
		pipe.Del(keyPrefix + contact)
		return nil
	})
	return errors.Wrap(err, "redis evict")
}

func parseVersion(v interface{}) (uint64, error) {
	s, ok := v.(string)
	if !ok || s == "" {
		return 0, nil
	}
	version, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "decode cache version")
	}
	return version, nil
}

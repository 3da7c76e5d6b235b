// Package cache keeps per-user unread notification counts in Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultKeyPrefix namespaces every key written by UnreadCounts.
const DefaultKeyPrefix = "teamtask:unread:"

// generationTTL keeps a user's generation alive long after its last bump.
const generationTTL = 24 * time.Hour

var errStaleGeneration = errors.New("unread count generation moved")

// UnreadCounts caches unread notification counts.
//
// Every invalidation bumps a per-user generation. A count computed after
// reading generation g is only stored while the generation is still g, so
// a count read before a concurrent invalidation never lands in the cache.
type UnreadCounts interface {
	// Get returns the cached count and whether it was present.
	Get(ctx context.Context, userID string) (int, bool, error)
	// Generation returns the user's current generation. Read it before
	// counting and pass it to Set.
	Generation(ctx context.Context, userID string) (int64, error)
	// Set stores count unless the generation moved past generation.
	Set(ctx context.Context, userID string, generation int64, count int) error
	// Invalidate drops the cached counts of the given users and bumps their generations.
	Invalidate(ctx context.Context, userIDs ...string) error
}

// RedisUnreadCounts implements UnreadCounts on a Redis client.
type RedisUnreadCounts struct {
	client    redis.UniversalClient
	ttl       time.Duration
	keyPrefix string
}

// NewRedisUnreadCounts creates a cache with the given entry TTL.
func NewRedisUnreadCounts(client redis.UniversalClient, ttl time.Duration) *RedisUnreadCounts {
	return &RedisUnreadCounts{
		client:    client,
		ttl:       ttl,
		keyPrefix: DefaultKeyPrefix,
	}
}

// Connect parses a redis:// URL, opens a client and pings it.
func Connect(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func (c *RedisUnreadCounts) key(userID string) string {
	return c.keyPrefix + userID
}

func (c *RedisUnreadCounts) generationKey(userID string) string {
	return c.keyPrefix + "gen:" + userID
}

// parseGeneration reads a generation reply; a missing key is generation 0.
func parseGeneration(cmd *redis.StringCmd) (int64, error) {
	gen, err := cmd.Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Get implements UnreadCounts.
func (c *RedisUnreadCounts) Get(ctx context.Context, userID string) (int, bool, error) {
	count, err := c.client.Get(ctx, c.key(userID)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get unread count: %w", err)
	}
	return count, true, nil
}

// Generation implements UnreadCounts.
func (c *RedisUnreadCounts) Generation(ctx context.Context, userID string) (int64, error) {
	gen, err := parseGeneration(c.client.Get(ctx, c.generationKey(userID)))
	if err != nil {
		return 0, fmt.Errorf("get unread generation: %w", err)
	}
	return gen, nil
}

// Set implements UnreadCounts. The write runs in a WATCH transaction on the
// generation key, so a concurrent Invalidate aborts it.
func (c *RedisUnreadCounts) Set(ctx context.Context, userID string, generation int64, count int) error {
	genKey := c.generationKey(userID)

	err := c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := parseGeneration(tx.Get(ctx, genKey))
		if err != nil {
			return err
		}
		if current != generation {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(userID), count, c.ttl)
			return nil
		})
		return err
	}, genKey)

	switch {
	case err == nil, errors.Is(err, errStaleGeneration), errors.Is(err, redis.TxFailedErr):
		return nil
	default:
		return fmt.Errorf("set unread count: %w", err)
	}
}

// Invalidate implements UnreadCounts.
func (c *RedisUnreadCounts) Invalidate(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			genKey := c.generationKey(id)
			pipe.Incr(ctx, genKey)
			pipe.Expire(ctx, genKey, generationTTL)
			pipe.Del(ctx, c.key(id))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate unread counts: %w", err)
	}
	return nil
}

package utils

import (
	"context"
	"fmt"
	"strings"

	log15 "github.com/inconshreveable/log15/v3"
	"github.com/redis/go-redis/v9"
)

var logger = log15.New("module", "redis")

// ClaimCache is a read-through fast path for the already-claimed check,
// keyed claimed:<channel>:<user>. Entries have no TTL; a channel reset
// clears them explicitly.
type ClaimCache struct {
	client *redis.Client
}

// NewClaimCache connects to Redis and verifies the connection.
func NewClaimCache(url string) (*ClaimCache, error) {
	opt, err := redis.ParseURL(strings.TrimSpace(url))
	if err != nil {
		return nil, fmt.Errorf("utils: parse redis url: %w", err)
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("utils: redis connection failed: %w", err)
	}

	logger.Info("redis connection established")
	return &ClaimCache{client: client}, nil
}

func claimKey(channelID, userID string) string {
	return fmt.Sprintf("claimed:%s:%s", channelID, userID)
}

// IsClaimed reports whether the pair is cached as claimed.
func (c *ClaimCache) IsClaimed(ctx context.Context, channelID, userID string) (bool, error) {
	n, err := c.client.Exists(ctx, claimKey(channelID, userID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetClaimed caches the pair as claimed.
func (c *ClaimCache) SetClaimed(ctx context.Context, channelID, userID string) error {
	return c.client.Set(ctx, claimKey(channelID, userID), "1", 0).Err()
}

// ResetChannel drops every cached pair for a channel. Called when an
// administrator resets the channel's claims so the cache cannot shadow the
// ledger.
func (c *ClaimCache) ResetChannel(ctx context.Context, channelID string) error {
	pattern := fmt.Sprintf("claimed:%s:*", channelID)
	iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("utils: drop cached claim %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("utils: scan cached claims for %s: %w", channelID, err)
	}
	return nil
}

package redisclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"storefront/internal/store"
	"storefront/internal/util"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	blobPrefix        = "storefront:blob:"
	idempotencyPrefix = "storefront:idempotency:"
	changesChannel    = "storefront:changes"
)

// Client wraps Redis as a blob store, a change bus and an idempotency guard
type Client struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewClient creates a new Redis client and verifies the connection
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newClient(rdb), nil
}

func newClient(rdb *redis.Client) *Client {
	return &Client{rdb: rdb, logger: util.GetLogger()}
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Get retrieves the blob stored under key
func (c *Client) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.rdb.Get(ctx, blobPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return val, true, nil
}

// Set stores the blob under key without expiry
func (c *Client) Set(ctx context.Context, key string, value []byte) error {
	if err := c.rdb.Set(ctx, blobPrefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key
func (c *Client) Delete(ctx context.Context, key string) error {
	if err := c.rdb.Del(ctx, blobPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Publish announces a change to every subscribed instance
func (c *Client) Publish(ctx context.Context, change store.Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change: %w", err)
	}
	return c.rdb.Publish(ctx, changesChannel, payload).Err()
}

// Subscribe delivers changes published by any instance until ctx is done
func (c *Client) Subscribe(ctx context.Context) (<-chan store.Change, error) {
	pubsub := c.rdb.Subscribe(ctx, changesChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("redis subscribe failed: %w", err)
	}

	out := make(chan store.Change)
	go func() {
		defer close(out)
		defer pubsub.Close()

		msgs := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				var change store.Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					c.logger.Warn("Ignoring malformed change notification", zap.Error(err))
					continue
				}
				select {
				case out <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

// Claim records an idempotency key with TTL.
// It returns false when the key was already claimed.
func (c *Client) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, idempotencyPrefix+key, time.Now().Unix(), ttl).Result()
}

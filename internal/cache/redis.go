package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/cahcet/eloquence-api/internal/config"
)

const eventIDKeyPrefix = "eloquence:event-id:"

// Client wraps redis.Client.
type Client struct {
	*redis.Client
}

func NewClient(conf *config.RedisConfig) *Client {
	return &Client{
		Client: redis.NewClient(&redis.Options{
			Addr:     conf.Addr,
			Password: conf.Password,
			DB:       conf.DB,
		}),
	}
}

// EventIDCache remembers slug -> events.id lookups. The events table is only
// ever appended to, so entries never go stale before their TTL.
type EventIDCache struct {
	client *Client
	ttl    time.Duration
}

func NewEventIDCache(client *Client, ttl time.Duration) *EventIDCache {
	return &EventIDCache{client: client, ttl: ttl}
}

// Get reports a miss as (uuid.Nil, false, nil).
func (c *EventIDCache) Get(ctx context.Context, slug string) (uuid.UUID, bool, error) {
	val, err := c.client.Get(ctx, eventIDKeyPrefix+slug).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("c.client.Get -> %w", err)
	}

	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("uuid.Parse(%q) -> %w", val, err)
	}

	return id, true, nil
}

func (c *EventIDCache) Set(ctx context.Context, slug string, id uuid.UUID) error {
	if err := c.client.Set(ctx, eventIDKeyPrefix+slug, id.String(), c.ttl).Err(); err != nil {
		return fmt.Errorf("c.client.Set -> %w", err)
	}
	return nil
}

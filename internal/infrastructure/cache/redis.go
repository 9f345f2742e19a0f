package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyCourseList   = "courses:list:published"
	keyCourseDetail = "course:detail:%s"
	// dedup:{provider}:{event id}
	keyWebhookDedup = "dedup:%s:%s"
)

var (
	TTLCourseList   = 10 * time.Minute
	TTLCourseDetail = 1 * time.Hour
	TTLWebhookDedup = 48 * time.Hour
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

type CatalogCache struct {
	client *redis.Client
}

// NewCatalogCache returns nil without a client; a nil cache always misses.
func NewCatalogCache(client *redis.Client) *CatalogCache {
	if client == nil {
		return nil
	}
	return &CatalogCache{client: client}
}

func (c *CatalogCache) GetList(ctx context.Context, out any) error {
	return c.get(ctx, keyCourseList, out)
}

func (c *CatalogCache) SetList(ctx context.Context, v any) error {
	return c.set(ctx, keyCourseList, v, TTLCourseList)
}

func (c *CatalogCache) GetDetail(ctx context.Context, courseID string, out any) error {
	return c.get(ctx, fmt.Sprintf(keyCourseDetail, courseID), out)
}

func (c *CatalogCache) SetDetail(ctx context.Context, courseID string, v any) error {
	return c.set(ctx, fmt.Sprintf(keyCourseDetail, courseID), v, TTLCourseDetail)
}

// Invalidate drops the published list and, when given, course details.
func (c *CatalogCache) Invalidate(ctx context.Context, courseIDs ...string) error {
	if c == nil {
		return nil
	}
	keys := []string{keyCourseList}
	for _, id := range courseIDs {
		keys = append(keys, fmt.Sprintf(keyCourseDetail, id))
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *CatalogCache) get(ctx context.Context, key string, out any) error {
	if c == nil {
		return ErrMiss
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(val, out); err != nil {
		return ErrMiss
	}
	return nil
}

func (c *CatalogCache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// EventDedup remembers webhook events that were fully processed.
type EventDedup struct {
	client *redis.Client
}

func NewEventDedup(client *redis.Client) *EventDedup {
	if client == nil {
		return nil
	}
	return &EventDedup{client: client}
}

func (d *EventDedup) Seen(ctx context.Context, provider, eventID string) (bool, error) {
	if d == nil || eventID == "" {
		return false, nil
	}
	n, err := d.client.Exists(ctx, fmt.Sprintf(keyWebhookDedup, provider, eventID)).Result()
	return n > 0, err
}

func (d *EventDedup) Remember(ctx context.Context, provider, eventID string) error {
	if d == nil || eventID == "" {
		return nil
	}
	return d.client.Set(ctx, fmt.Sprintf(keyWebhookDedup, provider, eventID), 1, TTLWebhookDedup).Err()
}

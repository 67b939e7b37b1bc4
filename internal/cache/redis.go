package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Get(ctx context.Context, key string, dest interface{}) error {
	val, err := c.client.Get(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("cache get %s: %w", key, err)
	}
	return json.Unmarshal([]byte(val), dest)
}

func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal value: %w", err)
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	return c.client.Del(ctx, keys...).Err()
}

func (c *Cache) SetNX(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("marshal value: %w", err)
	}
	return c.client.SetNX(ctx, key, data, ttl).Result()
}

// jobStatusTTL keeps status snapshots around long enough for a polling UI
// without letting finished jobs pile up in Redis.
const jobStatusTTL = 24 * time.Hour

func jobStatusKey(jobID string) string { return "narration:status:" + jobID }

// SetJobStatus caches a job status snapshot for fast polling reads.
func (c *Cache) SetJobStatus(ctx context.Context, jobID string, snapshot interface{}) error {
	return c.Set(ctx, jobStatusKey(jobID), snapshot, jobStatusTTL)
}

// GetJobStatus loads a cached status snapshot; a cache miss returns an error
// and the caller falls through to Postgres.
func (c *Cache) GetJobStatus(ctx context.Context, jobID string, dest interface{}) error {
	return c.Get(ctx, jobStatusKey(jobID), dest)
}

// jobLockTTL outlives the queue's task timeout so a crashed worker's lock
// still expires on its own.
const jobLockTTL = 90 * time.Minute

func jobLockKey(jobID string) string { return "narration:lock:" + jobID }

// AcquireJobLock takes a per-job processing lock so duplicate deliveries of
// the same task do not synthesize the same document twice.
func (c *Cache) AcquireJobLock(ctx context.Context, jobID string) (bool, error) {
	return c.SetNX(ctx, jobLockKey(jobID), time.Now().UTC(), jobLockTTL)
}

func (c *Cache) ReleaseJobLock(ctx context.Context, jobID string) error {
	return c.Delete(ctx, jobLockKey(jobID))
}

package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/charonlabs/charon/pkg/structs"
)

const keyPrefix = "charon:cache:job:"

// Redis is a Cache backed by redis, for deployments where many api
// processes share one store.
type Redis struct {
	client *redis.Client
}

// NewRedis returns a new redis backed Cache for the given URL.
func NewRedis(url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

// Close shuts down the redis connection.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get returns the cached snapshot for the given job id, or nil on miss.
func (r *Redis) Get(ctx context.Context, id string) (*structs.Job, error) {
	data, err := r.client.Get(ctx, keyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	j := &structs.Job{}
	err = json.Unmarshal(data, j)
	if err != nil {
		// a snapshot we can't decode is as good as a miss
		r.client.Del(ctx, keyPrefix+id)
		return nil, nil
	}
	return j, nil
}

// Set stores a snapshot with the given TTL.
func (r *Redis) Set(ctx context.Context, j *structs.Job, ttl time.Duration) error {
	data, err := json.Marshal(j)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+j.ID, data, ttl).Err()
}

// Invalidate drops the snapshot for the given job id.
func (r *Redis) Invalidate(ctx context.Context, id string) error {
	return r.client.Del(ctx, keyPrefix+id).Err()
}

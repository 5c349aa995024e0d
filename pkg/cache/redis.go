package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// RedisConfig holds connection settings for the Redis backend.
type RedisConfig struct {
	Addr     string `json:"addr" mapstructure:"addr"`
	Password string `json:"password" mapstructure:"password"`
	DB       int    `json:"db" mapstructure:"db"`
}

// Redis is a Backend backed by a Redis server. Values are stored as
// JSON so heterogeneous tool results round-trip without registration.
// Hit/miss counters are process-local; Redis keeps its own expiry.
type Redis struct {
	client *redis.Client

	mu     sync.Mutex
	hits   uint64
	misses uint64
}

// NewRedis connects to Redis and verifies the connection with a ping.
func NewRedis(cfg RedisConfig) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Int("db", cfg.DB).Msg("Redis cache backend connected")

	return &Redis{client: client}, nil
}

// Get implements Backend.
func (r *Redis) Get(ctx context.Context, key string) (interface{}, bool, error) {
	raw, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		r.count(false)
		return nil, false, nil
	}
	if err != nil {
		r.count(false)
		return nil, false, fmt.Errorf("cache get failed: %w", err)
	}

	var value interface{}
	if err := json.Unmarshal([]byte(raw), &value); err != nil {
		r.count(false)
		return nil, false, fmt.Errorf("failed to decode cached value: %w", err)
	}

	r.count(true)
	return value, true, nil
}

// Set implements Backend.
func (r *Redis) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode cache value: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set failed: %w", err)
	}
	return nil
}

// Delete implements Backend.
func (r *Redis) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("cache delete failed: %w", err)
	}
	return nil
}

// Clear implements Backend. It flushes the configured database and
// resets the local counters.
func (r *Redis) Clear(ctx context.Context) error {
	if err := r.client.FlushDB(ctx).Err(); err != nil {
		return fmt.Errorf("cache clear failed: %w", err)
	}

	r.mu.Lock()
	r.hits = 0
	r.misses = 0
	r.mu.Unlock()
	return nil
}

// Stats implements Backend.
func (r *Redis) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	return Stats{
		Hits:          r.hits,
		Misses:        r.misses,
		TotalRequests: r.hits + r.misses,
		HitRate:       hitRate(r.hits, r.misses),
	}
}

// Close implements Backend.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) count(hit bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hit {
		r.hits++
	} else {
		r.misses++
	}
}

package ledgerstore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisKey = "resource-pull:phone-numbers"

// Redis keeps the snapshot in one hash of number to RFC3339 first-seen time.
type Redis struct {
	client redis.UniversalClient
	key    string
}

func NewRedis(client redis.UniversalClient, key string) *Redis {
	if key == "" {
		key = DefaultRedisKey
	}
	return &Redis{client: client, key: key}
}

func (r *Redis) LoadMap(ctx context.Context) (map[string]time.Time, error) {
	values, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", r.key, err)
	}

	numbers := make(map[string]time.Time, len(values))
	for number, raw := range values {
		if number == "" {
			return nil, fmt.Errorf("%w: empty phone number key", ErrMalformedSnapshot)
		}
		seenAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSnapshot, number, err)
		}
		numbers[number] = seenAt
	}
	return numbers, nil
}

// SaveMap replaces the hash in a single MULTI/EXEC.
func (r *Redis) SaveMap(ctx context.Context, numbers map[string]time.Time) error {
	values := make(map[string]interface{}, len(numbers))
	for number, seenAt := range numbers {
		values[number] = seenAt.UTC().Format(time.RFC3339Nano)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(values) > 0 {
			pipe.HSet(ctx, r.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", r.key, err)
	}
	return nil
}

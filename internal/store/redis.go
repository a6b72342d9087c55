package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/verte-zerg/nestegg/internal/model"
)

// DefaultRedisKey is where RedisState keeps the form.
const DefaultRedisKey = "nestegg:form_state"

// RedisState keeps the form state in Redis and lets Redis expire it.
type RedisState struct {
	client *redis.Client
	key    string
	now    func() time.Time
}

var _ StateStore = (*RedisState)(nil)

// NewRedisState connects to the Redis server at addr.
func NewRedisState(addr string) *RedisState {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	return &RedisState{client: rdb, key: DefaultRedisKey, now: time.Now}
}

// Ping checks that the server is reachable.
func (r *RedisState) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// SaveFormState stores the form as JSON with the given expiry.
func (r *RedisState) SaveFormState(ctx context.Context, state model.FormState, ttl time.Duration) error {
	if state.SavedAt.IsZero() {
		state.SavedAt = r.now()
	}
	if ttl < 0 {
		ttl = 0
	}
	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode form state: %w", err)
	}
	return r.client.Set(ctx, r.key, payload, ttl).Err()
}

// LoadFormState reads the form; a missing or expired key, or one saved
// with an unknown mode, reports false.
func (r *RedisState) LoadFormState(ctx context.Context) (model.FormState, bool, error) {
	payload, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return model.FormState{}, false, nil
		}
		return model.FormState{}, false, err
	}
	var state model.FormState
	if err := json.Unmarshal(payload, &state); err != nil {
		return model.FormState{}, false, fmt.Errorf("decode form state: %w", err)
	}
	mode, err := model.ParseMode(string(state.Mode))
	if err != nil {
		return model.FormState{}, false, nil
	}
	state.Mode = mode
	return state, true, nil
}

// Close closes the client connection pool.
func (r *RedisState) Close() error {
	return r.client.Close()
}

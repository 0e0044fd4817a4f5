package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps session state and payload in Redis under two keys per
// conversation. Payload merges run under WATCH so two interleaved merges on
// the same key cannot lose updates.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed session store. A zero ttl means
// sessions never expire.
func NewRedisStore(client *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) stateKey(key Key) string {
	return "session:" + key.String() + ":state"
}

func (s *RedisStore) dataKey(key Key) string {
	return "session:" + key.String() + ":data"
}

func (s *RedisStore) GetState(ctx context.Context, key Key) (State, error) {
	v, err := s.client.Get(ctx, s.stateKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return StateIdle, nil
	}
	if err != nil {
		return StateIdle, fmt.Errorf("get state: %w", err)
	}
	return State(v), nil
}

func (s *RedisStore) SetState(ctx context.Context, key Key, state State) error {
	if err := s.client.Set(ctx, s.stateKey(key), string(state), s.ttl).Err(); err != nil {
		return fmt.Errorf("set state: %w", err)
	}
	return nil
}

func (s *RedisStore) GetPayload(ctx context.Context, key Key) (Payload, error) {
	raw, err := s.client.Get(ctx, s.dataKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Payload{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get payload: %w", err)
	}
	return decodePayload(raw)
}

func (s *RedisStore) MergePayload(ctx context.Context, key Key, partial Payload) (Payload, error) {
	dataKey := s.dataKey(key)

	var merged Payload
	txn := func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, dataKey).Bytes()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		merged, err = decodePayload(raw)
		if err != nil {
			return err
		}
		for k, v := range partial {
			merged[k] = v
		}

		data, err := json.Marshal(merged)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, dataKey, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < 3; i++ {
		err := s.client.Watch(ctx, txn, dataKey)
		if err == nil {
			return merged, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return nil, fmt.Errorf("merge payload: %w", err)
	}
	return nil, fmt.Errorf("merge payload: too many conflicts on key %s", key)
}

func (s *RedisStore) Clear(ctx context.Context, key Key) error {
	if err := s.client.Del(ctx, s.stateKey(key), s.dataKey(key)).Err(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

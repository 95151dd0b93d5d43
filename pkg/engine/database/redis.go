package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore is a Store backed by a redis instance. Writes are write-through,
// so Update and Flush are no-ops.
type RedisStore struct {
	log    *zap.Logger
	client *redis.Client
	prefix string
	ctx    context.Context
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to redis and verifies the connection with a ping.
// All keys are namespaced under prefix.
func OpenRedis(addr, password string, db int, prefix string, log *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("database: redis ping failed: %w", err)
	}

	log = log.Named("database")
	log.Info("Opened redis session database", zap.String("addr", addr), zap.String("prefix", prefix))
	return &RedisStore{
		log:    log,
		client: client,
		prefix: prefix,
		ctx:    ctx,
	}, nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

// Has reports whether key exists.
func (s *RedisStore) Has(key string) bool {
	n, err := s.client.Exists(s.ctx, s.key(key)).Result()
	if err != nil {
		s.log.Error("Exists failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return n > 0
}

// Get unmarshals the value stored under key into out.
func (s *RedisStore) Get(key string, out any) error {
	raw, err := s.client.Get(s.ctx, s.key(key)).Bytes()
	if err == redis.Nil {
		s.log.Error("No such key", zap.String("key", key))
		return fmt.Errorf("%w: %q", ErrNoSuchKey, key)
	}
	if err != nil {
		return fmt.Errorf("database: redis get %q: %w", key, err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("database: decoding key %q: %w", key, err)
	}
	return nil
}

// Put creates or replaces the value stored under key.
func (s *RedisStore) Put(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		s.log.Error("Bad object type for key", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("database: encoding key %q: %w", key, err)
	}
	if err := s.client.Set(s.ctx, s.key(key), raw, 0).Err(); err != nil {
		return fmt.Errorf("database: redis set %q: %w", key, err)
	}
	return nil
}

// Remove deletes key and its value.
func (s *RedisStore) Remove(key string) error {
	n, err := s.client.Del(s.ctx, s.key(key)).Result()
	if err != nil {
		return fmt.Errorf("database: redis del %q: %w", key, err)
	}
	if n == 0 {
		s.log.Error("No such key", zap.String("key", key))
		return fmt.Errorf("%w: %q", ErrNoSuchKey, key)
	}
	return nil
}

// Flush is a no-op: redis writes are write-through.
func (s *RedisStore) Flush() error { return nil }

// Update is a no-op: redis writes are write-through.
func (s *RedisStore) Update() error { return nil }

// Close releases the redis connection.
func (s *RedisStore) Close() error {
	if err := s.client.Close(); err != nil {
		s.log.Error("Failed to close redis connection", zap.Error(err))
		return err
	}
	return nil
}

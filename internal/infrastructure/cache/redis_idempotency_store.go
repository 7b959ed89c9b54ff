package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sitestock/inventorybot/internal/domain/shared"
)

// RedisIdempotencyStore implements IdempotencyStore using Redis.
// This is suitable for distributed deployments where multiple bot instances
// need to share idempotency state.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisIdempotencyStore creates a new Redis-based idempotency store
func NewRedisIdempotencyStore(cfg RedisConfig) (*RedisIdempotencyStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: "inventorybot:idempotency:",
	}, nil
}

// NewRedisIdempotencyStoreWithClient creates a store with an existing Redis client.
// Useful for testing or when sharing a client across components.
func NewRedisIdempotencyStoreWithClient(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	if keyPrefix == "" {
		keyPrefix = "inventorybot:idempotency:"
	}
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// GenerateKey returns the hex-encoded SHA-256 digest of the normalized text.
func (s *RedisIdempotencyStore) GenerateKey(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func (s *RedisIdempotencyStore) redisKey(key string) string {
	return s.keyPrefix + key
}

// IsDuplicate reports whether text is currently stored in Redis. Redis expires
// keys natively, so no explicit eviction is needed here.
func (s *RedisIdempotencyStore) IsDuplicate(ctx context.Context, text string) (bool, error) {
	key := s.GenerateKey(text)

	exists, err := s.client.Exists(ctx, s.redisKey(key)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check idempotency key: %w", err)
	}

	return exists > 0, nil
}

// StoreKey records text with the given TTL via SET with expiry. A non-positive
// ttl stores nothing; the computed key is still returned.
func (s *RedisIdempotencyStore) StoreKey(ctx context.Context, text string, ttl time.Duration) (string, error) {
	key := s.GenerateKey(text)
	if ttl <= 0 {
		return key, nil
	}

	if err := s.client.Set(ctx, s.redisKey(key), "1", ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store idempotency key: %w", err)
	}

	return key, nil
}

// RemoveKey evicts text's entry regardless of expiry.
func (s *RedisIdempotencyStore) RemoveKey(ctx context.Context, text string) error {
	key := s.GenerateKey(text)
	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to remove idempotency key: %w", err)
	}
	return nil
}

// CleanupExpired is a no-op for Redis: keys expire natively via TTL. It exists
// to satisfy the IdempotencyStore contract shared with the in-memory store.
func (s *RedisIdempotencyStore) CleanupExpired(ctx context.Context) (int, error) {
	return 0, nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// GetClient returns the underlying Redis client (for testing/monitoring)
func (s *RedisIdempotencyStore) GetClient() *redis.Client {
	return s.client
}

// Ensure RedisIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*RedisIdempotencyStore)(nil)

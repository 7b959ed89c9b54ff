package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/sitestock/inventorybot/internal/domain/shared"
)

// entry represents a stored command key with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryIdempotencyStore implements IdempotencyStore using an in-memory map.
// This is suitable for single-instance deployments and testing; state is lost
// on restart.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a new in-memory idempotency store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	store := &InMemoryIdempotencyStore{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// GenerateKey returns the hex-encoded SHA-256 digest of the normalized text.
func (s *InMemoryIdempotencyStore) GenerateKey(text string) string {
	normalized := strings.ToLower(strings.TrimSpace(text))
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// IsDuplicate reports whether text is currently stored and unexpired. Expired
// entries are evicted as a side effect of the check.
func (s *InMemoryIdempotencyStore) IsDuplicate(ctx context.Context, text string) (bool, error) {
	key := s.GenerateKey(text)

	s.mu.RLock()
	e, exists := s.entries[key]
	s.mu.RUnlock()
	if !exists {
		return false, nil
	}

	if time.Now().After(e.expiresAt) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		return false, nil
	}

	return true, nil
}

// StoreKey records text with the given TTL. A non-positive ttl stores nothing;
// the computed key is still returned.
func (s *InMemoryIdempotencyStore) StoreKey(ctx context.Context, text string, ttl time.Duration) (string, error) {
	key := s.GenerateKey(text)
	if ttl <= 0 {
		return key, nil
	}

	s.mu.Lock()
	s.entries[key] = entry{expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()

	return key, nil
}

// RemoveKey evicts text's entry regardless of expiry.
func (s *InMemoryIdempotencyStore) RemoveKey(ctx context.Context, text string) error {
	key := s.GenerateKey(text)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// CleanupExpired sweeps all expired entries and returns how many were removed.
func (s *InMemoryIdempotencyStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Close stops the cleanup goroutine and releases resources. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryIdempotencyStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			_, _ = s.CleanupExpired(context.Background())
		}
	}
}

// Size returns the number of entries currently stored (for testing/monitoring)
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryIdempotencyStore implements IdempotencyStore
var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

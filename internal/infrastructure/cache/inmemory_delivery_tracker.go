package cache

import (
	"context"
	"sync"
	"time"

	"github.com/billsync/backend/internal/domain/shared"
)

const defaultCleanupInterval = 5 * time.Minute

// entry represents a seen delivery key with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryDeliveryTracker implements DeliveryTracker using an in-memory map.
// State is not shared between process instances.
type InMemoryDeliveryTracker struct {
	mu        sync.RWMutex
	entries   map[string]entry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryDeliveryTracker creates a new in-memory delivery tracker.
// It starts a background goroutine that evicts expired keys.
func NewInMemoryDeliveryTracker() *InMemoryDeliveryTracker {
	return newInMemoryDeliveryTracker(time.Now, defaultCleanupInterval)
}

func newInMemoryDeliveryTracker(now func() time.Time, cleanupInterval time.Duration) *InMemoryDeliveryTracker {
	tracker := &InMemoryDeliveryTracker{
		entries:  make(map[string]entry),
		now:      now,
		stopChan: make(chan struct{}),
	}

	tracker.wg.Add(1)
	go tracker.cleanupLoop(cleanupInterval)

	return tracker
}

// MarkSeen marks a delivery key as seen with a TTL.
// Returns true if the key was newly marked, false if it was already seen.
func (t *InMemoryDeliveryTracker) MarkSeen(_ context.Context, key string, ttl time.Duration) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if e, exists := t.entries[key]; exists && now.Before(e.expiresAt) {
		return false, nil
	}

	t.entries[key] = entry{expiresAt: now.Add(ttl)}
	return true, nil
}

// IsSeen checks if a delivery key has already been marked
func (t *InMemoryDeliveryTracker) IsSeen(_ context.Context, key string) (bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	e, exists := t.entries[key]
	if !exists {
		return false, nil
	}
	return t.now().Before(e.expiresAt), nil
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (t *InMemoryDeliveryTracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.stopChan)
		t.wg.Wait()
	})
	return nil
}

func (t *InMemoryDeliveryTracker) cleanupLoop(interval time.Duration) {
	defer t.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.stopChan:
			return
		case <-ticker.C:
			t.cleanup()
		}
	}
}

// cleanup removes expired keys
func (t *InMemoryDeliveryTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, e := range t.entries {
		if !now.Before(e.expiresAt) {
			delete(t.entries, key)
		}
	}
}

// Size returns the number of tracked keys
func (t *InMemoryDeliveryTracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

var _ shared.DeliveryTracker = (*InMemoryDeliveryTracker)(nil)

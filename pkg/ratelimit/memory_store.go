package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore implements Store in process memory.
// Records are swept once their window has elapsed.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record

	now             func() time.Time
	cleanupInterval time.Duration
	maxWindow       time.Duration
	stopCleanup     chan struct{}
	cleanupOnce     sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired records are swept.
// Zero disables the sweeper.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(s *MemoryStore) {
		if interval >= 0 {
			s.cleanupInterval = interval
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) MemoryStoreOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	s := &MemoryStore{
		records:         make(map[string]*Record),
		now:             time.Now,
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cleanupInterval > 0 {
		go s.cleanupLoop()
	}
	return s
}

func (s *MemoryStore) Consume(ctx context.Context, key string, limit int, window time.Duration) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.maxWindow = max(s.maxWindow, window)

	rec, ok := s.records[key]
	if !ok || !now.Before(rec.WindowStart.Add(window)) {
		rec = &Record{Key: key, WindowStart: now, Count: 1}
		s.records[key] = rec
		return *rec, true, nil
	}

	if rec.Count >= limit {
		return *rec, false, nil
	}

	rec.Count++
	return *rec, true, nil
}

func (s *MemoryStore) Get(ctx context.Context, key string, window time.Duration) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || !s.now().Before(rec.WindowStart.Add(window)) {
		return Record{}, false, nil
	}
	return *rec, true, nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	return nil
}

// Len returns the number of tracked keys, expired or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Sweep removes records whose window has elapsed and returns how many were removed.
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, rec := range s.records {
		if !now.Before(rec.WindowStart.Add(s.maxWindow)) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) cleanupLoop() {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Sweep()
		case <-s.stopCleanup:
			return
		}
	}
}

// Close stops the sweeper. Safe to call multiple times.
func (s *MemoryStore) Close() error {
	s.cleanupOnce.Do(func() {
		close(s.stopCleanup)
	})
	return nil
}

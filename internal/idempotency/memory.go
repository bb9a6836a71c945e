package idempotency

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Save and Lock scan for expired entries.
const sweepInterval = time.Minute

// MemoryStore is a Store for a single process. It is used when no Redis
// address is configured. Expired entries are dropped on lookup and by a
// sweep that runs at most once per sweepInterval from Save and Lock.
type MemoryStore struct {
	mu        sync.Mutex
	responses map[string]memoryEntry
	locks     map[string]time.Time
	now       func() time.Time
	lastSweep time.Time
}

type memoryEntry struct {
	resp    Response
	expires time.Time
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		responses: make(map[string]memoryEntry),
		locks:     make(map[string]time.Time),
		now:       time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*Response, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.responses[key]
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(entry.expires) {
		delete(s.responses, key)
		return nil, false, nil
	}
	resp := entry.resp
	resp.Body = append([]byte(nil), entry.resp.Body...)
	return &resp, true, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, resp *Response, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)

	stored := *resp
	stored.Body = append([]byte(nil), resp.Body...)
	s.responses[key] = memoryEntry{resp: stored, expires: now.Add(ttl)}
	return nil
}

func (s *MemoryStore) Lock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.sweep(now)
	if expires, ok := s.locks[key]; ok && now.Before(expires) {
		return false, nil
	}
	s.locks[key] = now.Add(ttl)
	return true, nil
}

func (s *MemoryStore) Unlock(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.locks, key)
	return nil
}

// sweep drops expired responses and locks. Callers hold s.mu.
func (s *MemoryStore) sweep(now time.Time) {
	if now.Sub(s.lastSweep) < sweepInterval {
		return
	}
	s.lastSweep = now

	for key, entry := range s.responses {
		if !now.Before(entry.expires) {
			delete(s.responses, key)
		}
	}
	for key, expires := range s.locks {
		if !now.Before(expires) {
			delete(s.locks, key)
		}
	}
}

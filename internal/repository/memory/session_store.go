package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// sessionEntry tracks a stored value and when it was last touched
type sessionEntry[T any] struct {
	value    T
	lastSeen time.Time
	mu       sync.Mutex
}

// SessionStore keeps values in process memory under random ids. Entries not
// touched for ttl are dropped by Sweep. Nothing is persisted.
type SessionStore[T any] struct {
	entries sync.Map
	ttl     time.Duration
	now     func() time.Time
	// onEvict runs for every expired entry, outside any lock
	onEvict func(id string, value T)
}

// NewSessionStore creates a store whose entries expire after ttl of inactivity
func NewSessionStore[T any](ttl time.Duration, onEvict func(id string, value T)) *SessionStore[T] {
	return &SessionStore[T]{
		ttl:     ttl,
		now:     time.Now,
		onEvict: onEvict,
	}
}

// Create stores value under a new uuid and returns the id
func (s *SessionStore[T]) Create(value T) string {
	id := uuid.NewString()
	s.entries.Store(id, &sessionEntry[T]{value: value, lastSeen: s.now()})
	return id
}

// Get returns the value for id and refreshes its expiry
func (s *SessionStore[T]) Get(id string) (T, bool) {
	raw, ok := s.entries.Load(id)
	if !ok {
		var zero T
		return zero, false
	}
	entry := raw.(*sessionEntry[T])
	entry.mu.Lock()
	entry.lastSeen = s.now()
	entry.mu.Unlock()
	return entry.value, true
}

// Delete removes id and reports whether it existed
func (s *SessionStore[T]) Delete(id string) bool {
	_, loaded := s.entries.LoadAndDelete(id)
	return loaded
}

// Len counts live entries
func (s *SessionStore[T]) Len() int {
	n := 0
	s.entries.Range(func(_, _ interface{}) bool {
		n++
		return true
	})
	return n
}

// Sweep drops entries idle for longer than ttl and returns how many went
func (s *SessionStore[T]) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	now := s.now()
	var expired []string
	s.entries.Range(func(key, value interface{}) bool {
		entry := value.(*sessionEntry[T])
		entry.mu.Lock()
		if now.Sub(entry.lastSeen) > s.ttl {
			expired = append(expired, key.(string))
		}
		entry.mu.Unlock()
		return true
	})

	for _, id := range expired {
		raw, loaded := s.entries.LoadAndDelete(id)
		if loaded && s.onEvict != nil {
			s.onEvict(id, raw.(*sessionEntry[T]).value)
		}
	}
	return len(expired)
}

// Run sweeps on every interval until ctx is done
func (s *SessionStore[T]) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

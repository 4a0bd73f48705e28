package bot

import (
	"sync"
	"time"
)

// sessionStore tracks which users the bot is expecting a search query
// from. Entries expire after ttl so an abandoned /websearch does not pin
// memory or swallow a message days later.
type sessionStore struct {
	mu       sync.Mutex
	awaiting map[int64]time.Time
	ttl      time.Duration
}

func newSessionStore(ttl time.Duration) *sessionStore {
	return &sessionStore{
		awaiting: make(map[int64]time.Time),
		ttl:      ttl,
	}
}

func (s *sessionStore) armSearch(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, armedAt := range s.awaiting {
		if now.Sub(armedAt) > s.ttl {
			delete(s.awaiting, id)
		}
	}
	s.awaiting[userID] = now
}

// consumeSearch reports whether a live search session exists for the user
// and clears it either way.
func (s *sessionStore) consumeSearch(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	armedAt, exists := s.awaiting[userID]
	if !exists {
		return false
	}
	delete(s.awaiting, userID)
	return time.Since(armedAt) <= s.ttl
}

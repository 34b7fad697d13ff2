package page

import (
	"sync"

	"github.com/tradepost/web/internal/view"
)

// FlashStore holds at most one pending notification per user.
type FlashStore struct {
	mu      sync.Mutex
	pending map[string]*view.Flash
}

// NewFlashStore creates an empty FlashStore.
func NewFlashStore() *FlashStore {
	return &FlashStore{pending: make(map[string]*view.Flash)}
}

// Put replaces the pending notification of userID.
func (s *FlashStore) Put(userID string, f *view.Flash) {
	s.mu.Lock()
	s.pending[userID] = f
	s.mu.Unlock()
}

// Pop returns and removes the pending notification of userID, if any.
func (s *FlashStore) Pop(userID string) *view.Flash {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := s.pending[userID]
	delete(s.pending, userID)
	return f
}

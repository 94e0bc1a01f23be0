package inmemory

import (
	"sync"
	"time"
)

// SelectionStore remembers each user's selected room until ttl passes
// without the selection being refreshed.
type SelectionStore struct {
	mu    sync.RWMutex
	items map[string]selectionItem
	ttl   time.Duration
	now   func() time.Time
}

type selectionItem struct {
	roomID    string
	expiresAt time.Time
}

func NewSelectionStore(ttl time.Duration) *SelectionStore {
	return &SelectionStore{
		items: make(map[string]selectionItem),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *SelectionStore) Get(userID string) (string, bool) {
	now := s.now()

	s.mu.RLock()
	item, ok := s.items[userID]
	s.mu.RUnlock()
	if !ok {
		return "", false
	}

	if s.ttl > 0 && !item.expiresAt.After(now) {
		s.mu.Lock()
		item, ok = s.items[userID]
		if ok && !item.expiresAt.After(now) {
			delete(s.items, userID)
		}
		s.mu.Unlock()
		return "", false
	}

	return item.roomID, true
}

func (s *SelectionStore) Set(userID, roomID string) {
	if roomID == "" {
		s.Delete(userID)
		return
	}

	s.mu.Lock()
	s.items[userID] = selectionItem{
		roomID:    roomID,
		expiresAt: s.now().Add(s.ttl),
	}
	s.mu.Unlock()
}

func (s *SelectionStore) Delete(userID string) {
	s.mu.Lock()
	delete(s.items, userID)
	s.mu.Unlock()
}

func (s *SelectionStore) Clear() {
	s.mu.Lock()
	s.items = make(map[string]selectionItem)
	s.mu.Unlock()
}

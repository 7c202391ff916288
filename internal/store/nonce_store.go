package store

import (
	"sync"

	"chalresp/internal/domain"
)

// NonceStore is an in-memory domain.NonceRegistry.
type NonceStore struct {
	mu   sync.RWMutex
	seen map[string]struct{}
}

// NewNonceStore returns an empty registry.
func NewNonceStore() *NonceStore {
	return &NonceStore{seen: make(map[string]struct{})}
}

// Seen reports whether n was marked before.
func (s *NonceStore) Seen(n domain.Nonce) bool {
	if len(n) == 0 {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.seen[string(n)]
	return ok
}

// Mark records nonces as used. Empty nonces are ignored.
func (s *NonceStore) Mark(nonces ...domain.Nonce) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range nonces {
		if len(n) > 0 {
			s.seen[string(n)] = struct{}{}
		}
	}
}

// Len returns the number of distinct nonces recorded.
func (s *NonceStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.seen)
}

// Compile-time assertion that NonceStore implements domain.NonceRegistry.
var _ domain.NonceRegistry = (*NonceStore)(nil)

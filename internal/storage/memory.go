package storage

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory TokenStore. It is used by tests and is safe
// for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		blobs: make(map[string][]byte),
	}
}

// Save stores the credential blob for the user.
func (s *MemoryStore) Save(_ context.Context, userID int64, blob []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Copy so later mutations of the caller's slice don't leak in.
	cp := make([]byte, len(blob))
	copy(cp, blob)
	s.blobs[tokenKey(userID)] = cp
	return true
}

// Get returns the stored credential blob for the user.
func (s *MemoryStore) Get(_ context.Context, userID int64) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	blob, ok := s.blobs[tokenKey(userID)]
	if !ok {
		return nil, false
	}
	cp := make([]byte, len(blob))
	copy(cp, blob)
	return cp, true
}

// Delete removes the stored credential blob for the user.
func (s *MemoryStore) Delete(_ context.Context, userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, tokenKey(userID))
	return true
}

// Exists reports whether a credential blob is stored for the user.
func (s *MemoryStore) Exists(_ context.Context, userID int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.blobs[tokenKey(userID)]
	return ok
}

// Len returns the number of stored credentials.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

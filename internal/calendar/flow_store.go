package calendar

import (
	"log/slog"
	"sync"
	"time"
)

// DefaultFlowTTL is how long a pending authorization session stays valid.
// A user who requests a connect link has this long to paste the code back.
const DefaultFlowTTL = 10 * time.Minute

// PendingFlow is an in-progress OAuth authorization for one user. It exists
// only in memory: a restart loses in-flight authorizations and the user
// simply requests a new link.
type PendingFlow struct {
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

// FlowStore tracks pending authorization sessions keyed by user id.
type FlowStore struct {
	mu     sync.Mutex
	flows  map[int64]*PendingFlow
	ttl    time.Duration
	logger *slog.Logger
}

// NewFlowStore creates a flow store and starts its cleanup goroutine.
func NewFlowStore(ttl time.Duration, logger *slog.Logger) *FlowStore {
	if ttl <= 0 {
		ttl = DefaultFlowTTL
	}
	if logger == nil {
		logger = slog.Default()
	}

	store := &FlowStore{
		flows:  make(map[int64]*PendingFlow),
		ttl:    ttl,
		logger: logger,
	}

	go store.cleanup()

	return store
}

// Begin records a pending authorization for the user. A fresh connect
// request supersedes any earlier one for the same user.
func (s *FlowStore) Begin(userID int64) *PendingFlow {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	flow := &PendingFlow{
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	s.flows[userID] = flow

	s.logger.Debug("authorization flow started",
		"user_id", userID,
		"expires_at", flow.ExpiresAt,
	)

	return flow
}

// Consume retrieves and immediately removes the pending flow for the user,
// so an authorization code can only be exchanged once. Expired flows are
// treated as absent.
func (s *FlowStore) Consume(userID int64) (*PendingFlow, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	flow, ok := s.flows[userID]
	if !ok {
		return nil, false
	}

	delete(s.flows, userID)

	if time.Now().After(flow.ExpiresAt) {
		s.logger.Debug("authorization flow expired", "user_id", userID)
		return nil, false
	}

	return flow, true
}

// Cancel removes any pending flow for the user.
func (s *FlowStore) Cancel(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.flows, userID)
}

// Len returns the number of pending flows.
func (s *FlowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.flows)
}

// cleanup periodically removes expired flows.
func (s *FlowStore) cleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.cleanupExpired()
	}
}

// cleanupExpired removes flows whose deadline has passed.
func (s *FlowStore) cleanupExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	deleted := 0
	for userID, flow := range s.flows {
		if now.After(flow.ExpiresAt) {
			delete(s.flows, userID)
			deleted++
		}
	}

	if deleted > 0 {
		s.logger.Debug("cleaned up expired authorization flows", "deleted", deleted)
	}
}

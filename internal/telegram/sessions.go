package telegram

import "sync"

// State is the conversation state of one user.
type State int

const (
	// StateIdle means messages are treated as event descriptions.
	StateIdle State = iota

	// StateAwaitingAuthCode means the next text message is treated as an
	// OAuth authorization code.
	StateAwaitingAuthCode
)

// SessionStore holds per-user conversation state. Entries are keyed by user
// id, so concurrent handling of different users never touches the same entry.
type SessionStore struct {
	mu     sync.Mutex
	states map[int64]State
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		states: make(map[int64]State),
	}
}

// Get returns the conversation state for the user. Unknown users are idle.
func (s *SessionStore) Get(userID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.states[userID]
}

// Set stores the conversation state for the user.
func (s *SessionStore) Set(userID int64, state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if state == StateIdle {
		delete(s.states, userID)
		return
	}
	s.states[userID] = state
}

// Clear resets the user to the idle state.
func (s *SessionStore) Clear(userID int64) {
	s.Set(userID, StateIdle)
}

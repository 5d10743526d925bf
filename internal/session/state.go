// Package session owns the wallet session: the single state store, the
// connect and chain-assurance sequence, and the bridge that applies wallet
// notifications to the store.
package session

import (
	"sync"
)

// State is the observable session record. When Connected is false,
// Address is empty and NativeBalance is "0".
type State struct {
	Connected     bool   `json:"connected"`
	Address       string `json:"address"`
	ChainID       string `json:"chain_id"`
	NativeBalance string `json:"native_balance"`
	Loading       bool   `json:"loading"`
	LastError     string `json:"last_error,omitempty"`
	OnTargetChain bool   `json:"on_target_chain"`
	ID            string `json:"id,omitempty"`
}

// ZeroBalance is the balance of a disconnected session.
const ZeroBalance = "0"

func initialState() State {
	return State{NativeBalance: ZeroBalance}
}

// Store is the mutex-guarded holder of State. Use one per process.
type Store struct {
	mu       sync.Mutex
	state    State
	onChange func(State)
}

// NewStore returns a store in the disconnected state.
func NewStore() *Store {
	return &Store{state: initialState()}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// OnChange registers fn to receive every new state. fn runs outside the
// store lock and must not block for long.
func (s *Store) OnChange(fn func(State)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

func (s *Store) update(fn func(*State)) {
	s.mu.Lock()
	fn(&s.state)
	next, notify := s.state, s.onChange
	s.mu.Unlock()

	if notify != nil {
		notify(next)
	}
}

// SetLoading toggles the in-flight flag.
func (s *Store) SetLoading(loading bool) {
	s.update(func(st *State) { st.Loading = loading })
}

// BeginLoading marks an action in flight and clears the previous error.
func (s *Store) BeginLoading() {
	s.update(func(st *State) {
		st.Loading = true
		st.LastError = ""
	})
}

// SetError records the message of the last failed user action.
func (s *Store) SetError(msg string) {
	s.update(func(st *State) { st.LastError = msg })
}

// MarkConnected populates a fresh connection in one step.
func (s *Store) MarkConnected(address, chainID string, onTarget bool, id string) {
	s.update(func(st *State) {
		st.Connected = true
		st.Address = address
		st.ChainID = chainID
		st.OnTargetChain = onTarget
		st.LastError = ""
		st.ID = id
	})
}

// SetAddress switches the active account of a connected session. It is a
// no-op while disconnected.
func (s *Store) SetAddress(address string) {
	s.update(func(st *State) {
		if st.Connected {
			st.Address = address
		}
	})
}

// SetChain records the active chain.
func (s *Store) SetChain(chainID string, onTarget bool) {
	s.update(func(st *State) {
		st.ChainID = chainID
		st.OnTargetChain = onTarget
	})
}

// SetNativeBalance stores a formatted balance for a connected session.
func (s *Store) SetNativeBalance(balance string) {
	s.update(func(st *State) {
		if st.Connected {
			st.NativeBalance = balance
		}
	})
}

// Reset returns the store to its initial disconnected state.
func (s *Store) Reset() {
	s.update(func(st *State) { *st = initialState() })
}

package dialogue

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/eransh/bookwise/internal/database"
)

// SQLStore persists conversation state in the bookings database.
type SQLStore struct {
	db *database.DB
}

func NewSQLStore(db *database.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Load(id string) (*State, error) {
	data, ok, err := s.db.LoadConversation(id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to decode conversation %s: %w", id, err)
	}
	return &state, nil
}

func (s *SQLStore) Save(state *State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode conversation %s: %w", state.ID, err)
	}
	return s.db.SaveConversation(state.ID, data, state.UpdatedAt)
}

func (s *SQLStore) Delete(id string) error {
	return s.db.DeleteConversation(id)
}

// MemoryStore keeps conversation state in memory. Used in tests and dev mode.
type MemoryStore struct {
	mu     sync.Mutex
	states map[string]*State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]*State)}
}

func (s *MemoryStore) Load(id string) (*State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[id]
	if !ok {
		return nil, nil
	}
	// Round-trip through JSON so callers never share a pointer with the store.
	data, err := json.Marshal(state)
	if err != nil {
		return nil, err
	}
	var copy State
	if err := json.Unmarshal(data, &copy); err != nil {
		return nil, err
	}
	return &copy, nil
}

func (s *MemoryStore) Save(state *State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(state)
	if err != nil {
		return err
	}
	var copy State
	if err := json.Unmarshal(data, &copy); err != nil {
		return err
	}
	if copy.UpdatedAt.IsZero() {
		copy.UpdatedAt = time.Now().UTC()
	}
	s.states[state.ID] = &copy
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.states, id)
	return nil
}

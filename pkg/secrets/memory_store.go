package secrets

import (
	"sort"
	"sync"
)

// MemoryStore keeps tokens in process memory. It backs tests and dry runs;
// the Err fields inject failures.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]Token

	StoreErr    error
	RetrieveErr error
	ListErr     error
	DeleteErr   error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]Token)}
}

func (m *MemoryStore) Store(tok *Token) error {
	if m.StoreErr != nil {
		return m.StoreErr
	}
	if tok == nil || tok.Name == "" {
		return ErrInvalidToken
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[tok.Name] = *tok
	return nil
}

func (m *MemoryStore) Retrieve(name string) (*Token, error) {
	if m.RetrieveErr != nil {
		return nil, m.RetrieveErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	tok, ok := m.tokens[name]
	if !ok {
		return nil, ErrNotFound
	}
	return &tok, nil
}

func (m *MemoryStore) List() ([]*Token, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Token, 0, len(m.tokens))
	for _, t := range m.tokens {
		tok := t
		out = append(out, &tok)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *MemoryStore) Delete(name string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tokens[name]; !ok {
		return ErrNotFound
	}
	delete(m.tokens, name)
	return nil
}

func (m *MemoryStore) Exists(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.tokens[name]
	return ok
}

// Len returns the number of stored tokens.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}

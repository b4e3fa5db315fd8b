package rules

import (
	"context"
	"sync"

	"github.com/sentinel-access/sentinel/internal/authz"
)

// MemoryStore is an in-memory authz.RuleStore for tests and local
// experiments. Safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	elements map[string]struct{}
	rules    map[int64]map[string]authz.RuleFlags
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		elements: make(map[string]struct{}),
		rules:    make(map[int64]map[string]authz.RuleFlags),
	}
}

// AddElement registers a business element name.
func (s *MemoryStore) AddElement(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[name] = struct{}{}
}

// SetRule registers the element and replaces the matrix row for the pair.
func (s *MemoryStore) SetRule(roleID int64, element string, flags authz.RuleFlags) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.elements[element] = struct{}{}
	if s.rules[roleID] == nil {
		s.rules[roleID] = make(map[string]authz.RuleFlags)
	}
	s.rules[roleID][element] = flags
}

// Lookup implements authz.RuleStore.
func (s *MemoryStore) Lookup(_ context.Context, roleID int64, element string) (authz.RuleFlags, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.elements[element]; !ok {
		return authz.RuleFlags{}, authz.ErrUnknownElement
	}
	flags, ok := s.rules[roleID][element]
	if !ok {
		return authz.RuleFlags{}, authz.ErrRuleNotFound
	}
	return flags, nil
}

var _ authz.RuleStore = (*MemoryStore)(nil)

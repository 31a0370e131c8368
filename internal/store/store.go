package store

import (
	"sync"

	"github.com/timefuzz-go/timefuzz/internal/forms"
)

// Store is the object store (spec §4.5): a hashmap FormID -> form
// guarded by a reader/writer lock, plus an independent id allocator.
type Store struct {
	alloc *forms.Allocator

	mu    sync.RWMutex
	byID  map[forms.FormID]any
}

func New() *Store {
	return &Store{
		alloc: forms.NewAllocator(),
		byID:  make(map[forms.FormID]any),
	}
}

// CreateForm allocates a fresh id, constructs v via newForm, registers
// it, and returns both.
func CreateForm[T any](s *Store, newForm func(id forms.FormID) T) (forms.FormID, T) {
	id := s.alloc.Next()
	v := newForm(id)
	s.mu.Lock()
	s.byID[id] = v
	s.mu.Unlock()
	return id, v
}

// CreateSingleton registers v under a reserved singleton id (spec
// §4.5's "ids 1..7 are reserved for the seven singleton roles").
func CreateSingleton[T any](s *Store, id forms.FormID, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = v
}

// RegisterForm inserts a form loaded from a save file under its
// existing id.
func (s *Store) RegisterForm(id forms.FormID, v any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[id] = v
}

// LookupFormID returns the form registered under id, typed as T, and
// whether it was present and of that type.
func LookupFormID[T any](s *Store, id forms.FormID) (T, bool) {
	s.mu.RLock()
	v, ok := s.byID[id]
	s.mu.RUnlock()
	if !ok {
		var zero T
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// DeleteForm erases id from the store.
func (s *Store) DeleteForm(id forms.FormID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

// IDs returns every registered form id, in no particular order --
// used by the save writer to enumerate forms.
func (s *Store) IDs() []forms.FormID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]forms.FormID, 0, len(s.byID))
	for id := range s.byID {
		out = append(out, id)
	}
	return out
}

func (s *Store) Form(id forms.FormID) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.byID[id]
	return v, ok
}

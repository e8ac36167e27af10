package persona

import "strings"

// Store exposes persona retrieval for HTTP handlers.
type Store interface {
	List() []Persona
	FindByID(id string) (Persona, bool)
	// Default returns the persona that greets new sessions.
	Default() (Persona, bool)
}

// MemoryStore keeps a fixed persona set indexed by normalized id.
type MemoryStore struct {
	order []string
	byID  map[string]Persona
}

// NewMemoryStore indexes items. A later persona with the same id replaces an
// earlier one.
func NewMemoryStore(items []Persona) *MemoryStore {
	s := &MemoryStore{byID: make(map[string]Persona, len(items))}
	for _, p := range items {
		key := normalizeID(p.ID)
		if _, seen := s.byID[key]; !seen {
			s.order = append(s.order, key)
		}
		s.byID[key] = clone(p)
	}
	return s
}

// List returns the personas in the order they were loaded.
func (s *MemoryStore) List() []Persona {
	out := make([]Persona, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, clone(s.byID[key]))
	}
	return out
}

// FindByID looks up a persona; ids compare case-insensitively.
func (s *MemoryStore) FindByID(id string) (Persona, bool) {
	p, ok := s.byID[normalizeID(id)]
	if !ok {
		return Persona{}, false
	}
	return clone(p), true
}

// Default returns DefaultID, or the first persona when DefaultID is absent.
func (s *MemoryStore) Default() (Persona, bool) {
	if p, ok := s.FindByID(DefaultID); ok {
		return p, true
	}
	if len(s.order) == 0 {
		return Persona{}, false
	}
	return clone(s.byID[s.order[0]]), true
}

func normalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

func clone(p Persona) Persona {
	p.Expertise = append([]string(nil), p.Expertise...)
	return p
}

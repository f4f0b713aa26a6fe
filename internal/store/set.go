package store

import (
	"fmt"
	"sort"
)

// Set groups the named stores written by one pipeline.
type Set struct {
	stores []*Store
	byName map[string]*Store
}

func NewSet(stores ...*Store) *Set {
	s := &Set{byName: make(map[string]*Store, len(stores))}
	for _, st := range stores {
		s.stores = append(s.stores, st)
		s.byName[st.Name()] = st
	}
	return s
}

// Get returns the store registered under name.
func (s *Set) Get(name string) (*Store, error) {
	st, ok := s.byName[name]
	if !ok {
		return nil, fmt.Errorf("store %q not registered", name)
	}
	return st, nil
}

func (s *Set) All() []*Store { return s.stores }

// Commit commits every store and returns their deltas ordered by ordinal.
// Writes sharing an ordinal keep store registration order.
func (s *Set) Commit() []Delta {
	var out []Delta
	for _, st := range s.stores {
		out = append(out, st.Commit()...)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Ordinal < out[j].Ordinal
	})
	return out
}

func (s *Set) Discard() {
	for _, st := range s.stores {
		st.Discard()
	}
}

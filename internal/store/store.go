// Package store implements ordinal-versioned key/value stores.
//
// A Store holds committed state from earlier blocks plus the versions written
// during the current block. Reads at an ordinal only observe writes made at or
// before that ordinal. Commit flattens the block into committed state.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrdinalRegression is returned when a key is written at an ordinal
	// lower than one already recorded for it in the current block.
	ErrOrdinalRegression = errors.New("ordinal regression")
	// ErrPolicy is returned when an operation does not match the store policy.
	ErrPolicy = errors.New("operation not allowed by store policy")
)

// Policy selects the write operation a store accepts.
type Policy int

const (
	PolicySet Policy = iota
	PolicyAdd
	PolicyAppend
)

// Operation names the write recorded in a Delta.
type Operation string

const (
	OpSet    Operation = "set"
	OpAdd    Operation = "add"
	OpAppend Operation = "append"
)

// AppendDelimiter separates items in append-policy values.
const AppendDelimiter = ";"

// Delta is one write made during a block.
type Delta struct {
	Store     string    `json:"store"`
	Key       string    `json:"key"`
	Ordinal   uint64    `json:"ordinal"`
	Operation Operation `json:"operation"`
	OldValue  []byte    `json:"old_value,omitempty"`
	NewValue  []byte    `json:"new_value"`
}

type version struct {
	ordinal uint64
	value   []byte
}

// Store is a single named versioned store. It is not safe for concurrent use;
// a block is processed by one goroutine.
type Store struct {
	name      string
	policy    Policy
	committed map[string][]byte
	pending   map[string][]version
	deltas    []Delta
}

// New creates an empty store.
func New(name string, policy Policy) *Store {
	return &Store{
		name:      name,
		policy:    policy,
		committed: make(map[string][]byte),
		pending:   make(map[string][]version),
	}
}

func (s *Store) Name() string { return s.name }

func (s *Store) Policy() Policy { return s.policy }

// Set overwrites key at ordinal.
func (s *Store) Set(ordinal uint64, key string, value []byte) error {
	if s.policy != PolicySet {
		return fmt.Errorf("%s: set %s: %w", s.name, key, ErrPolicy)
	}
	return s.write(ordinal, key, OpSet, value)
}

// Add accumulates delta on top of the latest value of key.
func (s *Store) Add(ordinal uint64, key string, delta decimal.Decimal) error {
	if s.policy != PolicyAdd {
		return fmt.Errorf("%s: add %s: %w", s.name, key, ErrPolicy)
	}
	cur, _ := s.GetLastDecimal(key)
	return s.write(ordinal, key, OpAdd, []byte(cur.Add(delta).String()))
}

// Append adds item to the delimited list held at key.
func (s *Store) Append(ordinal uint64, key string, item string) error {
	if s.policy != PolicyAppend {
		return fmt.Errorf("%s: append %s: %w", s.name, key, ErrPolicy)
	}
	next := item
	if cur, ok := s.GetLast(key); ok && len(cur) > 0 {
		next = string(cur) + AppendDelimiter + item
	}
	return s.write(ordinal, key, OpAppend, []byte(next))
}

func (s *Store) write(ordinal uint64, key string, op Operation, value []byte) error {
	versions := s.pending[key]
	if n := len(versions); n > 0 && versions[n-1].ordinal > ordinal {
		return fmt.Errorf("%s: key %s written at ordinal %d after %d: %w",
			s.name, key, ordinal, versions[n-1].ordinal, ErrOrdinalRegression)
	}
	old, _ := s.GetLast(key)
	s.pending[key] = append(versions, version{ordinal: ordinal, value: value})
	s.deltas = append(s.deltas, Delta{
		Store:     s.name,
		Key:       key,
		Ordinal:   ordinal,
		Operation: op,
		OldValue:  old,
		NewValue:  value,
	})
	return nil
}

// GetLast returns the most recent value of key.
func (s *Store) GetLast(key string) ([]byte, bool) {
	if versions := s.pending[key]; len(versions) > 0 {
		return versions[len(versions)-1].value, true
	}
	v, ok := s.committed[key]
	return v, ok
}

// GetAt returns the value of key as of ordinal within the current block.
func (s *Store) GetAt(ordinal uint64, key string) ([]byte, bool) {
	versions := s.pending[key]
	for i := len(versions) - 1; i >= 0; i-- {
		if versions[i].ordinal <= ordinal {
			return versions[i].value, true
		}
	}
	v, ok := s.committed[key]
	return v, ok
}

// GetLastDecimal parses the latest value of key. A miss or unparsable value yields zero.
func (s *Store) GetLastDecimal(key string) (decimal.Decimal, bool) {
	return parseDecimal(s.GetLast(key))
}

// GetAtDecimal parses the value of key at ordinal. A miss or unparsable value yields zero.
func (s *Store) GetAtDecimal(ordinal uint64, key string) (decimal.Decimal, bool) {
	return parseDecimal(s.GetAt(ordinal, key))
}

// GetLastList splits an append-policy value into its items.
func (s *Store) GetLastList(key string) []string {
	v, ok := s.GetLast(key)
	if !ok || len(v) == 0 {
		return nil
	}
	return strings.Split(string(v), AppendDelimiter)
}

func parseDecimal(v []byte, ok bool) (decimal.Decimal, bool) {
	if !ok {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(string(v))
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// Load seeds committed state, used when restoring from a snapshot.
func (s *Store) Load(key string, value []byte) {
	s.committed[key] = value
}

// Len returns the number of committed keys.
func (s *Store) Len() int { return len(s.committed) }

// Commit folds the current block into committed state and returns its deltas.
func (s *Store) Commit() []Delta {
	for key, versions := range s.pending {
		s.committed[key] = versions[len(versions)-1].value
	}
	out := s.deltas
	s.reset()
	return out
}

// Discard drops every write made in the current block.
func (s *Store) Discard() {
	s.reset()
}

func (s *Store) reset() {
	s.pending = make(map[string][]version)
	s.deltas = nil
}

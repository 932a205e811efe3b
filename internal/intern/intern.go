// Package intern provides an explicitly-owned symbol interner: a string
// arena plus a hash index. The checker never keeps hidden global state; a
// *Table is created by the caller and passed by handle wherever symbol
// identity is needed, which keeps inference deterministic and independently
// testable.
package intern

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Symbol is an index into a Table's arena. The zero Symbol is the interned
// empty string of every table, so Symbol values are only meaningful together
// with the table that minted them.
type Symbol uint32

// Table interns strings to compact Symbol ids and resolves them back.
// It is safe for concurrent use; the interner is the only structure shared
// between inference contexts running in parallel.
type Table struct {
	mu      sync.RWMutex
	arena   []string
	buckets map[uint64][]Symbol
}

// NewTable returns a fresh interner with the empty string pre-interned as
// Symbol 0.
func NewTable() *Table {
	t := &Table{
		arena:   make([]string, 0, 64),
		buckets: make(map[uint64][]Symbol),
	}
	t.Intern("")
	return t
}

// Intern returns the Symbol for name, minting one if needed.
func (t *Table) Intern(name string) Symbol {
	h := xxhash.Sum64String(name)

	t.mu.RLock()
	if sym, ok := t.find(h, name); ok {
		t.mu.RUnlock()
		return sym
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	// Re-check: another goroutine may have interned it between locks.
	if sym, ok := t.find(h, name); ok {
		return sym
	}
	sym := Symbol(len(t.arena))
	t.arena = append(t.arena, name)
	t.buckets[h] = append(t.buckets[h], sym)
	return sym
}

func (t *Table) find(h uint64, name string) (Symbol, bool) {
	for _, sym := range t.buckets[h] {
		if t.arena[sym] == name {
			return sym, true
		}
	}
	return 0, false
}

// Lookup returns the Symbol for name without interning it.
func (t *Table) Lookup(name string) (Symbol, bool) {
	h := xxhash.Sum64String(name)
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.find(h, name)
}

// Name resolves a Symbol back to its string. Symbols from a different table
// produce garbage or panic; callers own the pairing.
func (t *Table) Name(sym Symbol) string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.arena[sym]
}

// Len returns the number of interned strings.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.arena)
}

// Package cache provides the packrat memo table used by the parse driver.
//
// Packrat parsing memoizes the outcome of every (element, offset) match
// attempt so that backtracking grammars never re-evaluate the same
// attempt twice. The table lives on the per-parse Context, is cleared at
// the start of every top-level driver invocation, and is shared across
// all positions visited during a single scan.
//
// Two stores are available: an unbounded map for typical inputs, and a
// bounded LRU for adversarial or very large ones. Memoization never
// changes which strings a grammar accepts as long as its parse actions
// are free of side effects; side-effecting actions may observe fewer
// invocations with caching enabled. That is a documented limitation of
// packrat parsing, not something the cache tries to compensate for.
package cache

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/sandrolain/parsekit/pkg/types"
)

// DefaultCapacity is the bounded store's capacity when none is given.
const DefaultCapacity = 256

// Key identifies a single memoized match attempt. Elem is the grammar
// element's identity (its pointer), never a structural hash: two equal
// literals are distinct cache rows. The input string is not part of the
// key because a store never outlives the single-input context owning it.
type Key struct {
	Elem      any
	Loc       int
	PreSkip   bool
	DoActions bool
}

// Outcome is a memoized match result: either a success (end offset plus a
// copy of the produced tokens) or a recoverable failure. Fatal failures
// abort the parse and are never stored. Stored failures carry no stack
// context, only the plain error value, so the table's memory stays
// proportional to positions visited.
type Outcome struct {
	End    int
	Tokens *types.Results
	Err    error
}

// Store is the memo table consulted by the driver before running an
// element's real matching logic.
type Store interface {
	// Get returns the memoized outcome for k, if present.
	Get(k Key) (Outcome, bool)
	// Put memoizes the outcome for k.
	Put(k Key, o Outcome)
	// Clear discards every entry.
	Clear()
	// Len returns the number of memoized entries.
	Len() int
}

// mapStore is the unbounded store: a plain map guarded by a RWMutex.
// Grammar trees may be shared across goroutines, so the store each
// context owns must still tolerate concurrent streamline races.
type mapStore struct {
	mu      sync.RWMutex
	entries map[Key]Outcome
}

// NewUnbounded creates a map-backed store with no eviction.
func NewUnbounded() Store {
	return &mapStore{entries: make(map[Key]Outcome)}
}

func (s *mapStore) Get(k Key) (Outcome, bool) {
	s.mu.RLock()
	o, ok := s.entries[k]
	s.mu.RUnlock()
	return o, ok
}

func (s *mapStore) Put(k Key, o Outcome) {
	s.mu.Lock()
	s.entries[k] = o
	s.mu.Unlock()
}

func (s *mapStore) Clear() {
	s.mu.Lock()
	s.entries = make(map[Key]Outcome)
	s.mu.Unlock()
}

func (s *mapStore) Len() int {
	s.mu.RLock()
	n := len(s.entries)
	s.mu.RUnlock()
	return n
}

// lruStore bounds the table with LRU eviction. Evicting an entry only
// costs recomputation; outcomes are reproducible, so eviction can never
// change a parse result.
type lruStore struct {
	c *lru.Cache[Key, Outcome]
}

// NewBounded creates an LRU-backed store holding at most capacity entries.
// capacity must be > 0; if <= 0, DefaultCapacity is used.
func NewBounded(capacity int) Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	c, err := lru.New[Key, Outcome](capacity)
	if err != nil {
		// Only reachable with a non-positive size, which is guarded above.
		panic(err)
	}
	return &lruStore{c: c}
}

func (s *lruStore) Get(k Key) (Outcome, bool) {
	return s.c.Get(k)
}

func (s *lruStore) Put(k Key, o Outcome) {
	s.c.Add(k, o)
}

func (s *lruStore) Clear() {
	s.c.Purge()
}

func (s *lruStore) Len() int {
	return s.c.Len()
}

// Package handles provides a thread-safe table of pinned Go values.
//
// A callback registration must stay alive for as long as native code may
// deliver events for it, independent of the stack of the goroutine that
// registered it. The registry pins the handler and its user context here and
// keeps the returned Handle in the slot; the value stays reachable until
// Unpin is called exactly once.
//
// Values implementing Retainer or Releaser are told when they are pinned and
// unpinned, which lets callers observe reference lifetimes.
package handles

import (
	"sync"
)

// Handle identifies a pinned value. The zero Handle is never issued.
type Handle uintptr

// Retainer is implemented by values that want to know when they are pinned.
type Retainer interface {
	Retain()
}

// Releaser is implemented by values that want to know when they are unpinned.
type Releaser interface {
	Release()
}

// Table stores pinned values keyed by Handle.
// The zero value is ready to use.
type Table struct {
	mu     sync.RWMutex
	values map[Handle]any
	nextID Handle
}

// Pin stores v and returns a handle for it.
// Retain is called on v before Pin returns.
//
// Thread-safe.
func (t *Table) Pin(v any) Handle {
	t.mu.Lock()
	if t.values == nil {
		t.values = make(map[Handle]any)
	}
	t.nextID++
	h := t.nextID
	t.values[h] = v
	t.mu.Unlock()

	if r, ok := v.(Retainer); ok {
		r.Retain()
	}
	return h
}

// Lookup returns the value pinned under h.
//
// Thread-safe.
func (t *Table) Lookup(h Handle) (any, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.values[h]
	return v, ok
}

// Unpin removes h and calls Release on its value.
// Returns false if h is not pinned, so a handle is never released twice.
//
// Thread-safe.
func (t *Table) Unpin(h Handle) bool {
	t.mu.Lock()
	v, ok := t.values[h]
	if ok {
		delete(t.values, h)
	}
	t.mu.Unlock()

	if !ok {
		return false
	}
	if r, ok := v.(Releaser); ok {
		r.Release()
	}
	return true
}

// Len returns the number of currently pinned values.
// Useful for debugging and testing reference leaks.
//
// Thread-safe.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.values)
}

package shop

import (
	"fmt"
	"sort"
	"sync"
)

// List is the set of all shops, keyed by name.
type List struct {
	mu    sync.RWMutex
	shops map[string]*Shop
}

// NewList creates an empty shop list.
func NewList() *List {
	return &List{shops: make(map[string]*Shop)}
}

// Add registers a shop. Names are unique.
func (l *List) Add(s *Shop) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.shops[s.Name]; ok {
		return fmt.Errorf("%w: %s", ErrShopExists, s.Name)
	}
	l.shops[s.Name] = s
	return nil
}

// Remove deletes a shop by name.
func (l *List) Remove(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.shops[name]; !ok {
		return fmt.Errorf("%w: %s", ErrShopNotFound, name)
	}
	delete(l.shops, name)
	return nil
}

// Rename changes a shop's display name. The name itself is permanent.
func (l *List) Rename(name, displayName string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.shops[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShopNotFound, name)
	}
	s.DisplayName = displayName
	return nil
}

// Get returns a shop by name.
func (l *List) Get(name string) (*Shop, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.shops[name]
	return s, ok
}

// Contains reports whether a shop with the name exists.
func (l *List) Contains(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// All returns every shop sorted by name.
func (l *List) All() []*Shop {
	l.mu.RLock()
	out := make([]*Shop, 0, len(l.shops))
	for _, s := range l.shops {
		out = append(out, s)
	}
	l.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of shops.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.shops)
}

// Replace swaps in a loaded set of shops.
func (l *List) Replace(shops []*Shop) {
	m := make(map[string]*Shop, len(shops))
	for _, s := range shops {
		m[s.Name] = s
	}

	l.mu.Lock()
	l.shops = m
	l.mu.Unlock()
}

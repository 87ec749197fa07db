// Package cart holds the per-session shopping cart.
package cart

import (
	"sync"

	"storefront/internal/model"
)

// Listener receives a snapshot of the cart after every mutation.
type Listener func(items []model.CartLineItem)

// Store is an ordered collection of line items keyed by product ID.
// Every operation is atomic. Listeners run after the lock is released, one
// delivery at a time in mutation order; a snapshot older than one already
// delivered is dropped. Listeners must not mutate the store.
type Store struct {
	mu        sync.Mutex
	items     []model.CartLineItem
	listeners map[int]Listener
	nextID    int
	version   uint64

	deliverMu sync.Mutex
	delivered uint64
}

// NewStore creates an empty cart.
func NewStore() *Store {
	return &Store{listeners: make(map[int]Listener)}
}

// AddItem increments the line for product.ID by quantity, appending a new
// line when none exists. Quantities below 1 are clamped to 1.
func (s *Store) AddItem(product model.Product, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	if i := s.indexOf(product.ID); i >= 0 {
		s.items[i].Quantity += quantity
	} else {
		s.items = append(s.items, model.CartLineItem{Product: product, Quantity: quantity})
	}
	version, snapshot := s.changed()
	s.mu.Unlock()

	s.notify(version, snapshot)
}

// RemoveItem drops the line for productID. Absent IDs are a no-op.
func (s *Store) RemoveItem(productID int64) {
	s.mu.Lock()
	i := s.indexOf(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items = append(s.items[:i], s.items[i+1:]...)
	version, snapshot := s.changed()
	s.mu.Unlock()

	s.notify(version, snapshot)
}

// SetQuantity sets the line's quantity exactly; quantity <= 0 removes it.
func (s *Store) SetQuantity(productID int64, quantity int) {
	if quantity <= 0 {
		s.RemoveItem(productID)
		return
	}

	s.mu.Lock()
	i := s.indexOf(productID)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.items[i].Quantity = quantity
	version, snapshot := s.changed()
	s.mu.Unlock()

	s.notify(version, snapshot)
}

// Clear empties the cart.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = nil
	version, snapshot := s.changed()
	s.mu.Unlock()

	s.notify(version, snapshot)
}

// Deduct lowers each line by the quantity in lines, dropping lines that
// reach zero. Quantities added since lines was taken are kept.
func (s *Store) Deduct(lines []model.CartLineItem) {
	s.mu.Lock()
	touched := false
	for _, line := range lines {
		i := s.indexOf(line.Product.ID)
		if i < 0 || line.Quantity <= 0 {
			continue
		}
		touched = true
		if s.items[i].Quantity <= line.Quantity {
			s.items = append(s.items[:i], s.items[i+1:]...)
			continue
		}
		s.items[i].Quantity -= line.Quantity
	}
	if !touched {
		s.mu.Unlock()
		return
	}
	version, snapshot := s.changed()
	s.mu.Unlock()

	s.notify(version, snapshot)
}

// Restore replaces the contents with previously persisted lines without
// notifying listeners. Duplicate product IDs are merged and non-positive
// quantities dropped.
func (s *Store) Restore(items []model.CartLineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	for _, item := range items {
		if item.Quantity <= 0 {
			continue
		}
		if i := s.indexOf(item.Product.ID); i >= 0 {
			s.items[i].Quantity += item.Quantity
			continue
		}
		s.items = append(s.items, item)
	}
}

// Items returns a copy of the line items in insertion order.
func (s *Store) Items() []model.CartLineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Item returns the line for productID.
func (s *Store) Item(productID int64) (model.CartLineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i := s.indexOf(productID); i >= 0 {
		return s.items[i], true
	}
	return model.CartLineItem{}, false
}

// TotalItemCount sums all quantities. It is computed on every call.
func (s *Store) TotalItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, item := range s.items {
		total += item.Quantity
	}
	return total
}

// Subtotal sums price times quantity over all lines.
func (s *Store) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	var total float64
	for _, item := range s.items {
		total += item.LineTotal()
	}
	return total
}

// Subscribe registers fn for mutation snapshots and returns its cancel func.
func (s *Store) Subscribe(fn Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Store) indexOf(productID int64) int {
	for i := range s.items {
		if s.items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *Store) snapshot() []model.CartLineItem {
	if len(s.items) == 0 {
		return []model.CartLineItem{}
	}
	out := make([]model.CartLineItem, len(s.items))
	copy(out, s.items)
	return out
}

// changed bumps the version and snapshots the items. s.mu must be held.
func (s *Store) changed() (uint64, []model.CartLineItem) {
	s.version++
	return s.version, s.snapshot()
}

func (s *Store) notify(version uint64, items []model.CartLineItem) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()
	if version <= s.delivered {
		return
	}
	s.delivered = version

	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(items)
	}
}

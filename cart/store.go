package cart

import "sync"

// Store keeps one cart per customer in process memory. Concurrent writers
// for the same customer resolve as last write wins.
type Store struct {
	mu    sync.Mutex
	carts map[uint]Cart
}

func NewStore() *Store {
	return &Store{carts: make(map[uint]Cart)}
}

// Get returns a copy of the customer's cart, empty if none is stored.
func (s *Store) Get(customerID uint) Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[customerID]
	if !ok {
		return Clear(Cart{})
	}
	return c.clone()
}

// Put replaces the customer's cart; an empty cart deletes the entry.
func (s *Store) Put(customerID uint, c Cart) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.Empty() {
		delete(s.carts, customerID)
		return
	}
	s.carts[customerID] = c.clone()
}

func (s *Store) Delete(customerID uint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, customerID)
}

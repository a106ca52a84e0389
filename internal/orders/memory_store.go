package orders

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore keeps orders in process memory. Used for local runs and tests.
type MemoryStore struct {
	mu     sync.Mutex
	orders map[string]Order
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{orders: map[string]Order{}}
}

// Insert validates order and stores a copy under a fresh uuid.
func (m *MemoryStore) Insert(_ context.Context, order Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	order.ID = uuid.NewString()
	order.Documents = append([]Document(nil), order.Documents...)
	m.orders[order.ID] = order
	return order.ID, nil
}

// ListByStatus returns the orders in status, oldest first.
func (m *MemoryStore) ListByStatus(_ context.Context, status Status) ([]Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := []Order{}
	for _, o := range m.orders {
		if o.Status == status {
			out = append(out, o)
		}
	}
	sortBySubmitted(out)
	return out, nil
}

// UpdateStatus applies a permitted transition under the store lock.
func (m *MemoryStore) UpdateStatus(_ context.Context, id string, status Status) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return false, ErrNotFound
	}
	if !CanTransition(o.Status, status) {
		return false, ErrInvalidTransition
	}
	if o.Status == status {
		return false, nil
	}
	o.Status = status
	m.orders[id] = o
	return true, nil
}

// Delete removes one order or returns ErrNotFound.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/google/uuid"
)

var orderKeyPrefix = []byte("order/")

// PebbleStore is the embedded variant: one JSON value per order under order/<id>.
// Writes go through mu so a status change is a read-modify-write on one row.
type PebbleStore struct {
	mu sync.Mutex
	db *pebble.DB
}

// NewPebbleStore opens (or creates) the database in dir.
func NewPebbleStore(dir string) (*PebbleStore, error) {
	d, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("pebble open: %w", err)
	}
	return &PebbleStore{db: d}, nil
}

// Close flushes and closes the database.
func (p *PebbleStore) Close() error { return p.db.Close() }

func orderKey(id string) []byte {
	return append(append([]byte(nil), orderKeyPrefix...), id...)
}

// prefixUpperBound returns the smallest key greater than every key with prefix.
func prefixUpperBound(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		end[i]++
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil
}

func (p *PebbleStore) get(id string) (Order, error) {
	v, closer, err := p.db.Get(orderKey(id))
	if errors.Is(err, pebble.ErrNotFound) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}
	defer closer.Close()

	var o Order
	if err := json.Unmarshal(v, &o); err != nil {
		return Order{}, fmt.Errorf("decode order %s: %w", id, err)
	}
	return o, nil
}

func (p *PebbleStore) put(o Order) error {
	b, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("encode order: %w", err)
	}
	return p.db.Set(orderKey(o.ID), b, pebble.Sync)
}

// Insert validates order and writes it under a fresh uuid.
func (p *PebbleStore) Insert(_ context.Context, order Order) (string, error) {
	if err := order.Validate(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	order.ID = uuid.NewString()
	order.SubmittedAt = order.SubmittedAt.UTC()
	if err := p.put(order); err != nil {
		return "", err
	}
	return order.ID, nil
}

// ListByStatus scans every order and keeps those in status, oldest first.
func (p *PebbleStore) ListByStatus(_ context.Context, status Status) ([]Order, error) {
	it, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: orderKeyPrefix,
		UpperBound: prefixUpperBound(orderKeyPrefix),
	})
	if err != nil {
		return nil, fmt.Errorf("pebble iter: %w", err)
	}
	defer it.Close()

	out := []Order{}
	for it.First(); it.Valid(); it.Next() {
		var o Order
		if err := json.Unmarshal(it.Value(), &o); err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Key(), err)
		}
		if o.Status == status {
			out = append(out, o)
		}
	}
	if err := it.Error(); err != nil {
		return nil, err
	}
	sortBySubmitted(out)
	return out, nil
}

// UpdateStatus is a locked read-modify-write of one order.
func (p *PebbleStore) UpdateStatus(_ context.Context, id string, status Status) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	o, err := p.get(id)
	if err != nil {
		return false, err
	}
	if !CanTransition(o.Status, status) {
		return false, ErrInvalidTransition
	}
	if o.Status == status {
		return false, nil
	}
	o.Status = status
	if err := p.put(o); err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes one order or returns ErrNotFound.
func (p *PebbleStore) Delete(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.get(id); err != nil {
		return err
	}
	return p.db.Delete(orderKey(id), pebble.Sync)
}

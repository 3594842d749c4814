// Package memory implements the in-memory table-order store.
//
// One mutex guards the whole table map, so every call is totally ordered
// with respect to every other call, regardless of the table it touches.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"tableflow/pkg/order"
	"tableflow/pkg/otel"
)

// Store is an in-memory implementation of order.Repository.
type Store struct {
	mu       sync.Mutex
	tables   map[order.TableID][]order.Item
	poisoned any
	observer order.Observer
}

// Option configures a Store.
type Option func(*Store)

// WithObserver registers an observer for applied mutations.
func WithObserver(o order.Observer) Option {
	return func(s *Store) { s.observer = o }
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{tables: make(map[order.TableID][]order.Item)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ItemsFromTable returns a copy of the items ordered at table t.
func (s *Store) ItemsFromTable(ctx context.Context, t order.TableID) ([]order.Item, error) {
	var items []order.Item
	err := s.Do(ctx, func(tx order.Tx) error {
		var err error
		items, err = tx.ItemsFromTable(t)
		return err
	})
	return items, err
}

// AddItems appends items to table t, creating the table if needed.
func (s *Store) AddItems(ctx context.Context, t order.TableID, items []order.Item) error {
	return s.Do(ctx, func(tx order.Tx) error {
		tx.AddItems(t, items)
		return nil
	})
}

// UpdateItem replaces the item with the given id at table t.
func (s *Store) UpdateItem(ctx context.Context, t order.TableID, id uuid.UUID, replacement order.Item) error {
	return s.Do(ctx, func(tx order.Tx) error {
		return tx.UpdateItem(t, id, replacement)
	})
}

// RemoveItem removes the item with the given id from table t.
func (s *Store) RemoveItem(ctx context.Context, t order.TableID, id uuid.UUID) error {
	return s.Do(ctx, func(tx order.Tx) error {
		return tx.RemoveItem(t, id)
	})
}

// Tables returns a deep copy of every table, including empty ones.
func (s *Store) Tables(ctx context.Context) (map[order.TableID][]order.Item, error) {
	out := make(map[order.TableID][]order.Item)
	err := s.Do(ctx, func(order.Tx) error {
		for t, items := range s.tables {
			out[t] = append([]order.Item{}, items...)
		}
		return nil
	})
	return out, err
}

// Do runs fn while holding the store lock. The lock is released on every
// exit path. If fn panics the panic is returned as order.ErrPanicked and the
// store is marked poisoned; the next caller gets order.ErrPoisoned instead of
// running, which clears the mark.
func (s *Store) Do(ctx context.Context, fn func(order.Tx) error) (err error) {
	_, span := otel.AddSpan(ctx, "memory.Do")
	defer span.End()

	tx := &tx{s: s}
	defer func() {
		if len(tx.events) > 0 && s.observer != nil {
			s.observer.Observe(ctx, tx.events)
		}
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if p := s.poisoned; p != nil {
		s.poisoned = nil
		return fmt.Errorf("%w: %v", order.ErrPoisoned, p)
	}

	defer func() {
		if r := recover(); r != nil {
			s.poisoned = r
			err = fmt.Errorf("%w: %v", order.ErrPanicked, r)
		}
	}()
	return fn(tx)
}

type tx struct {
	s      *Store
	events []order.Event
}

func (tx *tx) ItemsFromTable(t order.TableID) ([]order.Item, error) {
	items, ok := tx.s.tables[t]
	if !ok {
		return nil, fmt.Errorf("table %d: %w", t, order.ErrNotFound)
	}
	return append([]order.Item{}, items...), nil
}

func (tx *tx) AddItems(t order.TableID, items []order.Item) {
	cur, ok := tx.s.tables[t]
	if !ok {
		cur = make([]order.Item, 0, len(items))
	}
	tx.s.tables[t] = append(cur, items...)
	for _, it := range items {
		tx.record(order.EventInserted, t, it)
	}
}

func (tx *tx) UpdateItem(t order.TableID, id uuid.UUID, replacement order.Item) error {
	items, ok := tx.s.tables[t]
	if !ok {
		return fmt.Errorf("table %d: %w", t, order.ErrNotFound)
	}
	i := indexOf(items, id)
	if i < 0 {
		return fmt.Errorf("table %d item %s: %w", t, id, order.ErrNothingToUpdate)
	}
	items[i] = replacement
	tx.record(order.EventUpdated, t, replacement)
	return nil
}

func (tx *tx) RemoveItem(t order.TableID, id uuid.UUID) error {
	items, ok := tx.s.tables[t]
	if !ok {
		return fmt.Errorf("table %d: %w", t, order.ErrNotFound)
	}
	i := indexOf(items, id)
	if i < 0 {
		return nil
	}
	removed := items[i]
	tx.s.tables[t] = append(items[:i], items[i+1:]...)
	tx.record(order.EventDeleted, t, removed)
	return nil
}

// RemoveLast removes and returns the most recently added item of table t.
func (tx *tx) RemoveLast(t order.TableID) (order.Item, error) {
	items, ok := tx.s.tables[t]
	if !ok || len(items) == 0 {
		return order.Item{}, fmt.Errorf("table %d has no items: %w", t, order.ErrNotFound)
	}
	last := items[len(items)-1]
	tx.s.tables[t] = items[:len(items)-1]
	tx.record(order.EventDeleted, t, last)
	return last, nil
}

func (tx *tx) record(kind order.EventKind, t order.TableID, it order.Item) {
	tx.events = append(tx.events, order.Event{Kind: kind, Table: t, Item: it})
}

func indexOf(items []order.Item, id uuid.UUID) int {
	for i, it := range items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

var _ order.Repository = (*Store)(nil)

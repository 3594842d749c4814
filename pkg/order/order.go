package order

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// TableID identifies a restaurant table. Valid ids are 1..MaxTableID.
type TableID uint8

// MaxTableID is the highest table id accepted by the store.
const MaxTableID TableID = 255

// ParseTableID parses a decimal table id, rejecting zero and anything above MaxTableID.
func ParseTableID(s string) (TableID, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTable, s)
	}
	return TableID(n), nil
}

var (
	// ErrNotFound indicates the requested table (or item) does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNothingToUpdate indicates the table exists but holds no item with the target id.
	ErrNothingToUpdate = errors.New("nothing to update")

	// ErrPoisoned is reported to the first caller that acquires the store after
	// a previous holder panicked while holding the lock.
	ErrPoisoned = errors.New("store poisoned by a previous failure")

	// ErrPanicked is returned to a caller whose own transaction panicked.
	ErrPanicked = errors.New("transaction panicked")

	// ErrInvalidTable indicates a malformed table id.
	ErrInvalidTable = errors.New("invalid table id")
)

// Tx exposes the store operations to a function that holds the store lock.
// A Tx must not be retained after the function returns.
type Tx interface {
	ItemsFromTable(t TableID) ([]Item, error)
	AddItems(t TableID, items []Item)
	UpdateItem(t TableID, id uuid.UUID, replacement Item) error
	RemoveItem(t TableID, id uuid.UUID) error
	RemoveLast(t TableID) (Item, error)
}

// Repository defines the table-order store. Every call is atomic with
// respect to every other call on the same Repository.
type Repository interface {
	ItemsFromTable(ctx context.Context, t TableID) ([]Item, error)
	AddItems(ctx context.Context, t TableID, items []Item) error
	UpdateItem(ctx context.Context, t TableID, id uuid.UUID, replacement Item) error
	RemoveItem(ctx context.Context, t TableID, id uuid.UUID) error

	// Do runs fn while holding the store lock for its whole duration.
	Do(ctx context.Context, fn func(Tx) error) error
}

// EventKind names a store mutation.
type EventKind string

const (
	EventInserted EventKind = "inserted"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
)

// Event describes one applied mutation of a table.
type Event struct {
	Kind  EventKind `json:"kind"`
	Table TableID   `json:"table"`
	Item  Item      `json:"item"`
}

// Observer receives the events of a call after the store lock is released.
type Observer interface {
	Observe(ctx context.Context, events []Event)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(ctx context.Context, events []Event)

// Observe calls f(ctx, events).
func (f ObserverFunc) Observe(ctx context.Context, events []Event) { f(ctx, events) }

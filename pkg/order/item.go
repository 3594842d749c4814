// Package order defines the items ordered at restaurant tables and the
// contract of the store that keeps them.
package order

import (
	"errors"
	"math/rand/v2"

	"github.com/google/uuid"
)

// Cook time bounds in minutes, inclusive.
const (
	MinCookTime = 5
	MaxCookTime = 15
)

// Item is one ordered dish. Two items are the same dish iff their ids match.
type Item struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	CookTime int       `json:"cook_time"`
}

// NewItem returns an item with a fresh id and a random cook time.
func NewItem(name string) Item {
	return Item{
		ID:       uuid.New(),
		Name:     name,
		CookTime: MinCookTime + rand.IntN(MaxCookTime-MinCookTime+1),
	}
}

// CookTimeSeconds returns the cook time in seconds.
func (i Item) CookTimeSeconds() int {
	return i.CookTime * 60
}

// Equal reports whether i and other identify the same item.
func (i Item) Equal(other Item) bool {
	return i.ID == other.ID
}

// Payload is the client-supplied part of an item.
type Payload struct {
	Name     string `json:"name"`
	CookTime int    `json:"cook_time"`
}

// Validate checks that the payload describes a real dish.
func (p Payload) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.CookTime <= 0 {
		return errors.New("cook_time must be positive")
	}
	return nil
}

// Item builds an item with the given id from the payload. A nil id gets a fresh one.
func (p Payload) Item(id uuid.UUID) Item {
	if id == uuid.Nil {
		id = uuid.New()
	}
	return Item{ID: id, Name: p.Name, CookTime: p.CookTime}
}

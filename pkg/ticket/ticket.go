// Package ticket publishes kitchen tickets for every change to the table
// orders on a Redis pub/sub channel.
package ticket

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"tableflow/pkg/logger"
	"tableflow/pkg/order"
)

// DefaultChannel is the channel tickets are published on when none is configured.
const DefaultChannel = "kitchen:tickets"

// Ticket is the message sent to the kitchen.
type Ticket struct {
	Kind        order.EventKind `json:"kind"`
	Table       order.TableID   `json:"table"`
	Item        order.Item      `json:"item"`
	CookSeconds int             `json:"cook_seconds"`
	At          time.Time       `json:"at"`
}

// FromEvent builds the ticket for a store event.
func FromEvent(e order.Event, at time.Time) Ticket {
	return Ticket{
		Kind:        e.Kind,
		Table:       e.Table,
		Item:        e.Item,
		CookSeconds: e.Item.CookTimeSeconds(),
		At:          at.UTC(),
	}
}

// Publisher is an order.Observer that forwards events to Redis.
// Publish failures are logged and never reach the store caller.
type Publisher struct {
	client  *redis.Client
	channel string
	log     *logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewPublisher returns a publisher writing to channel.
func NewPublisher(client *redis.Client, channel string, log *logger.Logger) *Publisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Publisher{
		client:  client,
		channel: channel,
		log:     log,
		timeout: 2 * time.Second,
		now:     time.Now,
	}
}

// Observe publishes one ticket per event, in order.
func (p *Publisher) Observe(ctx context.Context, events []order.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	for _, e := range events {
		payload, err := json.Marshal(FromEvent(e, p.now()))
		if err != nil {
			p.log.Error(ctx, "encode ticket", "table", e.Table, "error", err)
			continue
		}
		if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
			p.log.Error(ctx, "publish ticket", "channel", p.channel, "table", e.Table, "kind", e.Kind, "error", err)
			return
		}
	}
}

var _ order.Observer = (*Publisher)(nil)

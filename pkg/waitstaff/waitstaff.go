// Package waitstaff simulates waiters serving tables concurrently against a
// shared order store.
package waitstaff

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"tableflow/pkg/logger"
	"tableflow/pkg/order"
)

// ErrAllWorkersFailed is returned by Run when no job of any worker could be carried out.
var ErrAllWorkersFailed = errors.New("every worker failed")

// Kitchen is the part of the order store the waiters use.
type Kitchen interface {
	Do(ctx context.Context, fn func(order.Tx) error) error
}

// Action is something a waiter does at a table.
type Action int

const (
	TableStatus Action = iota
	WriteOrder
	RemoveItem
)

func (a Action) String() string {
	switch a {
	case TableStatus:
		return "table_status"
	case WriteOrder:
		return "write_order"
	case RemoveItem:
		return "remove_item"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// DefaultMenu is used when Config.Menu is empty.
var DefaultMenu = []string{"Pork Ramen", "Chicken Curry", "Coffee", "Miso Soup", "Gyoza"}

// Config controls the simulation.
type Config struct {
	Workers   int
	MinJobs   int
	MaxJobs   int
	Tables    order.TableID
	MinIdle   time.Duration
	MaxIdle   time.Duration
	Menu      []string
	MaxDishes int

	// Seed makes the run reproducible when non-zero.
	Seed uint64
}

// DefaultConfig returns the standard simulation settings.
func DefaultConfig() Config {
	return Config{
		Workers:   25,
		MinJobs:   1,
		MaxJobs:   3,
		Tables:    15,
		MinIdle:   1000 * time.Millisecond,
		MaxIdle:   5000 * time.Millisecond,
		Menu:      DefaultMenu,
		MaxDishes: 3,
	}
}

func (c Config) validate() error {
	switch {
	case c.Workers <= 0:
		return errors.New("workers must be positive")
	case c.MinJobs <= 0 || c.MaxJobs < c.MinJobs:
		return fmt.Errorf("invalid job range [%d, %d]", c.MinJobs, c.MaxJobs)
	case c.Tables == 0:
		return errors.New("tables must be positive")
	case c.MinIdle < 0 || c.MaxIdle < c.MinIdle:
		return fmt.Errorf("invalid idle range [%s, %s]", c.MinIdle, c.MaxIdle)
	case c.MaxDishes <= 0:
		return errors.New("max dishes must be positive")
	}
	return nil
}

// JobResult records the outcome of one job.
type JobResult struct {
	Worker int
	Job    int
	Table  order.TableID
	Action Action
	Err    error

	// Abandoned is set when the store could not be acquired for the job.
	Abandoned bool
}

// Report collects the results of every job of a run.
type Report struct {
	Jobs []JobResult
}

// Failed returns the number of abandoned jobs.
func (r Report) Failed() int {
	n := 0
	for _, j := range r.Jobs {
		if j.Abandoned {
			n++
		}
	}
	return n
}

// Pool runs a fixed set of waiters.
type Pool struct {
	kitchen Kitchen
	log     *logger.Logger
	cfg     Config
}

// New creates a pool serving the given kitchen.
func New(kitchen Kitchen, log *logger.Logger, cfg Config) (*Pool, error) {
	if len(cfg.Menu) == 0 {
		cfg.Menu = DefaultMenu
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("waitstaff config: %w", err)
	}
	return &Pool{kitchen: kitchen, log: log, cfg: cfg}, nil
}

// Run starts every worker and waits until all of them finish their jobs.
// Cancelling ctx stops each worker before its next job.
func (p *Pool) Run(ctx context.Context) (Report, error) {
	var (
		mu     sync.Mutex
		report Report
		g      errgroup.Group
	)

	for id := 1; id <= p.cfg.Workers; id++ {
		w := p.newWorker(id)
		g.Go(func() error {
			results := w.run(ctx)
			mu.Lock()
			report.Jobs = append(report.Jobs, results...)
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	if len(report.Jobs) > 0 && report.Failed() == len(report.Jobs) {
		return report, ErrAllWorkersFailed
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

func (p *Pool) newWorker(id int) *worker {
	var src rand.Source
	if p.cfg.Seed != 0 {
		src = rand.NewPCG(p.cfg.Seed, uint64(id))
	} else {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &worker{id: id, pool: p, rnd: rand.New(src)}
}

package waitstaff

import (
	"context"
	"errors"
	"math/rand/v2"
	"time"

	"tableflow/pkg/order"
)

type worker struct {
	id   int
	pool *Pool
	rnd  *rand.Rand
}

func (w *worker) run(ctx context.Context) []JobResult {
	cfg := w.pool.cfg
	log := w.pool.log

	jobs := cfg.MinJobs + w.rnd.IntN(cfg.MaxJobs-cfg.MinJobs+1)
	results := make([]JobResult, 0, jobs)

	for job := 1; job <= jobs; job++ {
		if ctx.Err() != nil {
			return results
		}

		res := w.doJob(ctx, job)
		results = append(results, res)

		if errors.Is(res.Err, order.ErrPanicked) {
			log.Error(ctx, "waiter stopped", "worker", w.id, "job", job, "error", res.Err)
			return results
		}

		if job == jobs {
			break
		}
		idle := w.idle()
		log.Debug(ctx, "waiter resting", "worker", w.id, "idle", idle)
		select {
		case <-ctx.Done():
			return results
		case <-time.After(idle):
		}
	}

	log.Info(ctx, "waiter done", "worker", w.id, "jobs", len(results))
	return results
}

func (w *worker) doJob(ctx context.Context, job int) JobResult {
	cfg := w.pool.cfg
	log := w.pool.log

	res := JobResult{
		Worker: w.id,
		Job:    job,
		Table:  order.TableID(1 + w.rnd.IntN(int(cfg.Tables))),
		Action: Action(w.rnd.IntN(3)),
	}
	log.Info(ctx, "serving table", "worker", w.id, "job", job, "table", res.Table, "action", res.Action.String())

	var dishes []order.Item
	if res.Action == WriteOrder {
		dishes = w.composeOrder()
	}

	err := w.pool.kitchen.Do(ctx, func(tx order.Tx) error {
		switch res.Action {
		case TableStatus:
			items, err := tx.ItemsFromTable(res.Table)
			if err != nil {
				return err
			}
			log.Info(ctx, "table status", "worker", w.id, "table", res.Table, "items", items)

		case WriteOrder:
			before, _ := tx.ItemsFromTable(res.Table)
			tx.AddItems(res.Table, dishes)
			log.Info(ctx, "order written", "worker", w.id, "table", res.Table, "before", len(before), "added", dishes)

		case RemoveItem:
			removed, err := tx.RemoveLast(res.Table)
			if err != nil {
				return err
			}
			log.Info(ctx, "mistaken item removed", "worker", w.id, "table", res.Table, "item", removed)
		}
		return nil
	})

	switch {
	case err == nil:
	case errors.Is(err, order.ErrPoisoned):
		res.Err = err
		res.Abandoned = true
		log.Error(ctx, "kitchen unavailable, job abandoned", "worker", w.id, "job", job, "error", err)
	case errors.Is(err, order.ErrPanicked):
		res.Err = err
		res.Abandoned = true
	case errors.Is(err, order.ErrNotFound):
		res.Err = err
		log.Warn(ctx, "nothing to do at table", "worker", w.id, "table", res.Table, "error", err)
	default:
		res.Err = err
		log.Error(ctx, "job failed", "worker", w.id, "job", job, "error", err)
	}
	return res
}

func (w *worker) composeOrder() []order.Item {
	menu := w.pool.cfg.Menu
	n := 1 + w.rnd.IntN(w.pool.cfg.MaxDishes)
	dishes := make([]order.Item, n)
	for i := range dishes {
		dishes[i] = order.NewItem(menu[w.rnd.IntN(len(menu))])
	}
	return dishes
}

func (w *worker) idle() time.Duration {
	cfg := w.pool.cfg
	span := cfg.MaxIdle - cfg.MinIdle
	if span <= 0 {
		return cfg.MinIdle
	}
	return cfg.MinIdle + time.Duration(w.rnd.Int64N(int64(span)+1))
}

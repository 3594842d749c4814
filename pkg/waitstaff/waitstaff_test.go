package waitstaff

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"tableflow/pkg/logger"
	"tableflow/pkg/order"
	"tableflow/pkg/order/memory"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinIdle = 0
	cfg.MaxIdle = time.Millisecond
	cfg.Seed = 42
	return cfg
}

func testLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelDebug, "waitstaff-test", nil)
}

func TestRunCompletesAllJobs(t *testing.T) {
	var (
		mu                sync.Mutex
		inserted, deleted int
	)
	store := memory.New(memory.WithObserver(order.ObserverFunc(func(_ context.Context, ev []order.Event) {
		mu.Lock()
		defer mu.Unlock()
		for _, e := range ev {
			switch e.Kind {
			case order.EventInserted:
				inserted++
			case order.EventDeleted:
				deleted++
			}
		}
	})))

	cfg := testConfig()
	pool, err := New(store, testLogger(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	report, err := pool.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if n := len(report.Jobs); n < cfg.Workers*cfg.MinJobs || n > cfg.Workers*cfg.MaxJobs {
		t.Fatalf("unexpected job count %d", n)
	}
	perWorker := make(map[int]int)
	for _, j := range report.Jobs {
		perWorker[j.Worker]++
		if j.Abandoned {
			t.Fatalf("unexpected abandoned job: %+v", j)
		}
		if j.Table < 1 || j.Table > cfg.Tables {
			t.Fatalf("table %d out of range", j.Table)
		}
		if j.Err != nil && !errors.Is(j.Err, order.ErrNotFound) {
			t.Fatalf("unexpected job error: %v", j.Err)
		}
	}
	if len(perWorker) != cfg.Workers {
		t.Fatalf("expected %d workers to report, got %d", cfg.Workers, len(perWorker))
	}

	tables, err := store.Tables(context.Background())
	if err != nil {
		t.Fatalf("tables: %v", err)
	}
	remaining := 0
	for _, items := range tables {
		remaining += len(items)
	}
	if remaining != inserted-deleted {
		t.Fatalf("store holds %d items, events say %d", remaining, inserted-deleted)
	}
}

type poisonedKitchen struct{}

func (poisonedKitchen) Do(context.Context, func(order.Tx) error) error {
	return order.ErrPoisoned
}

func TestRunAllWorkersFailed(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 3
	pool, err := New(poisonedKitchen{}, testLogger(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	report, err := pool.Run(context.Background())
	if !errors.Is(err, ErrAllWorkersFailed) {
		t.Fatalf("expected ErrAllWorkersFailed, got %v", err)
	}
	if report.Failed() != len(report.Jobs) || len(report.Jobs) == 0 {
		t.Fatalf("expected every job abandoned: %d of %d", report.Failed(), len(report.Jobs))
	}
}

type flakyKitchen struct {
	store *memory.Store
	mu    sync.Mutex
	calls int
}

func (k *flakyKitchen) Do(ctx context.Context, fn func(order.Tx) error) error {
	k.mu.Lock()
	k.calls++
	first := k.calls == 1
	k.mu.Unlock()
	if first {
		return order.ErrPoisoned
	}
	return k.store.Do(ctx, fn)
}

func TestPoisonAbandonsOnlyOneJob(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 1
	cfg.MinJobs, cfg.MaxJobs = 3, 3
	pool, err := New(&flakyKitchen{store: memory.New()}, testLogger(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	report, err := pool.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Jobs) != 3 || report.Failed() != 1 || !report.Jobs[0].Abandoned {
		t.Fatalf("unexpected report: %+v", report.Jobs)
	}
}

type panickingKitchen struct{}

func (panickingKitchen) Do(context.Context, func(order.Tx) error) error {
	return order.ErrPanicked
}

func TestPanicStopsWorker(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 2
	cfg.MinJobs, cfg.MaxJobs = 3, 3
	pool, err := New(panickingKitchen{}, testLogger(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	report, _ := pool.Run(context.Background())
	if len(report.Jobs) != 2 {
		t.Fatalf("expected each worker to stop after its first job, got %d jobs", len(report.Jobs))
	}
}

func TestRunCancelledBetweenJobs(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 4
	cfg.MinJobs, cfg.MaxJobs = 3, 3
	cfg.MinIdle, cfg.MaxIdle = time.Hour, time.Hour

	pool, err := New(memory.New(), testLogger(), cfg)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	report, err := pool.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if time.Since(start) > 10*time.Second {
		t.Fatal("run did not stop on cancellation")
	}
	if len(report.Jobs) != cfg.Workers {
		t.Fatalf("expected one job per worker before cancellation, got %d", len(report.Jobs))
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 0
	if _, err := New(memory.New(), testLogger(), cfg); err == nil {
		t.Fatal("expected error for zero workers")
	}
	cfg = testConfig()
	cfg.MaxJobs = 0
	if _, err := New(memory.New(), testLogger(), cfg); err == nil {
		t.Fatal("expected error for bad job range")
	}
}

func TestActionString(t *testing.T) {
	for a, want := range map[Action]string{TableStatus: "table_status", WriteOrder: "write_order", RemoveItem: "remove_item"} {
		if a.String() != want {
			t.Fatalf("%d: got %s", a, a.String())
		}
	}
}

// Command tableflow runs the waitstaff simulation against an in-memory
// order store and prints the final state of every table.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"slices"

	"tableflow/pkg/config"
	"tableflow/pkg/logger"
	"tableflow/pkg/order"
	"tableflow/pkg/order/memory"
	"tableflow/pkg/otel"
	"tableflow/pkg/waitstaff"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cfg, err := config.Load(os.Getenv)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.New(os.Stdout, cfg.LogLevel, "tableflow-sim", otel.GetTraceID)
	defer log.Sync()

	store := memory.New()

	wcfg := waitstaff.DefaultConfig()
	wcfg.Workers = cfg.Workers
	wcfg.Tables = order.TableID(cfg.Tables)

	pool, err := waitstaff.New(store, log, wcfg)
	if err != nil {
		log.Error(ctx, "waitstaff", "error", err)
		os.Exit(1)
	}

	report, err := pool.Run(ctx)
	log.Info(ctx, "simulation finished", "jobs", len(report.Jobs), "abandoned", report.Failed())
	if err != nil {
		log.Error(ctx, "simulation", "error", err)
	}

	tables, terr := store.Tables(context.Background())
	if terr != nil {
		log.Error(ctx, "final state", "error", terr)
		os.Exit(1)
	}
	ids := make([]order.TableID, 0, len(tables))
	for id := range tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Printf("table %d:\n", id)
		for _, it := range tables[id] {
			fmt.Printf("  %s  %-15s %2d min (%ds)\n", it.ID, it.Name, it.CookTime, it.CookTimeSeconds())
		}
	}

	if err != nil {
		os.Exit(1)
	}
}

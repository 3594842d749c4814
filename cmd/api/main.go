package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "tableflow/docs"
	"tableflow/pkg/api"
	"tableflow/pkg/config"
	"tableflow/pkg/logger"
	"tableflow/pkg/order/memory"
	"tableflow/pkg/otel"
	"tableflow/pkg/ticket"
)

// @title tableflow API
// @version 1.0
// @description Per-table restaurant orders
// @BasePath /
func main() {
	ctx := context.Background()

	cfg, err := config.Load(os.Getenv)
	bootLog := logger.New(os.Stdout, logger.LevelInfo, "tableflow", otel.GetTraceID)
	if err != nil {
		bootLog.Error(ctx, "load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.RequireAddr(); err != nil {
		bootLog.Error(ctx, "load config", "error", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, "tableflow", otel.GetTraceID)
	defer log.Sync()

	if err := run(ctx, log, cfg); err != nil {
		log.Error(ctx, "startup", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *logger.Logger, cfg config.Config) error {
	tp, shutdown, err := otel.InitTracing(log, otel.Config{ServiceName: "tableflow", Host: cfg.OTELHost, Probability: 1.0})
	if err != nil {
		return err
	}
	defer shutdown(context.Background())

	var opts []memory.Option
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn(ctx, "redis unreachable, tickets will be dropped", "addr", cfg.RedisAddr, "error", err)
		}
		opts = append(opts, memory.WithObserver(ticket.NewPublisher(rdb, cfg.TicketChannel, log)))
		log.Info(ctx, "ticket feed enabled", "addr", cfg.RedisAddr)
	}
	store := memory.New(opts...)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewServer(store, log, tp.Tracer("tableflow")),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		log.Info(ctx, "listening", "addr", cfg.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case sig := <-stop:
		log.Info(ctx, "shutting down", "signal", sig.String())
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error(ctx, "http shutdown", "error", err)
		return server.Close()
	}
	return nil
}

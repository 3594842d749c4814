// Package config reads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strconv"

	"tableflow/pkg/logger"
)

// ErrMissingAddr is returned when the service bind address is not set.
var ErrMissingAddr = errors.New("TABLEFLOW_ADDR is required")

// Config holds the settings of both binaries.
type Config struct {
	Addr          string
	OTELHost      string
	RedisAddr     string
	TicketChannel string
	LogLevel      logger.Level
	Workers       int
	Tables        int
}

// Load builds a Config from getenv, typically os.Getenv.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		Addr:          getenv("TABLEFLOW_ADDR"),
		OTELHost:      getenv("OTEL_HOST"),
		RedisAddr:     getenv("REDIS_ADDR"),
		TicketChannel: getenv("TICKET_CHANNEL"),
	}

	lvl, err := logger.ParseLevel(getenv("LOG_LEVEL"))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = lvl

	if cfg.Workers, err = intVar(getenv, "WAITSTAFF_WORKERS", 25); err != nil {
		return Config{}, err
	}
	if cfg.Tables, err = intVar(getenv, "WAITSTAFF_TABLES", 15); err != nil {
		return Config{}, err
	}
	if cfg.Tables > 255 {
		return Config{}, fmt.Errorf("WAITSTAFF_TABLES: %d exceeds 255", cfg.Tables)
	}
	return cfg, nil
}

// RequireAddr reports ErrMissingAddr when no bind address is configured.
func (c Config) RequireAddr() error {
	if c.Addr == "" {
		return ErrMissingAddr
	}
	return nil
}

func intVar(getenv func(string) string, key string, def int) (int, error) {
	v := getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s: invalid value %q", key, v)
	}
	return n, nil
}

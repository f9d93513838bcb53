package db

import (
	"context"
	"fmt"
	"time"

	"solarintake/pkg/types"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schema = "solarintake"

func Connect(ctx context.Context, config *types.Config) (*pgxpool.Pool, error) {
	cfg, err := poolConfig(config)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// poolConfig parses DatabaseURL and applies the pool limits from config. An
// explicit search_path in the url wins over the intake schema.
func poolConfig(config *types.Config) (*pgxpool.Config, error) {
	if config.DatabaseURL == "" {
		return nil, fmt.Errorf("database url is empty")
	}

	cfg, err := pgxpool.ParseConfig(config.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	if _, ok := cfg.ConnConfig.RuntimeParams["search_path"]; !ok {
		cfg.ConnConfig.RuntimeParams["search_path"] = schema
	}

	if config.DatabaseMaxConns > 0 {
		cfg.MaxConns = config.DatabaseMaxConns
	}
	if config.DatabaseMaxConnIdleSec > 0 {
		cfg.MaxConnIdleTime = time.Duration(config.DatabaseMaxConnIdleSec) * time.Second
	}
	if config.DatabaseMaxConnLifetimeSec > 0 {
		cfg.MaxConnLifetime = time.Duration(config.DatabaseMaxConnLifetimeSec) * time.Second
	}

	return cfg, nil
}

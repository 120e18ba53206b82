package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/6529-Collections/flipscan/internal/config"
	"github.com/6529-Collections/flipscan/internal/db"
	"github.com/6529-Collections/flipscan/internal/eth"
	"github.com/6529-Collections/flipscan/internal/eth/ethdb"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	cacheMemory = "memory"
	cacheBadger = "badger"
	cacheSqlite = "sqlite"
	cacheRedis  = "redis"
)

// openBlockTimestampCache builds the cache backend named by
// BLOCK_TIMESTAMP_CACHE. The returned function releases it.
func openBlockTimestampCache(ctx context.Context, cfg config.Config) (eth.BlockTimestampDb, func(), error) {
	backend := strings.ToLower(strings.TrimSpace(cfg.BlockTimestampCache))
	zap.L().Info("Opening block timestamp cache", zap.String("backend", backend))

	switch backend {
	case "", cacheMemory:
		return eth.NewMemoryBlockTimestampDb(), func() {}, nil

	case cacheBadger:
		bdb, err := db.OpenBadger(cfg.BlockTimestampCachePath)
		if err != nil {
			return nil, nil, err
		}
		return eth.NewBadgerBlockTimestampDb(bdb), func() {
			if err := bdb.Close(); err != nil {
				zap.L().Warn("Error closing badger", zap.Error(err))
			}
		}, nil

	case cacheSqlite:
		sdb, err := db.OpenSqlite(filepath.Join(cfg.BlockTimestampCachePath, "flipscan.sqlite"))
		if err != nil {
			return nil, nil, err
		}
		return ethdb.NewBlockTimestampDb(sdb), func() {
			if err := sdb.Close(); err != nil {
				zap.L().Warn("Error closing DB", zap.Error(err))
			}
		}, nil

	case cacheRedis:
		opts, err := redis.ParseURL(cfg.RedisUrl)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		client := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		return eth.NewRedisBlockTimestampDb(client, cfg.Chain), func() {
			if err := client.Close(); err != nil {
				zap.L().Warn("Error closing redis client", zap.Error(err))
			}
		}, nil
	}

	return nil, nil, fmt.Errorf("unknown BLOCK_TIMESTAMP_CACHE %q", cfg.BlockTimestampCache)
}

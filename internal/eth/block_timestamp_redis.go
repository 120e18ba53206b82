package eth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisOpTimeout = 2 * time.Second

// RedisBlockTimestampDb shares resolved timestamps between scanner runs
// and hosts through a Redis instance.
type RedisBlockTimestampDb struct {
	client *redis.Client
	prefix string
}

func NewRedisBlockTimestampDb(client *redis.Client, chain string) *RedisBlockTimestampDb {
	return &RedisBlockTimestampDb{
		client: client,
		prefix: blockTimestampPrefix + chain + ":",
	}
}

func (r *RedisBlockTimestampDb) key(blockNumber uint64) string {
	return r.prefix + strconv.FormatUint(blockNumber, 10)
}

func (r *RedisBlockTimestampDb) GetTimestamp(blockNumber uint64) (uint64, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	ts, err := r.client.Get(ctx, r.key(blockNumber)).Uint64()
	if errors.Is(err, redis.Nil) {
		return 0, false
	}
	if err != nil {
		zap.L().Warn("Failed reading block timestamp from redis", zap.Uint64("block", blockNumber), zap.Error(err))
		return 0, false
	}
	return ts, true
}

func (r *RedisBlockTimestampDb) SetTimestamp(blockNumber uint64, timestamp uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), redisOpTimeout)
	defer cancel()

	return r.client.SetNX(ctx, r.key(blockNumber), timestamp, 0).Err()
}

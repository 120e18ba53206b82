package eth

import (
	"context"
	"errors"

	"github.com/6529-Collections/flipscan/internal/fetch"
	"github.com/6529-Collections/flipscan/internal/metrics"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"go.uber.org/zap"
)

var ErrMissingTimestamp = errors.New("block has no timestamp")

// blockHeaderTimestamp decodes only the field we need from an
// eth_getBlockByNumber result.
type blockHeaderTimestamp struct {
	Timestamp *hexutil.Uint64 `json:"timestamp"`
}

type BlockTimestampResolver struct {
	client  BlockRPCClient
	cache   BlockTimestampDb
	retry   fetch.RetryPolicy
	metrics *metrics.Metrics
}

func NewBlockTimestampResolver(client BlockRPCClient, cache BlockTimestampDb, retry fetch.RetryPolicy, m *metrics.Metrics) *BlockTimestampResolver {
	return &BlockTimestampResolver{
		client:  client,
		cache:   cache,
		retry:   retry,
		metrics: m,
	}
}

// ResolveTimestamp returns the unix timestamp of blockNumber, from cache when
// possible. The boolean is false when the node never reported a timestamp.
func (r *BlockTimestampResolver) ResolveTimestamp(ctx context.Context, blockNumber uint64) (uint64, bool) {
	if ts, ok := r.cache.GetTimestamp(blockNumber); ok {
		r.metrics.ObserveCacheHit()
		return ts, true
	}
	r.metrics.ObserveCacheMiss()

	var ts uint64
	err := r.retry.Do(ctx, "eth_getBlockByNumber", func(ctx context.Context) error {
		var header *blockHeaderTimestamp
		err := r.client.CallContext(ctx, &header, "eth_getBlockByNumber", hexutil.EncodeUint64(blockNumber), false)
		if err != nil {
			return err
		}
		if header == nil || header.Timestamp == nil {
			return ErrMissingTimestamp
		}
		ts = uint64(*header.Timestamp)
		return nil
	})
	if err != nil {
		r.metrics.ObserveUnresolvedBlock()
		zap.L().Warn("Block timestamp unavailable",
			zap.Uint64("block", blockNumber),
			zap.Error(err),
		)
		return 0, false
	}

	if err := r.cache.SetTimestamp(blockNumber, ts); err != nil {
		zap.L().Warn("Could not cache block timestamp", zap.Uint64("block", blockNumber), zap.Error(err))
	}
	return ts, true
}

package flips

import (
	"context"
	"sort"
	"strings"

	"github.com/6529-Collections/flipscan/pkg/flips/models"
	"github.com/6529-Collections/flipscan/pkg/stringtools"
	"go.uber.org/zap"
)

type TimestampResolver interface {
	ResolveTimestamp(ctx context.Context, blockNumber uint64) (uint64, bool)
}

type Detector struct {
	resolver TimestampResolver
}

func NewDetector(resolver TimestampResolver) *Detector {
	return &Detector{resolver: resolver}
}

type timedSale struct {
	key         models.TokenKey
	blockNumber uint64
	timestamp   int64
	buyer       string
	seller      string
}

// DetectFlips finds addresses that bought a token and sold it in the very
// next sale within windowSeconds (inclusive). Events are one token's
// history; only consecutive sales in block order are compared.
func (d *Detector) DetectFlips(ctx context.Context, events []models.SaleEvent, windowSeconds int64) []models.FlipRecord {
	if len(events) < 2 {
		return nil
	}

	timed := make([]timedSale, 0, len(events))
	for _, ev := range events {
		ts, ok := d.resolver.ResolveTimestamp(ctx, ev.BlockNumber)
		if !ok {
			zap.L().Warn("Dropping sale without block timestamp",
				zap.String("contract", stringtools.ShortAddress(ev.Contract)),
				zap.String("tokenId", ev.TokenID),
				zap.Uint64("block", ev.BlockNumber),
			)
			continue
		}
		timed = append(timed, timedSale{
			key:         ev.Key(),
			blockNumber: ev.BlockNumber,
			timestamp:   int64(ts),
			buyer:       strings.ToLower(ev.Buyer),
			seller:      strings.ToLower(ev.Seller),
		})
	}
	if len(timed) < 2 {
		return nil
	}

	sort.SliceStable(timed, func(i, j int) bool {
		return timed[i].blockNumber < timed[j].blockNumber
	})

	var flips []models.FlipRecord
	for i := 1; i < len(timed); i++ {
		prev, cur := timed[i-1], timed[i]
		if prev.buyer == "" || cur.seller == "" || prev.buyer != cur.seller {
			continue
		}
		dt := cur.timestamp - prev.timestamp
		if dt < 0 || dt > windowSeconds {
			continue
		}
		flips = append(flips, models.FlipRecord{
			Contract:    prev.key.Contract,
			TokenID:     prev.key.TokenID,
			Address:     prev.buyer,
			HoldSeconds: dt,
			BuyBlock:    prev.blockNumber,
			SellBlock:   cur.blockNumber,
		})
	}
	return flips
}

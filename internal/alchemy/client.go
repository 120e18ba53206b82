package alchemy

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"github.com/6529-Collections/flipscan/internal/fetch"
	"github.com/6529-Collections/flipscan/internal/metrics"
	"github.com/6529-Collections/flipscan/pkg/flips/models"
	"github.com/6529-Collections/flipscan/pkg/stringtools"
	"go.uber.org/zap"
)

// MaxPageSize is the largest page the sales endpoint serves.
const MaxPageSize = 1000

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, params url.Values, out any) error
}

type Options struct {
	BaseURL   string
	PageDelay time.Duration
	Metrics   *metrics.Metrics
}

// Client pages through the getNFTSales endpoint.
type Client struct {
	salesURL  string
	fetcher   JSONGetter
	pageDelay time.Duration
	metrics   *metrics.Metrics
}

func NewClient(fetcher JSONGetter, opts Options) *Client {
	return &Client{
		salesURL:  opts.BaseURL + "/getNFTSales",
		fetcher:   fetcher,
		pageDelay: opts.PageDelay,
		metrics:   opts.Metrics,
	}
}

type salesQuery struct {
	contract string
	tokenID  string
	order    Order
	limit    int
	scope    string
}

// GetRecentSales returns up to limit market-wide sales, most recent first.
func (c *Client) GetRecentSales(ctx context.Context, limit int) ([]models.SaleEvent, error) {
	zap.L().Info("Fetching recent sales", zap.Int("limit", limit))
	sales, err := c.paginate(ctx, salesQuery{order: OrderDesc, limit: limit, scope: "recent"})
	if err != nil {
		return nil, err
	}
	zap.L().Info("Recent sales fetched", zap.Int("count", len(sales)))
	return sales, nil
}

// GetSalesForToken returns up to limit sales of one token, oldest first.
func (c *Client) GetSalesForToken(ctx context.Context, contract, tokenID string, limit int) ([]models.SaleEvent, error) {
	zap.L().Info("Fetching token sales history",
		zap.String("contract", stringtools.ShortAddress(contract)),
		zap.String("tokenId", tokenID),
	)
	return c.paginate(ctx, salesQuery{
		contract: contract,
		tokenID:  tokenID,
		order:    OrderAsc,
		limit:    limit,
		scope:    "token",
	})
}

// paginate follows pageKey until limit items were received, the server stops
// returning a pageKey, or a page fails. A failed page keeps what was
// already collected; only fatal errors and cancellation are returned.
func (c *Client) paginate(ctx context.Context, q salesQuery) ([]models.SaleEvent, error) {
	if q.limit <= 0 {
		return nil, nil
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(min(q.limit, MaxPageSize)))
	params.Set("order", string(q.order))
	if q.contract != "" {
		params.Set("contractAddress", q.contract)
	}
	if q.tokenID != "" {
		params.Set("tokenId", q.tokenID)
	}

	var all []models.SaleEvent
	// received counts raw items, dropped ones included, toward limit
	received := 0
	for page := 1; ; page++ {
		var resp salesResponse
		err := c.fetcher.GetJSON(ctx, c.salesURL, params, &resp)
		if err != nil {
			if fetch.Classify(err) == fetch.OutcomeFatal {
				return nil, err
			}
			zap.L().Warn("Sales page unavailable, keeping partial results",
				zap.String("scope", q.scope),
				zap.Int("page", page),
				zap.Int("collected", len(all)),
				zap.Error(err),
			)
			break
		}

		received += len(resp.NftSales)
		dropped := 0
		for _, item := range resp.NftSales {
			ev, ok := item.toSaleEvent()
			if !ok {
				dropped++
				continue
			}
			all = append(all, ev)
		}
		zap.L().Debug("Fetched sales page",
			zap.String("scope", q.scope),
			zap.Int("page", page),
			zap.Int("items", len(resp.NftSales)),
			zap.Int("dropped", dropped),
			zap.Int("collected", len(all)),
			zap.Bool("hasNext", resp.PageKey != ""),
		)

		if received >= q.limit || resp.PageKey == "" {
			break
		}
		params.Set("pageKey", resp.PageKey)
		if fetch.SleepInterrupted(ctx, c.pageDelay) {
			return nil, ctx.Err()
		}
	}

	if len(all) > q.limit {
		all = all[:q.limit]
	}
	c.metrics.ObserveSales(q.scope, len(all))
	return all, nil
}

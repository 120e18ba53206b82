package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/6529-Collections/flipscan/internal/alchemy"
	"github.com/6529-Collections/flipscan/internal/config"
	"github.com/6529-Collections/flipscan/internal/eth"
	"github.com/6529-Collections/flipscan/internal/fetch"
	"github.com/6529-Collections/flipscan/internal/metrics"
	"github.com/6529-Collections/flipscan/internal/rpc"
	"github.com/6529-Collections/flipscan/pkg/flips"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var Version = "dev" // Overridden by release build script

func init() {
	logger := zap.Must(zap.NewProduction())
	if config.Get().LogZapMode == "development" {
		logger = zap.Must(zap.NewDevelopment())
	}
	zap.ReplaceGlobals(logger)
}

func main() {
	zap.L().Info("Starting flipscan...", zap.String("Version", Version))

	cfg := config.Get()
	if err := cfg.Validate(); err != nil {
		zap.L().Fatal("Invalid configuration", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Stdout); err != nil {
		zap.L().Fatal("Scan failed", zap.Error(err))
	}

	zap.L().Info("Shutdown complete")
	_ = zap.L().Sync()
}

// run wires the pipeline from cfg, performs one scan and writes the summary
// to out. When RPC_PORT is set the API keeps serving the report until ctx
// is canceled.
func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	m := metrics.NewMetrics()

	cache, closeCache, err := openBlockTimestampCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening block timestamp cache: %w", err)
	}
	defer closeCache()

	retry := fetch.RetryPolicy{
		MaxAttempts: cfg.RetryCount,
		BaseDelay:   cfg.RetryBaseDelay(),
		Metrics:     m,
	}
	fetcher := fetch.New(
		fetch.WithTimeout(cfg.RequestTimeout()),
		fetch.WithRetryPolicy(retry),
		fetch.WithMetrics(m),
	)

	rpcClient, err := eth.CreateBlockRPCClient(ctx, fetcher.HTTPClient())
	if err != nil {
		return err
	}
	defer rpcClient.Close()

	resolver := eth.NewBlockTimestampResolver(rpcClient, cache, retry, m)
	sales := alchemy.NewClient(fetcher, alchemy.Options{
		BaseURL:   cfg.NftApiURL(),
		PageDelay: cfg.RequestDelay(),
		Metrics:   m,
	})
	scanner := flips.NewScanner(flips.ScannerConfig{
		RecentSalesLimit: cfg.RecentSalesLimit,
		MaxTokens:        cfg.MaxNftsToCheck,
		HistoryLimit:     cfg.DetailLimitPerNft,
		WindowSeconds:    cfg.QuickFlipWindowSec,
		TargetDelay:      cfg.RequestDelay(),
	}, sales, flips.NewDetector(resolver), m)

	g, gctx := errgroup.WithContext(ctx)

	if cfg.RPCPort > 0 {
		closeRpcServer := rpc.StartRPCServer(cfg.RPCPort, gctx, scanner, m)
		g.Go(func() error {
			<-gctx.Done()
			closeRpcServer()
			return nil
		})
	}

	g.Go(func() error {
		report, err := scanner.Run(gctx)
		switch {
		case errors.Is(err, flips.ErrNoRecentSales), errors.Is(err, flips.ErrNoTargets):
			zap.L().Info("Nothing to scan", zap.Error(err))
		case errors.Is(err, context.Canceled):
			zap.L().Info("Scan interrupted, reporting partial results")
		case err != nil:
			// flips found before the failure are still reported
			if len(report.Flips) > 0 {
				if werr := flips.WriteSummary(out, report.Flips); werr != nil {
					zap.L().Error("Failed writing partial summary", zap.Error(werr))
				}
			}
			return err
		}
		if err := flips.WriteSummary(out, report.Flips); err != nil {
			return fmt.Errorf("writing summary: %w", err)
		}
		if cfg.RPCPort > 0 && gctx.Err() == nil {
			zap.L().Info("Scan complete, serving results until interrupted", zap.Int("port", cfg.RPCPort))
		}
		return nil
	})

	return g.Wait()
}

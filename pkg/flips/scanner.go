package flips

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/6529-Collections/flipscan/internal/fetch"
	"github.com/6529-Collections/flipscan/internal/metrics"
	"github.com/6529-Collections/flipscan/pkg/flips/models"
	"github.com/6529-Collections/flipscan/pkg/stringtools"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNoRecentSales = errors.New("no recent sales returned")
	ErrNoTargets     = errors.New("no valid tokens to check")
)

type SalesSource interface {
	GetRecentSales(ctx context.Context, limit int) ([]models.SaleEvent, error)
	GetSalesForToken(ctx context.Context, contract, tokenID string, limit int) ([]models.SaleEvent, error)
}

type ScannerConfig struct {
	RecentSalesLimit int
	MaxTokens        int
	HistoryLimit     int
	WindowSeconds    int64
	TargetDelay      time.Duration
}

type Report struct {
	RunID          string              `json:"runId"`
	StartedAt      time.Time           `json:"startedAt"`
	FinishedAt     time.Time           `json:"finishedAt"`
	RecentSales    int                 `json:"recentSales"`
	Targets        int                 `json:"targets"`
	TargetsScanned int                 `json:"targetsScanned"`
	TargetsSkipped int                 `json:"targetsSkipped"`
	Flips          []models.FlipRecord `json:"flips"`
}

type Scanner struct {
	cfg      ScannerConfig
	sales    SalesSource
	detector *Detector
	metrics  *metrics.Metrics

	mu     sync.RWMutex
	latest *Report
}

func NewScanner(cfg ScannerConfig, sales SalesSource, detector *Detector, m *metrics.Metrics) *Scanner {
	return &Scanner{
		cfg:      cfg,
		sales:    sales,
		detector: detector,
		metrics:  m,
	}
}

// LatestReport returns the report of the last finished run, or nil.
func (s *Scanner) LatestReport() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func (s *Scanner) publish(r *Report) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = r
}

// Run performs one full scan. Targets are processed one at a time in the
// order they first appear in the recent sales feed. The returned report is
// never nil; ErrNoRecentSales and ErrNoTargets mark an early, non-fatal end.
func (s *Scanner) Run(ctx context.Context) (*Report, error) {
	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}
	log := zap.L().With(zap.String("runId", report.RunID))
	defer func() {
		report.FinishedAt = time.Now().UTC()
		s.publish(report)
	}()

	recent, err := s.sales.GetRecentSales(ctx, s.cfg.RecentSalesLimit)
	if err != nil {
		return report, fmt.Errorf("fetching recent sales: %w", err)
	}
	report.RecentSales = len(recent)
	if len(recent) == 0 {
		log.Warn("No recent sales returned, nothing to scan")
		return report, ErrNoRecentSales
	}

	targets := SelectTargets(recent, s.cfg.MaxTokens)
	report.Targets = len(targets)
	if len(targets) == 0 {
		log.Warn("No valid tokens found in recent sales")
		return report, ErrNoTargets
	}
	log.Info("Selected tokens to check",
		zap.Int("recentSales", len(recent)),
		zap.Int("targets", len(targets)),
	)

	for i, target := range targets {
		log.Info(fmt.Sprintf("[%d/%d] Checking token", i+1, len(targets)),
			zap.String("contract", stringtools.ShortAddress(target.Contract)),
			zap.String("tokenId", target.TokenID),
		)

		history, err := s.sales.GetSalesForToken(ctx, target.Contract, target.TokenID, s.cfg.HistoryLimit)
		if err != nil {
			return report, fmt.Errorf("fetching sales of %s: %w", target, err)
		}
		s.metrics.ObserveTargetScanned()

		if len(history) < 2 {
			log.Info("fewer than 2 sales, skipping",
				zap.String("token", target.String()),
				zap.Int("sales", len(history)),
			)
			report.TargetsSkipped++
		} else {
			report.TargetsScanned++
			flips := s.detector.DetectFlips(ctx, history, s.cfg.WindowSeconds)
			for _, f := range flips {
				log.Info("Quick flip detected",
					zap.String("token", target.String()),
					zap.String("address", f.Address),
					zap.Float64("hours", f.HoldHours()),
					zap.Uint64("buyBlock", f.BuyBlock),
					zap.Uint64("sellBlock", f.SellBlock),
				)
			}
			report.Flips = append(report.Flips, flips...)
			s.metrics.ObserveFlips(len(flips))
		}

		if i < len(targets)-1 && fetch.SleepInterrupted(ctx, s.cfg.TargetDelay) {
			return report, ctx.Err()
		}
	}

	log.Info("Scan finished",
		zap.Int("scanned", report.TargetsScanned),
		zap.Int("skipped", report.TargetsSkipped),
		zap.Int("flips", len(report.Flips)),
	)
	return report, nil
}

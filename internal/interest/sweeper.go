package interest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bank-ledger-go/internal/models"
	"bank-ledger-go/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// SweepReport summarizes one pass over every interest-bearing account
type SweepReport struct {
	Accounts int
	Credited int
	Skipped  int
	Failed   int
	Total    decimal.Decimal
	Errors   map[int64]error
}

// Sweeper runs AccrueInterest for every interest-bearing account, each in its
// own unit of work, so one failing account never holds back the others.
type Sweeper struct {
	engine      *Engine
	store       store.LedgerStore
	interval    time.Duration
	concurrency int

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}
}

func NewSweeper(engine *Engine, s store.LedgerStore, cfg models.AccrualConfig) *Sweeper {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Sweeper{
		engine:      engine,
		store:       s,
		interval:    cfg.Interval,
		concurrency: concurrency,
	}
}

func (s *Sweeper) Sweep(ctx context.Context) (*SweepReport, error) {
	timer := prometheus.NewTimer(sweepDuration)
	defer timer.ObserveDuration()

	ids, err := s.store.ListInterestBearingAccountIds(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to list interest-bearing accounts: %w", err)
	}

	report := &SweepReport{
		Accounts: len(ids),
		Total:    decimal.Zero,
		Errors:   make(map[int64]error),
	}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			result, err := s.engine.AccrueInterest(gctx, id)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				report.Failed++
				report.Errors[id] = err
			case result.Status == StatusCredited:
				report.Credited++
				report.Total = report.Total.Add(result.Amount)
			default:
				report.Skipped++
			}
			// failures are recorded per account, never returned
			return nil
		})
	}
	_ = g.Wait()
	lastSweepTimestamp.SetToCurrentTime()

	zap.L().Info("Interest sweep finished",
		zap.Int("accounts", report.Accounts),
		zap.Int("credited", report.Credited),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
		zap.String("total", models.FixedAmount(report.Total)))

	return report, ctx.Err()
}

// Start runs a sweep immediately and then once per interval until Stop is
// called or ctx is done.
func (s *Sweeper) Start(ctx context.Context) error {
	if s.interval <= 0 {
		return fmt.Errorf("sweep interval must be positive, got %v", s.interval)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("sweeper already running")
	}
	s.running = true
	s.stopChan = make(chan struct{})
	s.doneChan = make(chan struct{})

	go s.pollLoop(ctx, s.stopChan, s.doneChan)

	zap.L().Info("Interest sweeper started",
		zap.Duration("interval", s.interval),
		zap.Int("concurrency", s.concurrency))
	return nil
}

// Stop gracefully stops the sweeper, waiting for an in-flight sweep to finish
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	stopChan, doneChan := s.stopChan, s.doneChan
	s.mu.Unlock()

	zap.L().Info("Stopping interest sweeper")
	close(stopChan)
	<-doneChan
	zap.L().Info("Interest sweeper stopped")
}

func (s *Sweeper) pollLoop(ctx context.Context, stopChan <-chan struct{}, doneChan chan<- struct{}) {
	defer close(doneChan)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runSweep(ctx)

	for {
		select {
		case <-ticker.C:
			s.runSweep(ctx)
		case <-stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sweeper) runSweep(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		zap.L().Error("Interest sweep failed", zap.Error(err))
	}
}

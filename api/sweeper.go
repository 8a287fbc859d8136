/*
sweeper.go - Idle worksheet sweeper

PURPOSE:
  Worksheets live only in memory. The sweeper periodically removes those
  that nobody has edited for longer than the configured TTL so a long
  running server does not grow without bound.

DESIGN:
  - Runs until its context is cancelled (errgroup member in main)
  - Sweeps once immediately, then on every tick
  - A worksheet is idle when its UpdatedAt is older than now - TTL
  - A failed sweep is logged and retried on the next tick

CONFIGURATION:
  - TTL:      WORKSHEET_TTL (0 disables the sweeper)
  - Interval: SWEEP_INTERVAL

SEE ALSO:
  - config/config.go: WorksheetTTL, SweepInterval
  - cmd/server/main.go: Starts the sweeper
*/
package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/warp/splitsheet/worksheet"
)

// IdleSweeper deletes worksheets that have not changed within TTL.
type IdleSweeper struct {
	Store    worksheet.Store
	TTL      time.Duration
	Interval time.Duration
	Metrics  *Metrics
	Logger   *slog.Logger

	now func() time.Time
}

// NewIdleSweeper creates a sweeper over store.
func NewIdleSweeper(store worksheet.Store, ttl, interval time.Duration, metrics *Metrics, logger *slog.Logger) *IdleSweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &IdleSweeper{
		Store:    store,
		TTL:      ttl,
		Interval: interval,
		Metrics:  metrics,
		Logger:   logger,
		now:      time.Now,
	}
}

// Run sweeps until ctx is done. It returns nil on cancellation.
func (s *IdleSweeper) Run(ctx context.Context) error {
	if s.TTL <= 0 || s.Interval <= 0 {
		s.Logger.Info("sweeper disabled")
		return nil
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	s.Logger.Info("sweeper started", "ttl", s.TTL, "interval", s.Interval)
	s.sweepAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog(ctx)
		case <-ctx.Done():
			s.Logger.Info("sweeper stopped")
			return nil
		}
	}
}

func (s *IdleSweeper) sweepAndLog(ctx context.Context) {
	n, err := s.Sweep(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			s.Logger.Error("sweep failed", "error", err)
		}
		return
	}
	if n > 0 {
		s.Logger.Info("swept idle worksheets", "count", n)
	}
}

// Sweep deletes every idle worksheet once and reports how many it removed.
func (s *IdleSweeper) Sweep(ctx context.Context) (int, error) {
	summaries, err := s.Store.List(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := s.clock().Add(-s.TTL)
	removed := 0
	for _, sum := range summaries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !sum.UpdatedAt.Before(cutoff) {
			continue
		}
		if err := s.Store.Delete(ctx, sum.ID); err != nil {
			// Deleted concurrently by a client.
			if errors.Is(err, worksheet.ErrWorksheetNotFound) {
				continue
			}
			return removed, err
		}
		removed++
		s.Logger.Debug("worksheet expired", "worksheet_id", sum.ID, "updated_at", sum.UpdatedAt)
	}

	if s.Metrics != nil && removed > 0 {
		s.Metrics.SweptWorksheets.Add(float64(removed))
		s.Metrics.OpenWorksheets.Sub(float64(removed))
	}
	return removed, nil
}

func (s *IdleSweeper) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

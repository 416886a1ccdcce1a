package workers

import (
	"context"
	"log/slog"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/demetriomjr/real-state-crm/contract"
)

// Ensure *SweepWorker implements the contract.Worker interface at compile time.
var _ contract.Worker = (*SweepWorker)(nil)

// Sweepable is the slice of the hub the sweeper needs.
type Sweepable interface {
	Sweep() int
}

// SweepWorker periodically evicts subscriptions that went idle beyond the
// hub's timeout. The per-subscription heartbeat keeps timestamps fresh
// while a transport is served; the sweep is the mechanism that actually
// reaps the ones that died without a disconnect signal.
type SweepWorker struct {
	hub      Sweepable
	clock    clock.Clock
	interval time.Duration
	log      *slog.Logger
}

func NewSweepWorker(hub Sweepable, clk clock.Clock, interval time.Duration, log *slog.Logger) *SweepWorker {
	return &SweepWorker{hub: hub, clock: clk, interval: interval, log: log}
}

func (w *SweepWorker) Run(ctx context.Context) error {
	w.log.Info("Starting subscription sweep worker", "interval", w.interval.String())
	ticker := w.clock.Ticker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if evicted := w.hub.Sweep(); evicted > 0 {
				w.log.Info("Sweep removed stale subscriptions", "count", evicted)
			}
		}
	}
}

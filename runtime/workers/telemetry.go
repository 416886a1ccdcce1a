package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/demetriomjr/real-state-crm/contract"
)

var _ contract.Worker = (*TelemetryWorker)(nil)

// HubStats is the read-only slice of the hub the telemetry worker needs.
type HubStats interface {
	ActiveCount() int
	PendingCount() int
}

// TelemetryWorker logs delivery-core gauges together with process health
// (RSS, CPU) on a fixed cadence so an operator can spot subscription leaks
// or an inflating offline cache without external tooling.
type TelemetryWorker struct {
	log      *slog.Logger
	hub      HubStats
	interval time.Duration
}

func NewTelemetryWorker(log *slog.Logger, hub HubStats, interval time.Duration) *TelemetryWorker {
	return &TelemetryWorker{log: log, hub: hub, interval: interval}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	w.log.Info("Starting telemetry worker", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			rss, cpu, err := selfStats(p)
			if err != nil {
				w.log.Error("Failed to collect self stats", "err", err)
				continue
			}
			w.log.Info("Realtime delivery stats",
				"subscriptions", w.hub.ActiveCount(),
				"pendingMessages", w.hub.PendingCount(),
				"rssBytes", rss,
				"cpuPercent", cpu,
			)
		}
	}
}

// selfStats retrieves memory and CPU usage for the given process.
func selfStats(p *process.Process) (uint64, float64, error) {
	memInfo, err := p.MemoryInfo()
	if err != nil {
		return 0, 0, err
	}
	cpuPercent, err := p.CPUPercent()
	if err != nil {
		return 0, 0, err
	}
	return memInfo.RSS, cpuPercent, nil
}

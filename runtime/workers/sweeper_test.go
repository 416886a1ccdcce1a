package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
)

type countingSweepable struct {
	sweeps atomic.Int32
}

func (s *countingSweepable) Sweep() int {
	s.sweeps.Add(1)
	return 0
}

func TestSweepWorker_Sweeps_On_Every_Tick(t *testing.T) {
	req := require.New(t)
	mock := clock.NewMock()
	hub := &countingSweepable{}
	worker := NewSweepWorker(hub, mock, time.Minute, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = worker.Run(ctx)
		close(done)
	}()

	// Let the worker install its ticker before driving the clock
	time.Sleep(10 * time.Millisecond)

	// When three sweep intervals elapse
	// (one at a time so no tick is coalesced by the ticker)
	for i := 0; i < 3; i++ {
		mock.Add(time.Minute)
		req.Eventually(func() bool {
			return hub.sweeps.Load() >= int32(i+1)
		}, time.Second, 5*time.Millisecond)
	}

	// Then the hub was swept on each tick and the worker stops on cancel
	req.GreaterOrEqual(hub.sweeps.Load(), int32(3))
	cancel()
	select {
	case <-done:
	case <-time.After(1 * time.Second):
		req.Fail("Sweep worker did not stop on context cancellation")
	}
}

package workers

import (
	"context"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type funcWorker struct {
	run func(ctx context.Context) error
}

func (w *funcWorker) Run(ctx context.Context) error {
	return w.run(ctx)
}

func TestSupervisor_Restart_on_panic(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a worker that panics on every run
	var calls atomic.Int64
	worker := &funcWorker{run: func(ctx context.Context) error {
		calls.Add(1)
		panic("boom")
	}}

	sup := NewSupervisor(log)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	// When it runs under supervision
	go sup.Add(worker).Run(ctx)

	// Waiting for panics and restarts
	time.Sleep(900 * time.Millisecond)

	// Then it was restarted at least once
	req.GreaterOrEqual(calls.Load(), int64(2))
}

func TestSupervisor_Stop_on_success(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a worker running only once
	var calls atomic.Int64
	worker := &funcWorker{run: func(ctx context.Context) error {
		calls.Add(1)
		return nil
	}}

	sup := NewSupervisor(log)

	// Given a channel to notify when Run() terminated
	done := make(chan struct{})

	go func() {
		sup.Add(worker).Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
		// Then supervisor detected a success and stopped without restarting
		req.EqualValues(1, calls.Load())
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after worker success")
	}
}

func TestSupervisor_Stop_on_context_cancel(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a worker blocking until its context is canceled
	worker := &funcWorker{run: func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}}

	sup := NewSupervisor(log)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(ctx)
		close(done)
	}()

	// When the context is canceled
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
		// Then the supervisor returned without restarting the worker
	case <-time.After(500 * time.Millisecond):
		req.Fail("Supervisor should have stopped after context cancel")
	}
}

func TestTelemetryWorker_Stop_on_context_cancel(t *testing.T) {
	req := require.New(t)
	log := slog.Default()

	// Given a telemetry worker with a fast tick
	var snapshots atomic.Int64
	worker := NewTelemetryWorker(log, 10*time.Millisecond, func() map[string]any {
		snapshots.Add(1)
		return map[string]any{"totalUsers": 0}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- worker.Run(ctx)
	}()

	// When it has ticked at least once
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		// Then it stopped cleanly after reporting
		req.NoError(err)
		req.GreaterOrEqual(snapshots.Load(), int64(1))
	case <-time.After(500 * time.Millisecond):
		req.Fail("Telemetry worker should have stopped after context cancel")
	}
}

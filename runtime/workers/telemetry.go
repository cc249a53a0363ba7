package workers

import (
	"context"
	"log/slog"
	"os"
	"time"

	_ "github.com/shirou/gopsutil"
	"github.com/shirou/gopsutil/process"
)

// StatsProvider returns a snapshot of relay counters (users, rooms,
// subscriptions, stored messages) at the time of the call.
type StatsProvider func() map[string]any

// TelemetryWorker periodically logs the relay's own process usage together
// with the registry counters. It observes only; nothing downstream depends
// on it running.
type TelemetryWorker struct {
	log      *slog.Logger
	interval time.Duration
	stats    StatsProvider
}

func NewTelemetryWorker(log *slog.Logger, interval time.Duration, stats StatsProvider) *TelemetryWorker {
	return &TelemetryWorker{log: log, interval: interval, stats: stats}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.report()
		}
	}
}

func (w *TelemetryWorker) report() {
	attrs := []any{}
	for key, value := range w.stats() {
		attrs = append(attrs, key, value)
	}

	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		w.log.Error("Error while retrieving process", "err", err)
		w.log.Info("Relay telemetry", attrs...)
		return
	}
	cpu, err := p.CPUPercent()
	if err != nil {
		w.log.Error("Error while finding process cpu usage", "err", err)
	} else {
		attrs = append(attrs, "cpu", cpu)
	}
	ram, err := p.MemoryPercent()
	if err != nil {
		w.log.Error("Error while finding process ram usage", "err", err)
	} else {
		attrs = append(attrs, "ram", ram)
	}

	w.log.Info("Relay telemetry", attrs...)
}

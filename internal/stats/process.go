// Package stats samples runtime and process resource usage and exposes it as
// metrics.
package stats

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/process"
	"go.opentelemetry.io/otel/metric"
)

type Snapshot struct {
	Timestamp    time.Time
	HeapAlloc    uint64
	Sys          uint64
	NumGC        uint32
	NumGoroutine int
	// process values are zero when the platform does not report them
	ProcessRSS uint64
	CPUPercent float64
}

// LogArgs renders the snapshot as slog key value pairs.
func (s Snapshot) LogArgs() []any {
	return []any{
		"heap_alloc", humanize.Bytes(s.HeapAlloc),
		"sys", humanize.Bytes(s.Sys),
		"rss", humanize.Bytes(s.ProcessRSS),
		"cpu_percent", fmt.Sprintf("%.1f", s.CPUPercent),
		"goroutines", s.NumGoroutine,
		"gc_cycles", s.NumGC,
	}
}

type Sampler struct {
	proc *process.Process
}

func NewSampler() (*Sampler, error) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return nil, fmt.Errorf("failed to get process info: %w", err)
	}
	return &Sampler{proc: proc}, nil
}

func (s *Sampler) Sample(ctx context.Context) Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := Snapshot{
		Timestamp:    time.Now(),
		HeapAlloc:    memStats.HeapAlloc,
		Sys:          memStats.Sys,
		NumGC:        memStats.NumGC,
		NumGoroutine: runtime.NumGoroutine(),
	}
	if memInfo, err := s.proc.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
		snap.ProcessRSS = memInfo.RSS
	}
	if cpuPercent, err := s.proc.CPUPercentWithContext(ctx); err == nil {
		snap.CPUPercent = cpuPercent
	}
	return snap
}

// RegisterMetrics publishes process gauges sampled on every collection.
func (s *Sampler) RegisterMetrics(meter metric.Meter) (metric.Registration, error) {
	rss, err := meter.Int64ObservableGauge("process_rss_bytes", metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	heap, err := meter.Int64ObservableGauge("go_heap_alloc_bytes", metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}
	cpu, err := meter.Float64ObservableGauge("process_cpu_percent")
	if err != nil {
		return nil, err
	}
	goroutines, err := meter.Int64ObservableGauge("go_goroutines")
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(ctx context.Context, o metric.Observer) error {
		snap := s.Sample(ctx)
		o.ObserveInt64(rss, int64(snap.ProcessRSS))
		o.ObserveInt64(heap, int64(snap.HeapAlloc))
		o.ObserveFloat64(cpu, snap.CPUPercent)
		o.ObserveInt64(goroutines, int64(snap.NumGoroutine))
		return nil
	}, rss, heap, cpu, goroutines)
}

package monitoring

import (
	"context"
	"runtime"
	"time"
)

// MemorySnapshot is one reading of the Go runtime
type MemorySnapshot struct {
	HeapAlloc      uint64    `json:"heap_alloc_bytes"`
	HeapSys        uint64    `json:"heap_sys_bytes"`
	HeapObjects    uint64    `json:"heap_objects"`
	NumGC          uint32    `json:"num_gc"`
	PauseTotalNs   uint64    `json:"gc_pause_total_ns"`
	GCCPUFraction  float64   `json:"gc_cpu_fraction"`
	NumGoroutine   int       `json:"num_goroutine"`
	Timestamp      time.Time `json:"timestamp"`
	HeapPressurePc float64   `json:"heap_pressure_percent"`
}

// RuntimeSampler copies runtime memory statistics into Metrics on an interval.
// Large grids and many open frame streams show up here first.
type RuntimeSampler struct {
	metrics       *Metrics
	logger        *Logger
	interval      time.Duration
	warnThreshold float64 // heap alloc / heap sys, percent
}

// NewRuntimeSampler creates a sampler; warnPercent <= 0 disables the warning
func NewRuntimeSampler(metrics *Metrics, logger *Logger, interval time.Duration, warnPercent float64) *RuntimeSampler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &RuntimeSampler{
		metrics:       metrics,
		logger:        logger,
		interval:      interval,
		warnThreshold: warnPercent,
	}
}

// Sample reads the runtime once and records it
func (s *RuntimeSampler) Sample() MemorySnapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	snap := MemorySnapshot{
		HeapAlloc:     memStats.HeapAlloc,
		HeapSys:       memStats.HeapSys,
		HeapObjects:   memStats.HeapObjects,
		NumGC:         memStats.NumGC,
		PauseTotalNs:  memStats.PauseTotalNs,
		GCCPUFraction: memStats.GCCPUFraction,
		NumGoroutine:  runtime.NumGoroutine(),
		Timestamp:     time.Now(),
	}
	if snap.HeapSys > 0 {
		snap.HeapPressurePc = float64(snap.HeapAlloc) / float64(snap.HeapSys) * 100
	}

	s.metrics.RecordGCMetrics(
		int64(snap.NumGC),
		int64(snap.PauseTotalNs),
		int64(snap.HeapAlloc),
		int64(snap.HeapSys),
		int64(snap.NumGoroutine),
	)

	if s.warnThreshold > 0 && snap.HeapPressurePc > s.warnThreshold && s.logger != nil {
		s.logger.PerformanceLogger("heap_pressure", snap.HeapPressurePc, "percent")
	}

	return snap
}

// Run samples until ctx is done
func (s *RuntimeSampler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.Sample()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s.Sample()
		}
	}
}

package metrics

import (
	"context"
	"runtime"
	"time"
)

const nanosecondsPerMillisecond = 1e6

// RunSystemUpdater refreshes the runtime gauges every interval until ctx is done.
func RunSystemUpdater(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			CollectRuntime()
		}
	}
}

// CollectRuntime samples memory, goroutine and GC statistics once.
func CollectRuntime() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	UpdateSystemMetrics(m.Alloc, runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		RecordSystemGCPauseTime(avgPauseMs)
	}
}

// Package monitoring collects pool-level runtime metrics, adapted from
// the teacher's monitoring.MetricsCollector (atomic counters, a
// mutex-guarded error map) and repurposed from "objects processed/failed"
// to StellarSQL's session-pool lifecycle: gets, misses, evictions, flush
// durations, and rows flushed (spec.md §4.8 Pool).
package monitoring

import (
	"sync"
	"sync/atomic"
	"time"
)

// PoolMetrics collects LRU pool activity counters.
type PoolMetrics struct {
	gets            int64
	misses          int64
	evictions       int64
	flushCount      int64
	flushNanos      int64
	rowsFlushed     int64
	errorCount      map[string]int64
	errorCountMutex sync.RWMutex
}

// NewPoolMetrics returns a zeroed PoolMetrics collector.
func NewPoolMetrics() *PoolMetrics {
	return &PoolMetrics{errorCount: make(map[string]int64)}
}

// IncrementGets records a Pool.Get call.
func (m *PoolMetrics) IncrementGets() { atomic.AddInt64(&m.gets, 1) }

// IncrementMisses records a Pool.Get that had to create a fresh Worker.
func (m *PoolMetrics) IncrementMisses() { atomic.AddInt64(&m.misses, 1) }

// IncrementEvictions records an LRU eviction (a write-back of the tail entry).
func (m *PoolMetrics) IncrementEvictions() { atomic.AddInt64(&m.evictions, 1) }

// RecordFlush records one hierarchicCheck flush's duration and row count.
func (m *PoolMetrics) RecordFlush(d time.Duration, rows int) {
	atomic.AddInt64(&m.flushCount, 1)
	atomic.AddInt64(&m.flushNanos, int64(d))
	atomic.AddInt64(&m.rowsFlushed, int64(rows))
}

// IncrementErrorCount tallies a flush/dispatch error by its kind.
func (m *PoolMetrics) IncrementErrorCount(kind string) {
	m.errorCountMutex.Lock()
	m.errorCount[kind]++
	m.errorCountMutex.Unlock()
}

// Snapshot returns a point-in-time view of every counter.
func (m *PoolMetrics) Snapshot() map[string]interface{} {
	m.errorCountMutex.RLock()
	errs := make(map[string]int64, len(m.errorCount))
	for k, v := range m.errorCount {
		errs[k] = v
	}
	m.errorCountMutex.RUnlock()

	return map[string]interface{}{
		"gets":         atomic.LoadInt64(&m.gets),
		"misses":       atomic.LoadInt64(&m.misses),
		"evictions":    atomic.LoadInt64(&m.evictions),
		"flush_count":  atomic.LoadInt64(&m.flushCount),
		"rows_flushed": atomic.LoadInt64(&m.rowsFlushed),
		"errors":       errs,
	}
}

// AverageFlushDuration returns the mean duration across recorded flushes.
func (m *PoolMetrics) AverageFlushDuration() time.Duration {
	count := atomic.LoadInt64(&m.flushCount)
	if count == 0 {
		return 0
	}
	return time.Duration(atomic.LoadInt64(&m.flushNanos) / count)
}

// HitRate returns the percentage (0-100) of Get calls that found an
// existing session.
func (m *PoolMetrics) HitRate() float64 {
	gets := atomic.LoadInt64(&m.gets)
	if gets == 0 {
		return 0
	}
	misses := atomic.LoadInt64(&m.misses)
	return float64(gets-misses) / float64(gets) * 100
}

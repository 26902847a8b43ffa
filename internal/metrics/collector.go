// Package metrics provides in-memory runtime statistics mirrored into Prometheus.
package metrics

import (
	"math"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Count       int64
	Errors      int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
}

// Snapshot represents the full server statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	DBQuery       *OperationSnapshot
	DBTx          *OperationSnapshot
	GraphQL       *OperationSnapshot
	PasswordHash  *OperationSnapshot
}

// Operation names for the collector.
const (
	OpDBQuery      = "db_query"
	OpDBTx         = "db_tx"
	OpGraphQL      = "graphql_request"
	OpPasswordHash = "password_hash"
)

// Collector aggregates in-memory runtime statistics.
// All methods are thread-safe. A nil *Collector ignores all records.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics

	registry  *prometheus.Registry
	durations *prometheus.HistogramVec
	failures  *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with its own Prometheus registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	durations := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recipebox",
		Name:      "operation_duration_seconds",
		Help:      "Duration of recipebox operations by type.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recipebox",
		Name:      "operation_errors_total",
		Help:      "Failed recipebox operations by type.",
	}, []string{"op"})
	reg.MustRegister(durations, failures, collectors.NewGoCollector())

	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
		registry:  reg,
		durations: durations,
		failures:  failures,
	}
}

// Registry exposes the Prometheus registry for the /metrics handler and
// for registering additional collectors.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records timing for an operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.record(op, duration, nil)
}

// RecordResult records timing and counts err as a failure when non-nil.
func (c *Collector) RecordResult(op string, duration time.Duration, err error) {
	c.record(op, duration, err)
}

// Track returns a func that records the elapsed time since Track was called.
//
//	defer c.Track(metrics.OpDBQuery)(&err)
func (c *Collector) Track(op string) func(errp *error) {
	start := time.Now()
	return func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		c.record(op, time.Since(start), err)
	}
}

func (c *Collector) record(op string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.durations.WithLabelValues(op).Observe(duration.Seconds())
	if err != nil {
		c.failures.WithLabelValues(op).Inc()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	if err != nil {
		m.Errors++
	}
	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *OperationMetrics) *OperationSnapshot {
	if m == nil || m.Count == 0 {
		return nil
	}
	return &OperationSnapshot{
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.startTime).Seconds(),
		DBQuery:       snapshotOp(c.ops[OpDBQuery]),
		DBTx:          snapshotOp(c.ops[OpDBTx]),
		GraphQL:       snapshotOp(c.ops[OpGraphQL]),
		PasswordHash:  snapshotOp(c.ops[OpPasswordHash]),
	}
}

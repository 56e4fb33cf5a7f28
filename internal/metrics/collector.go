// Package metrics provides in-memory runtime statistics for the portal sites.
package metrics

import (
	"math"
	"sync"
	"time"
)

// Operation names recorded by the chat pipeline and the record store.
const (
	OpAgentRespond    = "agent_respond"
	OpDocumentExtract = "document_extract"
	OpHistoryLoad     = "history_load"
	OpHistorySave     = "history_save"
	OpDBQuery         = "db_query"
)

// operationMetrics holds aggregated metrics for a single operation.
type operationMetrics struct {
	count    int64
	failures int64
	total    time.Duration
	min      time.Duration
	max      time.Duration
}

// OperationSnapshot provides computed stats for one operation.
type OperationSnapshot struct {
	Count       int64   `json:"count"`
	Failures    int64   `json:"failures"`
	TotalTimeMs int64   `json:"total_time_ms"`
	AvgTimeMs   float64 `json:"avg_time_ms"`
	MinTimeMs   int64   `json:"min_time_ms"`
	MaxTimeMs   int64   `json:"max_time_ms"`
}

// Snapshot is the full set of statistics at a point in time.
type Snapshot struct {
	UptimeSeconds   float64            `json:"uptime_seconds"`
	ChatExchanges   int64              `json:"chat_exchanges"`
	GuestExchanges  int64              `json:"guest_exchanges"`
	AgentRespond    *OperationSnapshot `json:"agent_respond,omitempty"`
	DocumentExtract *OperationSnapshot `json:"document_extract,omitempty"`
	HistoryLoad     *OperationSnapshot `json:"history_load,omitempty"`
	HistorySave     *OperationSnapshot `json:"history_save,omitempty"`
	DBQuery         *OperationSnapshot `json:"db_query,omitempty"`
}

// Collector aggregates in-memory runtime statistics.
// All methods are safe for concurrent use; a nil *Collector discards everything.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*operationMetrics
	exchanges int64
	guests    int64
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*operationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold the write lock.
func (c *Collector) getOrCreate(op string) *operationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &operationMetrics{min: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// RecordTiming records one execution of op. A non-nil err counts as a failure.
func (c *Collector) RecordTiming(op string, duration time.Duration, err error) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.count++
	m.total += duration
	if err != nil {
		m.failures++
	}
	if duration < m.min {
		m.min = duration
	}
	if duration > m.max {
		m.max = duration
	}
}

// Time runs fn and records its duration and outcome under op.
func (c *Collector) Time(op string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.RecordTiming(op, time.Since(start), err)
	return err
}

// RecordExchange counts one successful chat exchange.
func (c *Collector) RecordExchange(guest bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges++
	if guest {
		c.guests++
	}
}

// snapshotOp creates a snapshot for an operation, returning nil if no data.
func snapshotOp(m *operationMetrics) *OperationSnapshot {
	if m == nil || m.count == 0 {
		return nil
	}
	return &OperationSnapshot{
		Count:       m.count,
		Failures:    m.failures,
		TotalTimeMs: m.total.Milliseconds(),
		AvgTimeMs:   float64(m.total.Milliseconds()) / float64(m.count),
		MinTimeMs:   m.min.Milliseconds(),
		MaxTimeMs:   m.max.Milliseconds(),
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
		UptimeSeconds:   time.Since(c.startTime).Seconds(),
		ChatExchanges:   c.exchanges,
		GuestExchanges:  c.guests,
		AgentRespond:    snapshotOp(c.ops[OpAgentRespond]),
		DocumentExtract: snapshotOp(c.ops[OpDocumentExtract]),
		HistoryLoad:     snapshotOp(c.ops[OpHistoryLoad]),
		HistorySave:     snapshotOp(c.ops[OpHistorySave]),
		DBQuery:         snapshotOp(c.ops[OpDBQuery]),
	}
}

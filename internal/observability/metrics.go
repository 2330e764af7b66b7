package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics accumulates in-memory request and error counters. Request
// counters are keyed by path|method|status, error counters by
// path|method|code (the domain error code the middleware resolved).
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	totalDuration map[string]time.Duration
}

// Snapshot is a point-in-time copy of the counters, served by the health
// metrics endpoint.
type Snapshot struct {
	Requests   map[string]int64 `json:"requests"`
	Errors     map[string]int64 `json:"errors"`
	DurationMS map[string]int64 `json:"duration_ms"`
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		totalDuration: make(map[string]time.Duration),
	}
}

// RecordRequest counts a completed request and accumulates its duration.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := pathKey(path, method, status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.totalDuration[key] += duration
}

// RecordError counts a request that resolved to a domain error code.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// Snapshot copies the current counters.
func (m *Metrics) Snapshot() Snapshot {
	snapshot := Snapshot{
		Requests:   make(map[string]int64),
		Errors:     make(map[string]int64),
		DurationMS: make(map[string]int64),
	}
	if m == nil {
		return snapshot
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for key, count := range m.requestCount {
		snapshot.Requests[key] = count
	}
	for key, count := range m.errorCount {
		snapshot.Errors[key] = count
	}
	for key, total := range m.totalDuration {
		snapshot.DurationMS[key] = total.Milliseconds()
	}
	return snapshot
}

func pathKey(path, method string, status int) string {
	return path + "|" + method + "|" + strconv.Itoa(status)
}

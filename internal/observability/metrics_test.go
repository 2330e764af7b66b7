package observability

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetricsSnapshotCopiesCounters(t *testing.T) {
	metrics := NewMetrics()
	metrics.RecordRequest("/tickets/:id", "GET", 200, 30*time.Millisecond)
	metrics.RecordRequest("/tickets/:id", "GET", 200, 20*time.Millisecond)
	metrics.RecordRequest("/teams", "POST", 201, 5*time.Millisecond)
	metrics.RecordError("/tickets/:id", "PATCH", "FORBIDDEN")

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot.Requests["/tickets/:id|GET|200"])
	assert.Equal(t, int64(1), snapshot.Requests["/teams|POST|201"])
	assert.Equal(t, int64(50), snapshot.DurationMS["/tickets/:id|GET|200"])
	assert.Equal(t, int64(1), snapshot.Errors["/tickets/:id|PATCH|FORBIDDEN"])

	// Mutating the snapshot must not touch the live counters.
	snapshot.Requests["/teams|POST|201"] = 99
	assert.Equal(t, int64(1), metrics.Snapshot().Requests["/teams|POST|201"])
}

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var metrics *Metrics
	metrics.RecordRequest("/health/live", "GET", 200, time.Millisecond)
	metrics.RecordError("/health/live", "GET", "INTERNAL_ERROR")
	assert.Empty(t, metrics.Snapshot().Requests)
}

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_ObserveIndex(t *testing.T) {
	m := New()

	m.ObserveIndex("file", 3, 100*time.Millisecond, nil)
	m.ObserveIndex("file", 2, 50*time.Millisecond, nil)
	m.ObserveIndex("url", 0, time.Second, errors.New("boom"))

	assert.InDelta(t, 2, testutil.ToFloat64(m.DocumentsIndexed.WithLabelValues("file")), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.ChunksIndexed), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IndexFailures.WithLabelValues("url")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.IndexDuration))
}

func TestMetrics_ObserveIngestFailure(t *testing.T) {
	m := New()

	m.ObserveIngestFailure("youtube", "extract")
	m.ObserveIngestFailure("youtube", "extract")
	m.ObserveIngestFailure("url", "index")

	assert.InDelta(t, 2, testutil.ToFloat64(m.IngestFailures.WithLabelValues("youtube", "extract")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.IngestFailures.WithLabelValues("url", "index")), 0)
}

func TestMetrics_ObserveQuery(t *testing.T) {
	m := New()

	m.ObserveQuery(4, 10*time.Millisecond, nil)
	m.ObserveQuery(0, time.Millisecond, errors.New("embedding"))

	assert.InDelta(t, 1, testutil.ToFloat64(m.Queries.WithLabelValues("ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Queries.WithLabelValues("error")), 0)
}

func TestMetrics_QueueDepth(t *testing.T) {
	m := New()

	m.SetQueueDepth(7)
	assert.InDelta(t, 7, testutil.ToFloat64(m.QueueDepth), 0)

	m.SetQueueDepth(0)
	assert.InDelta(t, 0, testutil.ToFloat64(m.QueueDepth), 0)
}

func TestMetrics_InstancesAreIndependent(t *testing.T) {
	a, b := New(), New()

	a.SetQueueDepth(3)

	assert.InDelta(t, 0, testutil.ToFloat64(b.QueueDepth), 0)
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveIndex("file", 1, time.Millisecond, nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `notebook_documents_indexed_total{source_type="file"} 1`)
	assert.Contains(t, string(body), "notebook_worker_queue_depth")
	assert.Contains(t, string(body), "go_goroutines")
}

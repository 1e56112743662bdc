package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSyncRun("ok", 150*time.Millisecond)
	c.RecordSyncRun("ok", time.Second)
	c.RecordSyncRun("error", time.Second)
	c.RecordRemapped(2)
	c.RecordReplay(ReplaySynced)
	c.RecordReplay(ReplayDropped)
	c.RecordReplay(ReplayDropped)
	c.SetQueueDepth(4)
	c.SetQueueDepth(3)
	c.RecordGeocodeLookup(GeocodeHit)
	c.RecordResolverFailure("nominatim")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.syncRuns.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.syncRuns.WithLabelValues("error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.remapped))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.replays.WithLabelValues(ReplaySynced)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.replays.WithLabelValues(ReplayDropped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.queueDepth))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.geocodeLookups.WithLabelValues(GeocodeHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.resolverFailures.WithLabelValues("nominatim")))
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.SetQueueDepth(7)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := rec.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "hoaxbuster_queue_depth 7")
}

func TestNop(t *testing.T) {
	var r Recorder = Nop{}
	r.RecordSyncRun("ok", time.Second)
	r.SetQueueDepth(1)
}

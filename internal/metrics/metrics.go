// Package metrics exposes Prometheus metrics for the sync core.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Sync run outcomes.
const (
	SyncOK     = "ok"
	SyncFailed = "failed"
)

// Replay outcomes.
const (
	ReplaySynced  = "synced"
	ReplayFailed  = "failed"
	ReplayDropped = "dropped"
)

// Geocode lookup results.
const (
	GeocodeHit      = "hit"
	GeocodeMiss     = "miss"
	GeocodeOffline  = "offline"
	GeocodeFallback = "fallback"
)

// Recorder is what the sync components report to.
type Recorder interface {
	RecordSyncRun(outcome string, d time.Duration)
	RecordRemapped(n int)
	RecordReplay(outcome string)
	SetQueueDepth(n int)
	RecordGeocodeLookup(result string)
	RecordResolverFailure(resolver string)
}

// Collector is the Prometheus implementation of Recorder.
type Collector struct {
	syncRuns         *prometheus.CounterVec
	syncDuration     prometheus.Histogram
	remapped         prometheus.Counter
	replays          *prometheus.CounterVec
	queueDepth       prometheus.Gauge
	geocodeLookups   *prometheus.CounterVec
	resolverFailures *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoaxbuster_sync_runs_total",
			Help: "Sync runs by outcome.",
		}, []string{"outcome"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "hoaxbuster_sync_duration_seconds",
			Help:    "Duration of sync runs.",
			Buckets: prometheus.DefBuckets,
		}),
		remapped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "hoaxbuster_reconcile_remapped_total",
			Help: "Optimistic stories replaced by their server-confirmed version.",
		}),
		replays: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoaxbuster_queue_replays_total",
			Help: "Queued mutation replay attempts by outcome.",
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hoaxbuster_queue_depth",
			Help: "Mutations waiting for replay.",
		}),
		geocodeLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoaxbuster_geocode_lookups_total",
			Help: "Geocode lookups by result.",
		}, []string{"result"}),
		resolverFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hoaxbuster_geocode_resolver_failures_total",
			Help: "Reverse geocoding failures by resolver.",
		}, []string{"resolver"}),
	}

	reg.MustRegister(
		c.syncRuns,
		c.syncDuration,
		c.remapped,
		c.replays,
		c.queueDepth,
		c.geocodeLookups,
		c.resolverFailures,
	)

	return c
}

func (c *Collector) RecordSyncRun(outcome string, d time.Duration) {
	c.syncRuns.WithLabelValues(outcome).Inc()
	c.syncDuration.Observe(d.Seconds())
}

func (c *Collector) RecordRemapped(n int) {
	c.remapped.Add(float64(n))
}

func (c *Collector) RecordReplay(outcome string) {
	c.replays.WithLabelValues(outcome).Inc()
}

func (c *Collector) SetQueueDepth(n int) {
	c.queueDepth.Set(float64(n))
}

func (c *Collector) RecordGeocodeLookup(result string) {
	c.geocodeLookups.WithLabelValues(result).Inc()
}

func (c *Collector) RecordResolverFailure(resolver string) {
	c.resolverFailures.WithLabelValues(resolver).Inc()
}

// Nop discards all metrics.
type Nop struct{}

func (Nop) RecordSyncRun(string, time.Duration) {}
func (Nop) RecordRemapped(int)                  {}
func (Nop) RecordReplay(string)                 {}
func (Nop) SetQueueDepth(int)                   {}
func (Nop) RecordGeocodeLookup(string)          {}
func (Nop) RecordResolverFailure(string)        {}

// Handler serves the registry in the Prometheus exposition format.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

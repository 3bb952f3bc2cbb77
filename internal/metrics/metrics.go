package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "linkbot"

// Redirect outcomes.
const (
	RedirectFound    = "found"
	RedirectNotFound = "not_found"
	RedirectError    = "error"
)

// Click tracking outcomes.
const (
	ClickRecorded  = "recorded"
	ClickPublished = "published"
	ClickFailed    = "failed"
	ClickDropped   = "dropped"
)

// Geolocation lookup results.
const (
	GeoHit     = "hit"
	GeoMiss    = "miss"
	GeoError   = "error"
	GeoLocal   = "local"
	GeoSkipped = "skipped"
)

// Metrics holds the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	redirects  *prometheus.CounterVec
	clicks     *prometheus.CounterVec
	geoLookups *prometheus.CounterVec
	geoLatency prometheus.Histogram
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		redirects: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "redirects_total",
			Help:      "Redirect requests by outcome.",
		}, []string{"outcome"}),
		clicks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clicks_tracked_total",
			Help:      "Click tracking attempts by outcome.",
		}, []string{"outcome"}),
		geoLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "geo_lookups_total",
			Help:      "Geolocation resolutions by result.",
		}, []string{"result"}),
		geoLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "geo_lookup_duration_seconds",
			Help:      "Latency of external geolocation lookups.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) Redirect(outcome string) {
	if m == nil {
		return
	}

	m.redirects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Click(outcome string) {
	if m == nil {
		return
	}

	m.clicks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) GeoLookup(result string) {
	if m == nil {
		return
	}

	m.geoLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) GeoLatency(d time.Duration) {
	if m == nil {
		return
	}

	m.geoLatency.Observe(d.Seconds())
}

// Handler exposes the gathered metrics in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

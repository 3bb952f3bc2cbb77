package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/serroba/linkbot/internal/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("counts outcomes by label", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		m.Redirect(metrics.RedirectFound)
		m.Redirect(metrics.RedirectFound)
		m.Redirect(metrics.RedirectNotFound)

		expected := `
# HELP linkbot_redirects_total Redirect requests by outcome.
# TYPE linkbot_redirects_total counter
linkbot_redirects_total{outcome="found"} 2
linkbot_redirects_total{outcome="not_found"} 1
`
		require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "linkbot_redirects_total"))
	})

	t.Run("records click and geo outcomes", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)

		m.Click(metrics.ClickPublished)
		m.GeoLookup(metrics.GeoMiss)
		m.GeoLatency(150 * time.Millisecond)

		count, err := testutil.GatherAndCount(reg,
			"linkbot_clicks_tracked_total", "linkbot_geo_lookups_total", "linkbot_geo_lookup_duration_seconds")
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})

	t.Run("nil metrics are a no-op", func(t *testing.T) {
		var m *metrics.Metrics

		assert.NotPanics(t, func() {
			m.Redirect(metrics.RedirectError)
			m.Click(metrics.ClickFailed)
			m.GeoLookup(metrics.GeoError)
			m.GeoLatency(time.Second)
		})
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics.New(reg).Redirect(metrics.RedirectFound)

	rec := httptest.NewRecorder()
	metrics.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	body, _ := io.ReadAll(rec.Body)
	assert.Contains(t, string(body), `linkbot_redirects_total{outcome="found"} 1`)
}

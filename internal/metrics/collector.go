// Package metrics exposes refresh outcomes and headline KPIs as Prometheus
// metrics on a private registry.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trialscope/trialscope/pkg/dashboard"
)

// Namespace prefixes every metric name.
const Namespace = "trialscope"

// Collector records refresh activity. It satisfies the refresh observer
// interface.
type Collector struct {
	registry *prometheus.Registry

	refreshTotal    *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	lastRefresh     prometheus.Gauge

	kpi       *prometheus.GaugeVec
	readiness prometheus.Gauge
	insights  *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		refreshTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "refresh_total",
				Help:      "Dashboard refresh attempts by outcome.",
			},
			[]string{"outcome"},
		),
		refreshDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "refresh_duration_seconds",
				Help:      "Time spent fetching the snapshot and building the model.",
				Buckets:   []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"outcome"},
		),
		lastRefresh: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "last_refresh_timestamp_seconds",
			Help:      "Unix time of the last successful refresh.",
		}),
		kpi: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "kpi",
				Help:      "Current value of each headline KPI.",
			},
			[]string{"series"},
		),
		readiness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "readiness_level",
			Help:      "Database lock readiness: 2 ready, 1 at risk, 0 not ready.",
		}),
		insights: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "insights",
				Help:      "Insights in the current model by priority.",
			},
			[]string{"priority"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "http_requests_total",
				Help:      "API requests by route and status code.",
			},
			[]string{"route", "code"},
		),
	}

	c.registry.MustRegister(
		c.refreshTotal,
		c.refreshDuration,
		c.lastRefresh,
		c.kpi,
		c.readiness,
		c.insights,
		c.httpRequests,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// ObserveRefresh records one refresh attempt. Gauges are only updated from
// models built on live data; baseline fixture values are never exported.
func (c *Collector) ObserveRefresh(outcome string, elapsed time.Duration, model *dashboard.Model) {
	c.refreshTotal.WithLabelValues(outcome).Inc()
	c.refreshDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	if model == nil || outcome == dashboard.SourceBaseline {
		return
	}

	c.lastRefresh.SetToCurrentTime()
	k := model.ExecutiveKPIs
	c.kpi.WithLabelValues(dashboard.SeriesDQI).Set(k.DQI.Current)
	c.kpi.WithLabelValues(dashboard.SeriesQueryResolution).Set(k.QueryResolution.Current)
	c.kpi.WithLabelValues(dashboard.SeriesCleanPatients).Set(k.CleanPatients.Current)
	c.kpi.WithLabelValues(dashboard.SeriesOpenSAEs).Set(k.OpenSAEs.Current)
	c.kpi.WithLabelValues(dashboard.SeriesSitesAtRisk).Set(k.SitesAtRisk.Current)
	c.kpi.WithLabelValues(dashboard.SeriesOpenQueries).Set(float64(model.Bottlenecks.Queries.Outstanding))
	c.readiness.Set(float64(k.ReadinessStatus.Current.Level()))

	c.insights.Reset()
	for _, in := range model.AIInsights {
		c.insights.WithLabelValues(string(in.Priority)).Inc()
	}
}

// ObserveRequest counts one API response.
func (c *Collector) ObserveRequest(route, code string) {
	c.httpRequests.WithLabelValues(route, code).Inc()
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

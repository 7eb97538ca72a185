// Package metrics exports search statistics to Prometheus.
package metrics

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/pdrpinto/astar"
)

// Result label values.
const (
	ResultFound    = "found"
	ResultNoPath   = "no_path"
	ResultCanceled = "canceled"
	ResultError    = "error"
)

// Collector owns the search metrics. Each graph kind gets its own Observer,
// distinguished by the source label.
type Collector struct {
	// searches counts finished searches.
	// Labels: source, result (found, no_path, canceled, error)
	searches *prometheus.CounterVec

	// expansions counts nodes taken out of the open set.
	// Labels: source
	expansions *prometheus.CounterVec

	// expanded is the distribution of expanded nodes per search.
	// Labels: source
	expanded *prometheus.HistogramVec

	// reprioritized counts decrease-key operations.
	// Labels: source
	reprioritized *prometheus.CounterVec

	// duration measures wall time per search.
	// Labels: source, result
	duration *prometheus.HistogramVec
}

// NewCollector registers the search metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		searches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astar",
			Subsystem: "search",
			Name:      "total",
			Help:      "Finished searches by result",
		}, []string{"source", "result"}),
		expansions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astar",
			Subsystem: "search",
			Name:      "expansions_total",
			Help:      "Nodes expanded across all searches",
		}, []string{"source"}),
		expanded: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "astar",
			Subsystem: "search",
			Name:      "expanded_nodes",
			Help:      "Nodes expanded per search",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"source"}),
		reprioritized: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "astar",
			Subsystem: "search",
			Name:      "reprioritized_total",
			Help:      "Open set entries whose priority was lowered",
		}, []string{"source"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "astar",
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search wall time in seconds",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"source", "result"}),
	}
}

// Observer returns an astar.Observer recording under the given source label.
func (c *Collector) Observer(source string) astar.Observer {
	return &observer{
		collector:  c,
		source:     source,
		expansions: c.expansions.WithLabelValues(source),
	}
}

type observer struct {
	collector  *Collector
	source     string
	expansions prometheus.Counter
}

func (o *observer) OnExpand(context.Context) {
	o.expansions.Inc()
}

func (o *observer) OnSearchComplete(_ context.Context, stats astar.Stats, err error) {
	result := resultLabel(stats, err)
	o.collector.searches.WithLabelValues(o.source, result).Inc()
	o.collector.expanded.WithLabelValues(o.source).Observe(float64(stats.Expanded))
	o.collector.reprioritized.WithLabelValues(o.source).Add(float64(stats.Reprioritized))
	o.collector.duration.WithLabelValues(o.source, result).Observe(stats.Elapsed.Seconds())
}

func resultLabel(stats astar.Stats, err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ResultCanceled
	case err != nil:
		return ResultError
	case stats.Found:
		return ResultFound
	default:
		return ResultNoPath
	}
}

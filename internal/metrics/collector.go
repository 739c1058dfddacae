// Package metrics counts rendered views, edge segments and shapes on a
// private Prometheus registry.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "multiview"

// Collector holds the renderer's metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	viewsRendered *prometheus.CounterVec
	viewDuration  *prometheus.HistogramVec
	edgeSegments  *prometheus.CounterVec
	shapes        *prometheus.CounterVec
}

// NewCollector registers all metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		viewsRendered: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "views_rendered_total",
				Help:      "Number of views rendered, by render mode",
			},
			[]string{"mode"},
		),
		viewDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "view_render_seconds",
				Help:      "Wall time to rasterize, overlay and encode one view",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"mode"},
		),
		edgeSegments: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "edge_segments_total",
				Help:      "Edge segments considered by the overlay, by outcome",
			},
			[]string{"result"},
		),
		shapes: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "shapes_total",
				Help:      "Shapes processed, by status",
			},
			[]string{"status"},
		),
	}
}

// Registry exposes the underlying registry, e.g. for an HTTP handler.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveView records one finished view.
func (c *Collector) ObserveView(mode string, d time.Duration) {
	if c == nil {
		return
	}
	c.viewsRendered.WithLabelValues(mode).Inc()
	c.viewDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// AddSegments records overlay outcomes for one view.
func (c *Collector) AddSegments(drawn, degenerate, offscreen int) {
	if c == nil {
		return
	}
	c.edgeSegments.WithLabelValues("drawn").Add(float64(drawn))
	c.edgeSegments.WithLabelValues("degenerate").Add(float64(degenerate))
	c.edgeSegments.WithLabelValues("offscreen").Add(float64(offscreen))
}

// ShapeDone records a processed shape with status "ok" or "failed".
func (c *Collector) ShapeDone(status string) {
	if c == nil {
		return
	}
	c.shapes.WithLabelValues(status).Inc()
}

// WriteTextfile writes all metrics in the node-exporter textfile format.
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("metrics: write %s: %w", path, err)
	}
	return nil
}

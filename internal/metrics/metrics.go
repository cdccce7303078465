// Package metrics exposes processing counters for the /metrics endpoint.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MrJamesThe3rd/liquidaciones/internal/settlement"
)

const namespace = "liquidaciones"

type Collector struct {
	documents   *prometheus.CounterVec
	diagnostics *prometheus.CounterVec
	entries     prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Collector {
	f := promauto.With(reg)

	return &Collector{
		documents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "documents_total",
			Help:      "Parsed settlement reports by format and identity validity.",
		}, []string{"format", "valid"}),
		diagnostics: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "diagnostics_total",
			Help:      "Lines recovered from during extraction, by kind.",
		}, []string{"format", "kind"}),
		entries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "session_entries",
			Help:      "Documents currently held in the session.",
		}),
	}
}

func (c *Collector) ObserveDocument(doc settlement.Document) {
	format := string(doc.Format)

	c.documents.WithLabelValues(format, strconv.FormatBool(doc.Identified())).Inc()

	for _, d := range doc.Diagnostics {
		c.diagnostics.WithLabelValues(format, string(d.Kind)).Inc()
	}
}

func (c *Collector) SetSessionEntries(n int) {
	c.entries.Set(float64(n))
}

// Package metrics exposes storage counters through the Prometheus client.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	pagesRead      prometheus.Counter
	pagesWritten   prometheus.Counter
	splits         prometheus.Counter
	rootPromotions prometheus.Counter
	allocated      prometheus.Counter
	released       prometheus.Counter
	maxPage        prometheus.Gauge
}

// New registers every collector on a fresh registry
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		pagesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treestore_pages_read_total",
			Help: "Pages read from the backing file.",
		}),
		pagesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treestore_pages_written_total",
			Help: "Pages written to the backing file, including freelist rewrites.",
		}),
		splits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treestore_node_splits_total",
			Help: "Overpopulated nodes split into a sibling.",
		}),
		rootPromotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treestore_root_promotions_total",
			Help: "Times the tree grew a level.",
		}),
		allocated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treestore_pages_allocated_total",
			Help: "Page numbers handed out by the freelist.",
		}),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "treestore_pages_released_total",
			Help: "Page numbers returned to the freelist.",
		}),
		maxPage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treestore_freelist_max_page",
			Help: "Highest page number ever allocated.",
		}),
	}

	reg.MustRegister(
		m.pagesRead,
		m.pagesWritten,
		m.splits,
		m.rootPromotions,
		m.allocated,
		m.released,
		m.maxPage,
	)

	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) PageRead() {
	if m != nil {
		m.pagesRead.Inc()
	}
}

func (m *Metrics) PageWritten() {
	if m != nil {
		m.pagesWritten.Inc()
	}
}

func (m *Metrics) Split() {
	if m != nil {
		m.splits.Inc()
	}
}

func (m *Metrics) RootPromoted() {
	if m != nil {
		m.rootPromotions.Inc()
	}
}

func (m *Metrics) PageAllocated(maxPage uint64) {
	if m != nil {
		m.allocated.Inc()
		m.maxPage.Set(float64(maxPage))
	}
}

func (m *Metrics) PageReleased() {
	if m != nil {
		m.released.Inc()
	}
}

// SetMaxPage is used after loading an existing freelist
func (m *Metrics) SetMaxPage(maxPage uint64) {
	if m != nil {
		m.maxPage.Set(float64(maxPage))
	}
}

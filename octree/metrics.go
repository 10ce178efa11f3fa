package octree

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	indexLabel   = "index"
	kindLabel    = "kind"
	errTypeLabel = "error_type"

	kindBounds = "bounds"
	kindPoint  = "point"
)

var (
	octreeElements = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "octree_elements",
		Help: "The number of elements stored in an octree.",
	}, []string{
		indexLabel,
		kindLabel,
	})

	octreeGrows = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_grows",
		Help: "The number of times an octree root was replaced by a larger one.",
	}, []string{
		indexLabel,
		kindLabel,
	})

	octreeShrinks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_shrinks",
		Help: "The number of times an octree root was reduced to one of its octants.",
	}, []string{
		indexLabel,
		kindLabel,
	})

	octreeSplits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_splits",
		Help: "The number of nodes split into 8 children.",
	}, []string{
		indexLabel,
		kindLabel,
	})

	octreeMerges = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_merges",
		Help: "The number of nodes that merged their 8 children back.",
	}, []string{
		indexLabel,
		kindLabel,
	})

	octreeAddErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "octree_add_errors",
		Help: "The errors that occured while adding an element to an octree.",
	}, []string{
		indexLabel,
		kindLabel,
		errTypeLabel,
	})
)

// indexMetrics holds the series of one tree. A nil *indexMetrics records
// nothing, which is what standalone nodes use.
type indexMetrics struct {
	index string
	kind  string

	elements prometheus.Gauge
	grows    prometheus.Counter
	shrinks  prometheus.Counter
	splits   prometheus.Counter
	merges   prometheus.Counter
}

func newIndexMetrics(index, kind string) *indexMetrics {
	labels := prometheus.Labels{
		indexLabel: index,
		kindLabel:  kind,
	}

	return &indexMetrics{
		index:    index,
		kind:     kind,
		elements: octreeElements.With(labels),
		grows:    octreeGrows.With(labels),
		shrinks:  octreeShrinks.With(labels),
		splits:   octreeSplits.With(labels),
		merges:   octreeMerges.With(labels),
	}
}

func (m *indexMetrics) instrumentElements(count int) {
	if m == nil {
		return
	}
	m.elements.Set(float64(count))
}

// instrumentGrows counts the root doublings kept by a successful add.
func (m *indexMetrics) instrumentGrows(n int) {
	if m == nil || n == 0 {
		return
	}
	m.grows.Add(float64(n))
}

func (m *indexMetrics) instrumentShrink() {
	if m == nil {
		return
	}
	m.shrinks.Inc()
}

func (m *indexMetrics) instrumentSplit() {
	if m == nil {
		return
	}
	m.splits.Inc()
}

func (m *indexMetrics) instrumentMerge() {
	if m == nil {
		return
	}
	m.merges.Inc()
}

func (m *indexMetrics) instrumentAddError(err error) {
	if m == nil {
		return
	}

	octreeAddErrors.
		With(prometheus.Labels{
			indexLabel:   m.index,
			kindLabel:    m.kind,
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}

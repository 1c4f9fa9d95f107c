package obslog

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics registers the run's counters/histograms against a private
// registry (no HTTP server: the pipeline is batch, not a serving
// process) and dumps them as text at the end of the run.
type Metrics struct {
	reg *prometheus.Registry

	RoutesLoaded     prometheus.Counter
	DatacheckByCode  *prometheus.CounterVec
	SegmentsBuilt    prometheus.Counter
	GraphWriteSecs   prometheus.Histogram
}

// NewMetrics builds and registers a fresh metric set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		reg: reg,
		RoutesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siteupdate_routes_loaded_total",
			Help: "Chopped routes listed in the systems' route CSVs.",
		}),
		DatacheckByCode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "siteupdate_datacheck_entries_total",
			Help: "Datacheck entries raised, by code.",
		}, []string{"code"}),
		SegmentsBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "siteupdate_segments_total",
			Help: "Segments built across every route.",
		}),
		GraphWriteSecs: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "siteupdate_graph_write_seconds",
			Help:    "Wall time spent building the graph and writing every subgraph's TMG files.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(m.RoutesLoaded, m.DatacheckByCode, m.SegmentsBuilt, m.GraphWriteSecs)
	return m
}

// WriteTo dumps every registered metric in text exposition format to
// path as given; the command passes its log-file-path plus ".metrics"
// so the run log gets a sibling metrics dump at the end of a run.
func (m *Metrics) WriteTo(path string) error {
	families, err := m.reg.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return fmt.Errorf("encode metric family %s: %w", fam.GetName(), err)
		}
	}
	return nil
}

package mapbuffer

import "github.com/prometheus/client_golang/prometheus"

const (
	loadResultLoaded = "loaded"
	loadResultMiss   = "miss"
	loadResultError  = "error"

	saveOutcomeWritten  = "written"
	saveOutcomeSkipped  = "skipped"
	saveOutcomeDisabled = "disabled"
	saveOutcomeFailed   = "failed"

	anomalyDuplicate    = "duplicate"
	anomalyMissingEntry = "missing_entry"
	anomalyNilChunk     = "nil_chunk"
	anomalyStructural   = "structural"
)

// Metrics holds the collectors a Buffer updates.
type Metrics struct {
	QuadLoads    *prometheus.CounterVec
	ChunksLoaded prometheus.Counter
	QuadSaves    *prometheus.CounterVec
	Evictions    prometheus.Counter
	Anomalies    *prometheus.CounterVec
	Resident     prometheus.Gauge
}

// NewMetrics creates the buffer collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		QuadLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapstore",
			Subsystem: "mapbuffer",
			Name:      "quad_loads_total",
			Help:      "Quad load attempts by result.",
		}, []string{"result"}),
		ChunksLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapstore",
			Subsystem: "mapbuffer",
			Name:      "chunks_loaded_total",
			Help:      "Chunks made resident from quad files.",
		}),
		QuadSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapstore",
			Subsystem: "mapbuffer",
			Name:      "quad_saves_total",
			Help:      "Quads processed by save, by outcome.",
		}, []string{"outcome"}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "mapstore",
			Subsystem: "mapbuffer",
			Name:      "evictions_total",
			Help:      "Chunks removed from memory after a save.",
		}),
		Anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mapstore",
			Subsystem: "mapbuffer",
			Name:      "anomalies_total",
			Help:      "Logged anomalies by kind.",
		}, []string{"kind"}),
		Resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "mapstore",
			Subsystem: "mapbuffer",
			Name:      "resident_chunks",
			Help:      "Chunks currently held in memory.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.QuadLoads, m.ChunksLoaded, m.QuadSaves, m.Evictions, m.Anomalies, m.Resident)
	}
	return m
}

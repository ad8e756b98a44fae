package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts upload stage transitions and committed documents.
// A nil *Metrics records nothing.
type Metrics struct {
	stages    *prometheus.CounterVec
	committed prometheus.Counter
}

// NewMetrics creates the upload counters and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		stages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "commit_stage_total",
				Help: "Upload commit stage transitions by outcome.",
			},
			[]string{"stage", "outcome"},
		),
		committed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "documents_committed_total",
			Help: "Documents durably committed.",
		}),
	}
	for _, c := range []prometheus.Collector{m.stages, m.committed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) stage(s State, outcome string) {
	if m == nil {
		return
	}
	m.stages.WithLabelValues(string(s), outcome).Inc()
}

func (m *Metrics) commit() {
	if m == nil {
		return
	}
	m.committed.Inc()
}

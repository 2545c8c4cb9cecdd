package verify

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts evaluated cases, mismatches and verdicts.
// A nil *Metrics records nothing.
type Metrics struct {
	cases      *prometheus.CounterVec
	mismatches *prometheus.CounterVec
	runs       *prometheus.CounterVec
}

// NewMetrics registers the verifier counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cases: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ksa",
			Subsystem: "verify",
			Name:      "cases_total",
			Help:      "Adder evaluations checked, by phase.",
		}, []string{"phase"}),
		mismatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ksa",
			Subsystem: "verify",
			Name:      "mismatches_total",
			Help:      "Contract violations, by output field.",
		}, []string{"field"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ksa",
			Subsystem: "verify",
			Name:      "runs_total",
			Help:      "Completed verification runs, by verdict.",
		}, []string{"verdict"}),
	}
	reg.MustRegister(m.cases, m.mismatches, m.runs)
	return m
}

func (m *Metrics) observeCase(phase Phase) {
	if m == nil {
		return
	}
	m.cases.WithLabelValues(string(phase)).Inc()
}

func (m *Metrics) observeMismatch(field Field) {
	if m == nil {
		return
	}
	m.mismatches.WithLabelValues(string(field)).Inc()
}

func (m *Metrics) observeVerdict(passed bool) {
	if m == nil {
		return
	}
	verdict := "fail"
	if passed {
		verdict = "pass"
	}
	m.runs.WithLabelValues(verdict).Inc()
}

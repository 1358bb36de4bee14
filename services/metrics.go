package services

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts workflow outcomes. A nil *Metrics records nothing.
type Metrics struct {
	actions   *prometheus.CounterVec
	conflicts *prometheus.CounterVec
	uploads   *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relief",
			Name:      "claim_actions_total",
			Help:      "Workflow actions by role, action and outcome.",
		}, []string{"role", "action", "outcome"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relief",
			Name:      "cas_conflicts_total",
			Help:      "Compare-and-set collisions seen before retrying.",
		}, []string{"operation"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "relief",
			Name:      "document_uploads_total",
			Help:      "Document uploads by category and outcome.",
		}, []string{"category", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.actions, m.conflicts, m.uploads)
	}
	return m
}

func (m *Metrics) action(role, action, outcome string) {
	if m != nil {
		m.actions.WithLabelValues(role, action, outcome).Inc()
	}
}

func (m *Metrics) conflict(operation string) {
	if m != nil {
		m.conflicts.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) upload(category, outcome string) {
	if m != nil {
		m.uploads.WithLabelValues(category, outcome).Inc()
	}
}

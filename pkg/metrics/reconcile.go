package metrics

import "github.com/prometheus/client_golang/prometheus"

// ReconcileMetrics tracks reconciliation engine outcomes.
type ReconcileMetrics struct {
	checked  *prometheus.CounterVec
	drift    *prometheus.CounterVec
	orphaned *prometheus.CounterVec
}

// NewReconcileMetrics registers reconciliation counters on the registerer.
func NewReconcileMetrics(reg prometheus.Registerer) *ReconcileMetrics {
	if reg == nil {
		return &ReconcileMetrics{}
	}
	checked := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_checked_total",
		Help: "Records inspected by the reconciliation engine.",
	}, []string{"entity"})
	drift := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_drift_total",
		Help: "Records whose stored financial fields disagreed with the recomputed values.",
	}, []string{"entity"})
	orphaned := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "reconcile_orphaned_total",
		Help: "Records skipped because they reference a missing plan or advertiser.",
	}, []string{"entity"})
	reg.MustRegister(checked, drift, orphaned)
	return &ReconcileMetrics{checked: checked, drift: drift, orphaned: orphaned}
}

// IncChecked counts an inspected record.
func (m *ReconcileMetrics) IncChecked(entity string) {
	if m == nil || m.checked == nil {
		return
	}
	m.checked.WithLabelValues(entity).Inc()
}

// IncDrift counts a corrected record.
func (m *ReconcileMetrics) IncDrift(entity string) {
	if m == nil || m.drift == nil {
		return
	}
	m.drift.WithLabelValues(entity).Inc()
}

// IncOrphaned counts a flag-and-skip record.
func (m *ReconcileMetrics) IncOrphaned(entity string) {
	if m == nil || m.orphaned == nil {
		return
	}
	m.orphaned.WithLabelValues(entity).Inc()
}

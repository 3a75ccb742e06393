package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1}

// Metrics holds the ledger's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	TotalStaked       prometheus.Gauge
	SlashedTotal      prometheus.Counter
	FeesTotal         prometheus.Counter
	ClaimsResolved    *prometheus.CounterVec
	ProofsApplied     *prometheus.CounterVec
	TierTransitions   *prometheus.CounterVec
}

// New registers all ledger metrics with reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bondline_ledger_operations_total",
			Help: "Ledger operations by name and outcome",
		}, []string{"operation", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bondline_ledger_operation_duration_seconds",
			Help:    "Duration of ledger operations including lock wait",
			Buckets: durationBuckets,
		}, []string{"operation"}),
		TotalStaked: f.NewGauge(prometheus.GaugeOpts{
			Name: "bondline_total_staked",
			Help: "Collateral currently held across all stake records",
		}),
		SlashedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "bondline_slashed_total",
			Help: "Collateral slashed by approved claims",
		}),
		FeesTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "bondline_fees_total",
			Help: "Protocol fees routed to the fee sink",
		}),
		ClaimsResolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bondline_claims_resolved_total",
			Help: "Claims resolved by outcome",
		}, []string{"status"}),
		ProofsApplied: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bondline_proofs_applied_total",
			Help: "Proofs applied by proof type",
		}, []string{"proof_type"}),
		TierTransitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "bondline_tier_transitions_total",
			Help: "Reputation tier promotions by destination tier",
		}, []string{"tier"}),
	}
}

// ObserveOperation records the outcome and duration of a ledger operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.Operations.WithLabelValues(op, outcome(err)).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// SetTotalStaked mirrors the aggregate staked balance.
func (m *Metrics) SetTotalStaked(total uint64) {
	if m == nil {
		return
	}
	m.TotalStaked.Set(float64(total))
}

// RecordSlash records a slash and the fee taken from it.
func (m *Metrics) RecordSlash(slashed, fee uint64) {
	if m == nil {
		return
	}
	m.SlashedTotal.Add(float64(slashed))
	m.FeesTotal.Add(float64(fee))
}

// IncrementClaimResolved records a terminal claim transition.
func (m *Metrics) IncrementClaimResolved(status string) {
	if m == nil {
		return
	}
	m.ClaimsResolved.WithLabelValues(status).Inc()
}

// IncrementProofApplied records a successful proof application.
func (m *Metrics) IncrementProofApplied(proofType string) {
	if m == nil {
		return
	}
	m.ProofsApplied.WithLabelValues(proofType).Inc()
}

// IncrementTierTransition records a tier promotion.
func (m *Metrics) IncrementTierTransition(tier string) {
	if m == nil {
		return
	}
	m.TierTransitions.WithLabelValues(tier).Inc()
}

type kinded interface{ ErrorKind() string }

func outcome(err error) string {
	if err == nil {
		return "ok"
	}
	var k kinded
	if errors.As(err, &k) {
		return k.ErrorKind()
	}
	return "error"
}

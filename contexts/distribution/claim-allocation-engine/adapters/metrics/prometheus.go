package metrics

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
	"codedrop/contexts/distribution/claim-allocation-engine/ports"
)

const defaultNamespace = "claim_engine"

// PrometheusObserver exports engine measurements to Prometheus.
type PrometheusObserver struct {
	claims       *prometheus.CounterVec
	claimLatency *prometheus.HistogramVec
	decisions    *prometheus.CounterVec
	incidents    *prometheus.CounterVec
	released     *prometheus.CounterVec
}

var _ ports.Observer = (*PrometheusObserver)(nil)

// NewPrometheusObserver registers the engine collectors on reg. Collectors that
// are already registered (a second module in the same process) are reused.
func NewPrometheusObserver(namespace string, reg prometheus.Registerer) (*PrometheusObserver, error) {
	if namespace == "" {
		namespace = defaultNamespace
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	claims, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "claim_attempts_total",
		Help:      "Claim attempts by distribution mode and outcome.",
	}, []string{"mode", "outcome"})
	if err != nil {
		return nil, err
	}
	decisions, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "application_decisions_total",
		Help:      "Application review decisions by decision and outcome.",
	}, []string{"decision", "outcome"})
	if err != nil {
		return nil, err
	}
	incidents, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "consistency_incidents_total",
		Help:      "Broken storage invariants detected while allocating claims.",
	}, []string{"kind"})
	if err != nil {
		return nil, err
	}
	released, err := registerCounterVec(reg, prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reservations_released_total",
		Help:      "Quota reservations released by rollback or TTL sweep.",
	}, []string{"reason"})
	if err != nil {
		return nil, err
	}

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "claim_duration_seconds",
		Help:      "TryClaim latency by distribution mode.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"mode"})
	if err := reg.Register(latency); err != nil {
		var are prometheus.AlreadyRegisteredError
		if !errors.As(err, &are) {
			return nil, fmt.Errorf("register claim engine metric: %w", err)
		}
		existing, ok := are.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, fmt.Errorf("register claim engine metric: %w", err)
		}
		latency = existing
	}

	return &PrometheusObserver{
		claims:       claims,
		claimLatency: latency,
		decisions:    decisions,
		incidents:    incidents,
		released:     released,
	}, nil
}

func (o *PrometheusObserver) ObserveClaim(mode entities.DistributionMode, outcome string, elapsed time.Duration) {
	if o == nil {
		return
	}
	o.claims.WithLabelValues(string(mode), outcome).Inc()
	o.claimLatency.WithLabelValues(string(mode)).Observe(elapsed.Seconds())
}

func (o *PrometheusObserver) ObserveDecision(decision entities.ReviewDecision, outcome string) {
	if o == nil {
		return
	}
	o.decisions.WithLabelValues(string(decision), outcome).Inc()
}

func (o *PrometheusObserver) ObserveIncident(kind string) {
	if o == nil {
		return
	}
	o.incidents.WithLabelValues(kind).Inc()
}

func (o *PrometheusObserver) ObserveReleasedReservations(reason string, count int) {
	if o == nil || count <= 0 {
		return
	}
	o.released.WithLabelValues(reason).Add(float64(count))
}

func registerCounterVec(reg prometheus.Registerer, opts prometheus.CounterOpts, labels []string) (*prometheus.CounterVec, error) {
	counter := prometheus.NewCounterVec(opts, labels)
	if err := reg.Register(counter); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, fmt.Errorf("register claim engine metric %s: %w", opts.Name, err)
	}
	return counter, nil
}

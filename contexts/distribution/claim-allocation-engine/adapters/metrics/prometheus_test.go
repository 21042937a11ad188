package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"codedrop/contexts/distribution/claim-allocation-engine/domain/entities"
)

func TestPrometheusObserverCountsByLabel(t *testing.T) {
	reg := prometheus.NewRegistry()
	observer, err := NewPrometheusObserver("", reg)
	require.NoError(t, err)

	observer.ObserveClaim(entities.ModeSingle, "claimed", 12*time.Millisecond)
	observer.ObserveClaim(entities.ModeSingle, "claimed", 8*time.Millisecond)
	observer.ObserveClaim(entities.ModeMulti, "exhausted", time.Millisecond)
	observer.ObserveDecision(entities.DecisionApprove, "decided")
	observer.ObserveIncident("no_codes_available")
	observer.ObserveReleasedReservations("expired", 3)
	observer.ObserveReleasedReservations("rollback", 0)

	require.Equal(t, 2.0, testutil.ToFloat64(observer.claims.WithLabelValues("SINGLE", "claimed")))
	require.Equal(t, 1.0, testutil.ToFloat64(observer.claims.WithLabelValues("MULTI", "exhausted")))
	require.Equal(t, 1.0, testutil.ToFloat64(observer.decisions.WithLabelValues("APPROVE", "decided")))
	require.Equal(t, 1.0, testutil.ToFloat64(observer.incidents.WithLabelValues("no_codes_available")))
	require.Equal(t, 3.0, testutil.ToFloat64(observer.released.WithLabelValues("expired")))
	require.Equal(t, 1, testutil.CollectAndCount(observer.released, "claim_engine_reservations_released_total"))
	require.Equal(t, 2, testutil.CollectAndCount(observer.claimLatency))
}

func TestPrometheusObserverReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPrometheusObserver("engine_test", reg)
	require.NoError(t, err)
	second, err := NewPrometheusObserver("engine_test", reg)
	require.NoError(t, err)

	first.ObserveIncident("shared_code_missing")
	second.ObserveIncident("shared_code_missing")

	require.Equal(t, 2.0, testutil.ToFloat64(second.incidents.WithLabelValues("shared_code_missing")))
}

func TestNilObserverIsSafe(t *testing.T) {
	var observer *PrometheusObserver
	observer.ObserveClaim(entities.ModeManual, "pending", time.Millisecond)
	observer.ObserveDecision(entities.DecisionReject, "decided")
	observer.ObserveIncident("repository_invariant")
	observer.ObserveReleasedReservations("expired", 1)
}

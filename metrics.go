package mitraillette

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "mitraillette"

var (
	memoLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "memo_lookups_total",
		Help:      "Solver memo lookups, by table and result.",
	}, []string{"table", "result"})

	dbLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "db_lookups_total",
		Help:      "Lookups of converged solutions in the database, by result.",
	}, []string{"result"})

	convergenceBounds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "convergence_bound",
		Help:      "Reroll bound at which bound-deepening converged.",
		Buckets:   prometheus.LinearBuckets(0, 5, 20),
	})

	convergedSolutions = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "converged_solutions_total",
		Help:      "Expected values solved to convergence.",
	})

	boundLimitReached = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "bound_limit_reached_total",
		Help:      "Bound-deepening runs stopped by the maximum bound before converging.",
	})
)

// Pre-bound counters for one memo table, to keep label lookups off the hot path.
type memoCounters struct {
	hits   prometheus.Counter
	misses prometheus.Counter
}

func newMemoCounters(table string) memoCounters {
	return memoCounters{
		hits:   memoLookups.WithLabelValues(table, "hit"),
		misses: memoLookups.WithLabelValues(table, "miss"),
	}
}

package soak

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	checkLabel   = "check"
	errTypeLabel = "error_type"
	stageLabel   = "stage"
)

var (
	soakRounds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soak_rounds",
		Help: "The number of soak rounds run.",
	})

	soakMismatches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "soak_mismatches",
		Help: "The checks that failed during soak rounds.",
	}, []string{
		checkLabel,
		errTypeLabel,
	})

	soakRoundLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "soak_round_latency",
		Help:    "The time to run a soak round stage.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	}, []string{
		stageLabel,
	})

	soakOscillations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "soak_oscillations",
		Help: "The number of split then merge transitions caused by the oscillation probe.",
	})
)

func instrumentRound() {
	soakRounds.Inc()
}

func instrumentMismatch(check string, err error) {
	soakMismatches.
		With(prometheus.Labels{
			checkLabel:   check,
			errTypeLabel: errors.Type(err),
		}).
		Inc()
}

func instrumentStage(stage string, start time.Time) {
	soakRoundLatency.
		With(prometheus.Labels{
			stageLabel: stage,
		}).
		Observe(time.Since(start).Seconds())
}

func instrumentOscillations(n int) {
	soakOscillations.Add(float64(n))
}

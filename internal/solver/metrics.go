package solver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// solvesTotal counts finished sessions.
	// Labels: "solved", "failed", "error".
	solvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chameleon_solves_total",
		Help: "Solver sessions by outcome",
	}, []string{"outcome"})

	solveAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "chameleon_solve_attempts",
		Help:    "Attempts used per solved session",
		Buckets: prometheus.LinearBuckets(1, 1, 12),
	})

	// guessesTotal counts submitted guesses by phase.
	guessesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chameleon_guesses_total",
		Help: "Guesses submitted by solver phase",
	}, []string{"phase"})
)

// Copyright 2018 Denis Bernard <db047h@gmail.com>
// Licensed under the MIT license. See license text in the LICENSE file.

package evsim

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// burstDuration measures the wall time of propagation bursts.
	burstDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "evsim",
		Subsystem: "propagator",
		Name:      "burst_duration_seconds",
		Help:      "Wall time of propagation bursts",
		Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 12),
	})

	stepsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "evsim",
		Subsystem: "propagator",
		Name:      "steps_total",
		Help:      "Total propagation steps",
	})

	// eventsTotal counts applied and superseded events.
	// Labels: outcome (applied, superseded, stale)
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "evsim",
		Subsystem: "propagator",
		Name:      "events_total",
		Help:      "Total events popped from the queue by outcome",
	}, []string{"outcome"})

	oscillationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "evsim",
		Subsystem: "propagator",
		Name:      "oscillations_total",
		Help:      "Total propagation bursts aborted for oscillation",
	})

	componentPanicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "evsim",
		Subsystem: "propagator",
		Name:      "component_panics_total",
		Help:      "Total recovered component failures",
	})

	ticksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "evsim",
		Subsystem: "simulator",
		Name:      "ticks_total",
		Help:      "Total clock ticks",
	})

	droppedResultsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "evsim",
		Subsystem: "simulator",
		Name:      "dropped_results_total",
		Help:      "Total step results dropped because a subscriber was full",
	})

	widthErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "evsim",
		Subsystem: "circuit",
		Name:      "width_errors_total",
		Help:      "Total width incompatibilities found by the width checker",
	})
)

func recordBurst(start time.Time, steps int) {
	burstDuration.Observe(time.Since(start).Seconds())
	stepsTotal.Add(float64(steps))
}

var (
	eventsApplied    = eventsTotal.WithLabelValues("applied")
	eventsSuperseded = eventsTotal.WithLabelValues("superseded")
	eventsStale      = eventsTotal.WithLabelValues("stale")
)

func recordOscillation() { oscillationsTotal.Inc() }

func recordComponentPanic() { componentPanicsTotal.Inc() }

func recordTick() { ticksTotal.Inc() }

func recordDroppedResult() { droppedResultsTotal.Inc() }

func recordWidthErrors(n int) {
	if n > 0 {
		widthErrorsTotal.Add(float64(n))
	}
}

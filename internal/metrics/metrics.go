// Package metrics exposes Prometheus instrumentation for the trading
// pipeline. Counters and gauges are package-level promauto registrations so
// every component can record without wiring.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ObservationsProcessed counts observations consumed from the feed.
var ObservationsProcessed = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stratigo",
		Subsystem: "pipeline",
		Name:      "observations_processed_total",
		Help:      "Total number of observations consumed from the feed",
	},
	[]string{"symbol"},
)

// ObservationsDropped counts observations dropped for ordering violations.
var ObservationsDropped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stratigo",
		Subsystem: "pipeline",
		Name:      "observations_dropped_total",
		Help:      "Total number of observations dropped (out of order or invalid)",
	},
	[]string{"symbol", "reason"},
)

// SignalsGenerated counts signals by strategy and direction.
var SignalsGenerated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stratigo",
		Subsystem: "pipeline",
		Name:      "signals_generated_total",
		Help:      "Total number of strategy signals generated",
	},
	[]string{"strategy", "direction"},
)

// FillsExecuted counts simulated fills.
var FillsExecuted = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stratigo",
		Subsystem: "pipeline",
		Name:      "fills_executed_total",
		Help:      "Total number of simulated fills",
	},
	[]string{"symbol", "side"},
)

// RiskVetoes counts decisions rejected by the risk manager, by reason code.
var RiskVetoes = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stratigo",
		Subsystem: "risk",
		Name:      "vetoes_total",
		Help:      "Total number of decisions rejected by risk limits",
	},
	[]string{"symbol", "reason"},
)

// RiskScalings counts decisions scaled down by the risk manager, by reason
// code.
var RiskScalings = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stratigo",
		Subsystem: "risk",
		Name:      "scalings_total",
		Help:      "Total number of decisions scaled down by risk limits",
	},
	[]string{"symbol", "reason"},
)

// PipelineErrors counts non-fatal pipeline errors by stage.
var PipelineErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "stratigo",
		Subsystem: "pipeline",
		Name:      "errors_total",
		Help:      "Total number of non-fatal pipeline errors",
	},
	[]string{"stage"},
)

// Equity is the current account equity.
var Equity = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "stratigo",
		Subsystem: "ledger",
		Name:      "equity",
		Help:      "Current account equity in quote currency",
	},
)

// GrossExposure is the aggregate absolute market value of open positions.
var GrossExposure = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "stratigo",
		Subsystem: "ledger",
		Name:      "gross_exposure",
		Help:      "Aggregate absolute market value of open positions",
	},
)

// RecordObservation records one consumed observation.
func RecordObservation(symbol string) {
	ObservationsProcessed.WithLabelValues(symbol).Inc()
}

// RecordDroppedObservation records one dropped observation.
func RecordDroppedObservation(symbol, reason string) {
	ObservationsDropped.WithLabelValues(symbol, reason).Inc()
}

// RecordSignal records one generated signal.
func RecordSignal(strategy, direction string) {
	SignalsGenerated.WithLabelValues(strategy, direction).Inc()
}

// RecordFill records one simulated fill.
func RecordFill(symbol, side string) {
	FillsExecuted.WithLabelValues(symbol, side).Inc()
}

// RecordVeto records one risk rejection.
func RecordVeto(symbol, reason string) {
	RiskVetoes.WithLabelValues(symbol, reason).Inc()
}

// RecordScaled records one risk-limited quantity reduction.
func RecordScaled(symbol, reason string) {
	RiskScalings.WithLabelValues(symbol, reason).Inc()
}

// RecordError records one non-fatal pipeline error.
func RecordError(stage string) {
	PipelineErrors.WithLabelValues(stage).Inc()
}

// UpdateAccount refreshes the equity and exposure gauges.
func UpdateAccount(equity, grossExposure float64) {
	Equity.Set(equity)
	GrossExposure.Set(grossExposure)
}

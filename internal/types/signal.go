package types

import "time"

type SignalDirection string

const (
	// SignalDirectionBuy recommends increasing the position.
	SignalDirectionBuy SignalDirection = "BUY"
	// SignalDirectionSell recommends decreasing the position.
	SignalDirectionSell SignalDirection = "SELL"
	// SignalDirectionHold recommends no action.
	SignalDirectionHold SignalDirection = "HOLD"
)

// Signal is a single strategy's directional recommendation for an instrument
// at a point in time. Signals are ephemeral: they are consumed by the
// aggregator and never persisted.
type Signal struct {
	// Symbol is the instrument the signal applies to.
	Symbol string
	// StrategyName is the name of the strategy that produced the signal.
	StrategyName string
	// Direction is the recommended action.
	Direction SignalDirection
	// Confidence is the strategy's conviction in [0, 1].
	Confidence float64
	// Time is the observation time the signal was derived from.
	Time time.Time
	// Reason is a short human-readable explanation.
	Reason string
}

// HoldSignal returns a HOLD signal for the given strategy and observation.
// Strategy faults are downgraded to this so one broken strategy never blocks
// the rest of the pipeline.
func HoldSignal(strategyName string, obs Observation, reason string) Signal {
	return Signal{
		Symbol:       obs.Symbol,
		StrategyName: strategyName,
		Direction:    SignalDirectionHold,
		Confidence:   0,
		Time:         obs.Time,
		Reason:       reason,
	}
}

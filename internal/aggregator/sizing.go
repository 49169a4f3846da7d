package aggregator

import (
	"math"

	"github.com/stratigo-lab/stratigo/internal/types"
)

// SizingPolicy converts a directional intent into an order quantity. A zero
// return means the decision should be skipped.
type SizingPolicy interface {
	Quantity(direction types.SignalDirection, price float64, instrument types.Instrument, account types.AccountInfo) float64
}

// EquityFractionSizing commits a fixed fraction of current equity per
// decision, quantized down to the instrument's step size. Quantities below
// the instrument's minimum quantity or minimum notional are zeroed.
type EquityFractionSizing struct {
	fraction float64
}

func NewEquityFractionSizing(fraction float64) *EquityFractionSizing {
	return &EquityFractionSizing{fraction: fraction}
}

func (s *EquityFractionSizing) Quantity(_ types.SignalDirection, price float64, instrument types.Instrument, account types.AccountInfo) float64 {
	if price <= 0 {
		return 0
	}

	quantity := account.Equity * s.fraction / price
	quantity = quantizeDown(quantity, instrument.StepSize)

	if quantity < instrument.MinQuantity {
		return 0
	}

	if quantity*price < instrument.MinNotional {
		return 0
	}

	return quantity
}

// FixedSizing always returns the same quantity, quantized to the step size.
// Used in tests and simple setups.
type FixedSizing struct {
	Size float64
}

func (s *FixedSizing) Quantity(_ types.SignalDirection, _ float64, instrument types.Instrument, _ types.AccountInfo) float64 {
	return quantizeDown(s.Size, instrument.StepSize)
}

// quantizeDown floors q to a multiple of step. A zero step leaves q as is.
func quantizeDown(q, step float64) float64 {
	if step <= 0 {
		return q
	}

	steps := math.Floor(q/step + 1e-9)
	return steps * step
}

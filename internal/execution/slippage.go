package execution

import "github.com/stratigo-lab/stratigo/internal/types"

// SlippageModel adjusts the observed price by a linear impact term: order
// quantity relative to the bar's volume, scaled by the impact coefficient and
// capped at the maximum fractional slippage. Buys pay up, sells receive less.
type SlippageModel struct {
	impact float64
	max    float64
}

func NewSlippageModel(impact, max float64) *SlippageModel {
	return &SlippageModel{impact: impact, max: max}
}

// Adjust returns the execution price for a fill of the given quantity against
// the observed bar.
func (m *SlippageModel) Adjust(side types.SignalDirection, quantity float64, obs types.Observation) float64 {
	price := obs.Price()
	if m.impact <= 0 || m.max <= 0 {
		return price
	}

	slip := m.max
	if obs.Volume > 0 {
		slip = m.impact * quantity / obs.Volume
		if slip > m.max {
			slip = m.max
		}
	}

	if side == types.SignalDirectionSell {
		return price * (1 - slip)
	}

	return price * (1 + slip)
}

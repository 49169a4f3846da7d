package strategy

import (
	"fmt"

	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

const NameEMACross = "emacross"

const emaCrossConfidence = 0.6

type emaCrossState struct {
	emaShort  *ema
	emaLong   *ema
	prevDelta float64
	count     int
}

// EMACross signals on crossings of a short EMA over a long EMA. It is the
// simplest of the variants and fires on every crossing regardless of
// momentum, so it carries the lowest confidence.
type EMACross struct {
	shortPeriod int
	longPeriod  int

	states map[string]*emaCrossState
}

func NewEMACross(params map[string]float64) *EMACross {
	return &EMACross{
		shortPeriod: periodParam(params, "short_period", 9),
		longPeriod:  periodParam(params, "long_period", 21),
		states:      make(map[string]*emaCrossState),
	}
}

func (s *EMACross) Name() string {
	return NameEMACross
}

func (s *EMACross) WarmupPeriod() int {
	return s.longPeriod + 1
}

func (s *EMACross) Evaluate(obs types.Observation) (types.Signal, error) {
	st, ok := s.states[obs.Symbol]
	if !ok {
		st = &emaCrossState{
			emaShort: newEMA(s.shortPeriod),
			emaLong:  newEMA(s.longPeriod),
		}
		s.states[obs.Symbol] = st
	}

	st.count++
	price := obs.Price()
	delta := st.emaShort.Update(price) - st.emaLong.Update(price)
	prevDelta := st.prevDelta
	st.prevDelta = delta

	if st.count < s.WarmupPeriod() {
		return types.Signal{}, errors.NewInsufficientDataErrorf(
			s.WarmupPeriod(), st.count, obs.Symbol,
			"emacross warm-up: %d/%d observations", st.count, s.WarmupPeriod())
	}

	switch {
	case prevDelta <= 0 && delta > 0:
		return types.Signal{
			Symbol:       obs.Symbol,
			StrategyName: s.Name(),
			Direction:    types.SignalDirectionBuy,
			Confidence:   emaCrossConfidence,
			Time:         obs.Time,
			Reason:       fmt.Sprintf("ema %d crossed above ema %d", s.shortPeriod, s.longPeriod),
		}, nil
	case prevDelta >= 0 && delta < 0:
		return types.Signal{
			Symbol:       obs.Symbol,
			StrategyName: s.Name(),
			Direction:    types.SignalDirectionSell,
			Confidence:   emaCrossConfidence,
			Time:         obs.Time,
			Reason:       fmt.Sprintf("ema %d crossed below ema %d", s.shortPeriod, s.longPeriod),
		}, nil
	}

	return types.HoldSignal(s.Name(), obs, "no crossing"), nil
}

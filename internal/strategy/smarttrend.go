package strategy

import (
	"fmt"

	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

const NameSmartTrend = "smarttrend"

const smartTrendConfidence = 0.9

// smartTrendState is the per-instrument rolling state for SmartTrend.
type smartTrendState struct {
	emaShort *ema
	emaLong  *ema
	rsi      *rsi
	prevRSI  float64
	count    int
}

// SmartTrend combines trend alignment with momentum confirmation. It buys
// when the short EMA sits above the long EMA and RSI crosses up through the
// midline, and sells on the mirror condition. Overbought and oversold RSI
// levels veto entries, and bars below the minimum volume are ignored.
type SmartTrend struct {
	emaShortPeriod int
	emaLongPeriod  int
	rsiPeriod      int
	rsiOverbought  float64
	rsiOversold    float64
	minVolume      float64

	states map[string]*smartTrendState
}

func NewSmartTrend(params map[string]float64) *SmartTrend {
	return &SmartTrend{
		emaShortPeriod: periodParam(params, "ema_short", 12),
		emaLongPeriod:  periodParam(params, "ema_long", 26),
		rsiPeriod:      periodParam(params, "rsi_period", 14),
		rsiOverbought:  param(params, "rsi_overbought", 70),
		rsiOversold:    param(params, "rsi_oversold", 30),
		minVolume:      param(params, "min_volume", 0),
		states:         make(map[string]*smartTrendState),
	}
}

func (s *SmartTrend) Name() string {
	return NameSmartTrend
}

func (s *SmartTrend) WarmupPeriod() int {
	warmup := s.emaLongPeriod
	if s.rsiPeriod+1 > warmup {
		warmup = s.rsiPeriod + 1
	}
	return warmup
}

func (s *SmartTrend) Evaluate(obs types.Observation) (types.Signal, error) {
	st, ok := s.states[obs.Symbol]
	if !ok {
		st = &smartTrendState{
			emaShort: newEMA(s.emaShortPeriod),
			emaLong:  newEMA(s.emaLongPeriod),
			rsi:      newRSI(s.rsiPeriod),
			prevRSI:  50,
		}
		s.states[obs.Symbol] = st
	}

	st.count++
	price := obs.Price()
	short := st.emaShort.Update(price)
	long := st.emaLong.Update(price)
	rsiNow := st.rsi.Update(price)
	prevRSI := st.prevRSI
	st.prevRSI = rsiNow

	if st.count < s.WarmupPeriod() {
		return types.Signal{}, errors.NewInsufficientDataErrorf(
			s.WarmupPeriod(), st.count, obs.Symbol,
			"smarttrend warm-up: %d/%d observations", st.count, s.WarmupPeriod())
	}

	if s.minVolume > 0 && obs.Volume < s.minVolume {
		return types.HoldSignal(s.Name(), obs, "volume below minimum"), nil
	}

	uptrend := short > long
	downtrend := short < long
	crossedUp := prevRSI < 50 && rsiNow >= 50
	crossedDown := prevRSI > 50 && rsiNow <= 50

	switch {
	case uptrend && crossedUp && rsiNow < s.rsiOverbought:
		return types.Signal{
			Symbol:       obs.Symbol,
			StrategyName: s.Name(),
			Direction:    types.SignalDirectionBuy,
			Confidence:   smartTrendConfidence,
			Time:         obs.Time,
			Reason:       fmt.Sprintf("uptrend with rsi cross up (%.1f)", rsiNow),
		}, nil
	case downtrend && crossedDown && rsiNow > s.rsiOversold:
		return types.Signal{
			Symbol:       obs.Symbol,
			StrategyName: s.Name(),
			Direction:    types.SignalDirectionSell,
			Confidence:   smartTrendConfidence,
			Time:         obs.Time,
			Reason:       fmt.Sprintf("downtrend with rsi cross down (%.1f)", rsiNow),
		}, nil
	}

	return types.HoldSignal(s.Name(), obs, "no aligned trend and momentum"), nil
}

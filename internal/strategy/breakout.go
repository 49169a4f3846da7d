package strategy

import (
	"fmt"

	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

const NameBreakout = "breakout"

const breakoutConfidence = 0.75

type breakoutState struct {
	highs   *window
	lows    *window
	volumes *window
	count   int
}

// Breakout signals when price closes outside the rolling high/low channel of
// the lookback period, confirmed by volume above its rolling average.
type Breakout struct {
	lookback   int
	volumeMult float64

	states map[string]*breakoutState
}

func NewBreakout(params map[string]float64) *Breakout {
	return &Breakout{
		lookback:   periodParam(params, "lookback", 20),
		volumeMult: param(params, "volume_mult", 1.5),
		states:     make(map[string]*breakoutState),
	}
}

func (s *Breakout) Name() string {
	return NameBreakout
}

func (s *Breakout) WarmupPeriod() int {
	return s.lookback + 1
}

func (s *Breakout) Evaluate(obs types.Observation) (types.Signal, error) {
	st, ok := s.states[obs.Symbol]
	if !ok {
		st = &breakoutState{
			// One extra slot so the channel can exclude the current bar.
			highs:   newWindow(s.lookback + 1),
			lows:    newWindow(s.lookback + 1),
			volumes: newWindow(s.lookback),
		}
		s.states[obs.Symbol] = st
	}

	st.count++
	st.highs.Push(obs.High)
	st.lows.Push(obs.Low)

	avgVolume := st.volumes.Mean()
	st.volumes.Push(obs.Volume)

	if st.count < s.WarmupPeriod() {
		return types.Signal{}, errors.NewInsufficientDataErrorf(
			s.WarmupPeriod(), st.count, obs.Symbol,
			"breakout warm-up: %d/%d observations", st.count, s.WarmupPeriod())
	}

	channelHigh := st.highs.Max(1)
	channelLow := st.lows.Min(1)
	volumeConfirmed := obs.Volume >= avgVolume*s.volumeMult

	switch {
	case obs.Close > channelHigh && volumeConfirmed:
		return types.Signal{
			Symbol:       obs.Symbol,
			StrategyName: s.Name(),
			Direction:    types.SignalDirectionBuy,
			Confidence:   breakoutConfidence,
			Time:         obs.Time,
			Reason:       fmt.Sprintf("close %.4f above %d-bar high %.4f", obs.Close, s.lookback, channelHigh),
		}, nil
	case obs.Close < channelLow && volumeConfirmed:
		return types.Signal{
			Symbol:       obs.Symbol,
			StrategyName: s.Name(),
			Direction:    types.SignalDirectionSell,
			Confidence:   breakoutConfidence,
			Time:         obs.Time,
			Reason:       fmt.Sprintf("close %.4f below %d-bar low %.4f", obs.Close, s.lookback, channelLow),
		}, nil
	}

	return types.HoldSignal(s.Name(), obs, "inside channel or volume unconfirmed"), nil
}

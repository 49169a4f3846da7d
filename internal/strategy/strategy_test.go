package strategy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

type StrategyTestSuite struct {
	suite.Suite
	start time.Time
}

func TestStrategyTestSuite(t *testing.T) {
	suite.Run(t, new(StrategyTestSuite))
}

func (suite *StrategyTestSuite) SetupTest() {
	suite.start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
}

// obs builds a flat bar at the given close price.
func (suite *StrategyTestSuite) obs(i int, close, volume float64) types.Observation {
	return types.Observation{
		Symbol: "BTC-USD",
		Time:   suite.start.Add(time.Duration(i) * time.Minute),
		Open:   close,
		High:   close,
		Low:    close,
		Close:  close,
		Volume: volume,
	}
}

func (suite *StrategyTestSuite) TestFactoryKnownNames() {
	for _, name := range []string{NameSmartTrend, NameEMACross, NameBreakout} {
		s, err := New(config.StrategyConfig{Name: name, Enabled: true, Weight: 1})
		suite.Require().NoError(err)
		suite.Equal(name, s.Name())
	}
}

func (suite *StrategyTestSuite) TestFactoryUnknownName() {
	_, err := New(config.StrategyConfig{Name: "meanreversion", Enabled: true})
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeUnknownStrategy))
}

func (suite *StrategyTestSuite) TestNewEnabledSkipsDisabled() {
	strategies, err := NewEnabled([]config.StrategyConfig{
		{Name: NameSmartTrend, Enabled: true, Weight: 1},
		{Name: NameEMACross, Enabled: false, Weight: 1},
		{Name: NameBreakout, Enabled: true, Weight: 1},
	})
	suite.Require().NoError(err)
	suite.Require().Len(strategies, 2)
	suite.Equal(NameSmartTrend, strategies[0].Name())
	suite.Equal(NameBreakout, strategies[1].Name())
}

func (suite *StrategyTestSuite) TestEMACrossWarmup() {
	s := NewEMACross(map[string]float64{"short_period": 2, "long_period": 3})

	for i := 0; i < s.WarmupPeriod()-1; i++ {
		_, err := s.Evaluate(suite.obs(i, 10, 100))
		suite.Require().Error(err)
		suite.True(errors.IsInsufficientDataError(err))
	}

	signal, err := s.Evaluate(suite.obs(3, 10, 100))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionHold, signal.Direction)
}

func (suite *StrategyTestSuite) TestEMACrossBuyThenSell() {
	s := NewEMACross(map[string]float64{"short_period": 2, "long_period": 3})

	prices := []float64{10, 10, 10, 10}
	for i, p := range prices {
		if i < s.WarmupPeriod()-1 {
			_, err := s.Evaluate(suite.obs(i, p, 100))
			suite.Require().Error(err)
		} else {
			signal, err := s.Evaluate(suite.obs(i, p, 100))
			suite.Require().NoError(err)
			suite.Equal(types.SignalDirectionHold, signal.Direction)
		}
	}

	signal, err := s.Evaluate(suite.obs(4, 20, 100))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionBuy, signal.Direction)
	suite.Equal(emaCrossConfidence, signal.Confidence)
	suite.Equal(NameEMACross, signal.StrategyName)

	signal, err = s.Evaluate(suite.obs(5, 5, 100))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionSell, signal.Direction)
}

func (suite *StrategyTestSuite) TestEMACrossIndependentSymbols() {
	s := NewEMACross(map[string]float64{"short_period": 2, "long_period": 3})

	for i := 0; i < 4; i++ {
		s.Evaluate(suite.obs(i, 10, 100))
	}

	other := suite.obs(0, 10, 100)
	other.Symbol = "ETH-USD"
	_, err := s.Evaluate(other)
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *StrategyTestSuite) TestSmartTrendBuyOnAlignedCross() {
	s := NewSmartTrend(map[string]float64{
		"ema_short":      2,
		"ema_long":       3,
		"rsi_period":     2,
		"rsi_overbought": 80,
		"rsi_oversold":   20,
	})

	_, err := s.Evaluate(suite.obs(0, 10, 100))
	suite.Require().Error(err)
	_, err = s.Evaluate(suite.obs(1, 9, 100))
	suite.Require().Error(err)

	signal, err := s.Evaluate(suite.obs(2, 12, 100))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionBuy, signal.Direction)
	suite.Equal(smartTrendConfidence, signal.Confidence)
}

func (suite *StrategyTestSuite) TestSmartTrendOverboughtVeto() {
	s := NewSmartTrend(map[string]float64{
		"ema_short":      2,
		"ema_long":       3,
		"rsi_period":     2,
		"rsi_overbought": 70,
		"rsi_oversold":   30,
	})

	s.Evaluate(suite.obs(0, 10, 100))
	s.Evaluate(suite.obs(1, 9, 100))

	signal, err := s.Evaluate(suite.obs(2, 12, 100))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionHold, signal.Direction)
}

func (suite *StrategyTestSuite) TestSmartTrendVolumeGate() {
	s := NewSmartTrend(map[string]float64{
		"ema_short":      2,
		"ema_long":       3,
		"rsi_period":     2,
		"rsi_overbought": 80,
		"min_volume":     50,
	})

	s.Evaluate(suite.obs(0, 10, 100))
	s.Evaluate(suite.obs(1, 9, 100))

	signal, err := s.Evaluate(suite.obs(2, 12, 10))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionHold, signal.Direction)
	suite.Equal("volume below minimum", signal.Reason)
}

func (suite *StrategyTestSuite) TestBreakoutBuyOnChannelBreak() {
	s := NewBreakout(map[string]float64{"lookback": 3, "volume_mult": 1.0})

	for i := 0; i < 3; i++ {
		_, err := s.Evaluate(suite.obs(i, 10, 100))
		suite.Require().Error(err)
		suite.True(errors.IsInsufficientDataError(err))
	}

	signal, err := s.Evaluate(suite.obs(3, 10, 100))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionHold, signal.Direction)

	signal, err = s.Evaluate(suite.obs(4, 15, 300))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionBuy, signal.Direction)
	suite.Equal(breakoutConfidence, signal.Confidence)
}

func (suite *StrategyTestSuite) TestZeroPeriodParamsClampedToOneBar() {
	s := NewBreakout(map[string]float64{"lookback": 0})

	_, err := s.Evaluate(suite.obs(0, 10, 100))
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))

	signal, err := s.Evaluate(suite.obs(1, 10, 100))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionHold, signal.Direction)

	cross := NewEMACross(map[string]float64{"short_period": 0, "long_period": 0})
	suite.Equal(2, cross.WarmupPeriod())

	trend := NewSmartTrend(map[string]float64{"ema_short": -3, "ema_long": 0, "rsi_period": 0})
	_, err = trend.Evaluate(suite.obs(0, 10, 100))
	suite.Require().Error(err)
	suite.True(errors.IsInsufficientDataError(err))
}

func (suite *StrategyTestSuite) TestBreakoutVolumeUnconfirmed() {
	s := NewBreakout(map[string]float64{"lookback": 3, "volume_mult": 2.0})

	for i := 0; i < 4; i++ {
		s.Evaluate(suite.obs(i, 10, 100))
	}

	signal, err := s.Evaluate(suite.obs(4, 15, 150))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionHold, signal.Direction)
}

func (suite *StrategyTestSuite) TestBreakoutSellOnChannelBreak() {
	s := NewBreakout(map[string]float64{"lookback": 3, "volume_mult": 1.0})

	for i := 0; i < 4; i++ {
		s.Evaluate(suite.obs(i, 10, 100))
	}

	signal, err := s.Evaluate(suite.obs(4, 5, 300))
	suite.Require().NoError(err)
	suite.Equal(types.SignalDirectionSell, signal.Direction)
}

type IndicatorTestSuite struct {
	suite.Suite
}

func TestIndicatorTestSuite(t *testing.T) {
	suite.Run(t, new(IndicatorTestSuite))
}

func (suite *IndicatorTestSuite) TestEMASeedsWithMean() {
	e := newEMA(3)
	suite.InDelta(10.0, e.Update(10), 1e-9)
	suite.InDelta(11.0, e.Update(12), 1e-9)
	suite.InDelta(12.0, e.Update(14), 1e-9)
	suite.True(e.Ready())

	// alpha = 0.5 once seeded
	suite.InDelta(14.0, e.Update(16), 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIExtremes() {
	r := newRSI(2)
	r.Update(10)
	r.Update(11)
	v := r.Update(12)
	suite.True(r.Ready())
	suite.InDelta(100.0, v, 1e-9)

	r = newRSI(2)
	r.Update(10)
	r.Update(9)
	v = r.Update(8)
	suite.InDelta(0.0, v, 1e-9)
}

func (suite *IndicatorTestSuite) TestRSIFlatIsMidline() {
	r := newRSI(2)
	r.Update(10)
	r.Update(10)
	suite.InDelta(50.0, r.Update(10), 1e-9)
}

func (suite *IndicatorTestSuite) TestWindowChannel() {
	w := newWindow(4)
	for _, v := range []float64{1, 3, 2, 5} {
		w.Push(v)
	}
	suite.True(w.Full())
	suite.InDelta(3.0, w.Max(1), 1e-9)
	suite.InDelta(1.0, w.Min(1), 1e-9)
	suite.InDelta(2.75, w.Mean(), 1e-9)

	w.Push(7)
	suite.InDelta(5.0, w.Max(1), 1e-9)
	suite.InDelta(2.0, w.Min(1), 1e-9)
}

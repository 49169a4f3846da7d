package risk

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
)

type RiskTestSuite struct {
	suite.Suite
	limits  config.RiskLimitConfig
	manager *Manager
	state   PortfolioState
}

func TestRiskTestSuite(t *testing.T) {
	suite.Run(t, new(RiskTestSuite))
}

func (suite *RiskTestSuite) SetupTest() {
	suite.limits = config.RiskLimitConfig{
		MaxPositionSize: 10,
		MaxExposure:     5000,
		MaxDailyLoss:    500,
		MaxDrawdown:     0.2,
		MaxDailyTrades:  0,
		AllowShort:      false,
	}
	suite.manager = New(suite.limits, logger.NewNopLogger())
	suite.state = PortfolioState{
		Position: types.Position{Symbol: "BTC-USD"},
		Account: types.AccountInfo{
			Cash:           10000,
			Equity:         10000,
			HighWaterMark:  10000,
			DayStartEquity: 10000,
		},
		Instrument: types.Instrument{
			Symbol:      "BTC-USD",
			StepSize:    0.0001,
			MinQuantity: 0.0001,
			MinNotional: 1,
		},
		GrossExposure: 0,
	}
}

func (suite *RiskTestSuite) decision(direction types.SignalDirection, quantity float64) *types.Decision {
	return &types.Decision{
		ID:        uuid.New().String(),
		Symbol:    "BTC-USD",
		Direction: direction,
		Quantity:  quantity,
		Time:      time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (suite *RiskTestSuite) TestApprovedWithinLimits() {
	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 5), 100, suite.state)
	suite.Equal(VerdictApproved, result.Verdict)
	suite.InDelta(5.0, result.Decision.Quantity, 1e-9)
	suite.Empty(result.Reason)
}

func (suite *RiskTestSuite) TestPositionLimitScalesDown() {
	suite.state.Position.Quantity = 8

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 5), 100, suite.state)
	suite.Equal(VerdictScaled, result.Verdict)
	suite.InDelta(2.0, result.Decision.Quantity, 1e-9)
	suite.Equal(ReasonPositionLimit, result.Reason)
}

func (suite *RiskTestSuite) TestPositionLimitRejectsWhenFull() {
	suite.state.Position.Quantity = 10

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 1), 100, suite.state)
	suite.Equal(VerdictRejected, result.Verdict)
	suite.Equal(ReasonPositionLimit, result.Reason)
}

func (suite *RiskTestSuite) TestExposureLimitScalesDown() {
	suite.state.GrossExposure = 4800

	// 5 * 100 = 500 would push exposure to 5300; only 200 notional remains.
	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 5), 100, suite.state)
	suite.Equal(VerdictScaled, result.Verdict)
	suite.InDelta(2.0, result.Decision.Quantity, 1e-9)
	suite.Equal(ReasonExposureLimit, result.Reason)
}

func (suite *RiskTestSuite) TestExposureLimitRejectsWhenExhausted() {
	suite.state.GrossExposure = 5000

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 1), 100, suite.state)
	suite.Equal(VerdictRejected, result.Verdict)
	suite.Equal(ReasonExposureLimit, result.Reason)
}

func (suite *RiskTestSuite) TestDailyLossRejectsNewRisk() {
	suite.state.Account.Equity = 9500
	suite.state.Account.DayStartEquity = 10000

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 1), 100, suite.state)
	suite.Equal(VerdictRejected, result.Verdict)
	suite.Equal(ReasonDailyLoss, result.Reason)
}

func (suite *RiskTestSuite) TestDailyLossAllowsRiskReduction() {
	suite.state.Account.Equity = 9000
	suite.state.Account.DayStartEquity = 10000
	suite.state.Position.Quantity = 5

	result := suite.manager.Review(suite.decision(types.SignalDirectionSell, 3), 100, suite.state)
	suite.Equal(VerdictApproved, result.Verdict)
	suite.InDelta(3.0, result.Decision.Quantity, 1e-9)
}

func (suite *RiskTestSuite) TestDrawdownRejectsNewRisk() {
	suite.state.Account.HighWaterMark = 10000
	suite.state.Account.Equity = 7500
	suite.state.Account.DayStartEquity = 7500 // daily loss gate stays quiet

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 1), 100, suite.state)
	suite.Equal(VerdictRejected, result.Verdict)
	suite.Equal(ReasonDrawdown, result.Reason)
}

func (suite *RiskTestSuite) TestDailyTradeCapRejects() {
	suite.limits.MaxDailyTrades = 3
	suite.manager = New(suite.limits, logger.NewNopLogger())
	suite.state.Account.DayTradeCount = 3

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 1), 100, suite.state)
	suite.Equal(VerdictRejected, result.Verdict)
	suite.Equal(ReasonDailyTradeLimit, result.Reason)
}

func (suite *RiskTestSuite) TestDailyTradeCapAllowsRiskReduction() {
	suite.limits.MaxDailyTrades = 3
	suite.manager = New(suite.limits, logger.NewNopLogger())
	suite.state.Account.DayTradeCount = 3
	suite.state.Position.Quantity = 2

	result := suite.manager.Review(suite.decision(types.SignalDirectionSell, 2), 100, suite.state)
	suite.Equal(VerdictApproved, result.Verdict)
}

func (suite *RiskTestSuite) TestShortSellRejectedWhenFlat() {
	result := suite.manager.Review(suite.decision(types.SignalDirectionSell, 1), 100, suite.state)
	suite.Equal(VerdictRejected, result.Verdict)
	suite.Equal(ReasonShortSellingDisabled, result.Reason)
}

func (suite *RiskTestSuite) TestSellClampedToHoldings() {
	suite.state.Position.Quantity = 2

	result := suite.manager.Review(suite.decision(types.SignalDirectionSell, 5), 100, suite.state)
	suite.Equal(VerdictScaled, result.Verdict)
	suite.InDelta(2.0, result.Decision.Quantity, 1e-9)
	suite.Equal(ReasonShortSellingDisabled, result.Reason)
}

func (suite *RiskTestSuite) TestScaledVerdictCarriesReason() {
	suite.state.Position.Quantity = 8

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 5), 100, suite.state)
	suite.Equal(VerdictScaled, result.Verdict)
	suite.NotEmpty(result.Reason)
	suite.Equal(ReasonPositionLimit, result.Reason)
}

func (suite *RiskTestSuite) TestCheckOrderPositionBeforeExposure() {
	suite.state.Position.Quantity = 10
	suite.state.GrossExposure = 5000

	result := suite.manager.Review(suite.decision(types.SignalDirectionBuy, 1), 100, suite.state)
	suite.Equal(VerdictRejected, result.Verdict)
	suite.Equal(ReasonPositionLimit, result.Reason)
}

func (suite *RiskTestSuite) TestInputDecisionNotMutated() {
	suite.state.Position.Quantity = 2
	decision := suite.decision(types.SignalDirectionSell, 5)

	suite.manager.Review(decision, 100, suite.state)
	suite.InDelta(5.0, decision.Quantity, 1e-9)
}

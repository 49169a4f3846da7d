// Package execution turns approved decisions into simulated fills. Fills
// execute against the triggering observation with linear slippage and the
// configured commission model; there is no order book and no partial fills.
package execution

import (
	"math"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/execution/fee"
	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Simulator produces fills from risk-approved decisions.
type Simulator struct {
	fee      fee.Fee
	slippage *SlippageModel
	logger   *logger.Logger
}

func New(cfg config.ExecutionConfig, l *logger.Logger) *Simulator {
	return &Simulator{
		fee:      fee.NewFee(cfg.FeeModel, cfg.FeeRate),
		slippage: NewSlippageModel(cfg.SlippageImpact, cfg.MaxSlippage),
		logger:   l,
	}
}

// Execute simulates one fill for a decision against the given observation.
// The execution price is the observed price adjusted for slippage, rounded to
// the instrument's tick size.
func (s *Simulator) Execute(decision *types.Decision, obs types.Observation, instrument types.Instrument) (types.Fill, error) {
	if decision.Symbol != obs.Symbol {
		return types.Fill{}, errors.Newf(errors.ErrCodeExecutionFailed,
			"decision symbol %s does not match observation symbol %s", decision.Symbol, obs.Symbol)
	}

	if decision.Quantity <= 0 {
		return types.Fill{}, errors.Newf(errors.ErrCodeZeroFillQuantity,
			"decision %s has non-positive quantity %f", decision.ID, decision.Quantity)
	}

	observed := obs.Price()
	if observed <= 0 {
		return types.Fill{}, errors.Newf(errors.ErrCodeInvalidFillPrice,
			"observation for %s has non-positive price %f", obs.Symbol, observed)
	}

	price := s.slippage.Adjust(decision.Direction, decision.Quantity, obs)
	price = roundToTick(price, instrument.TickSize)
	if price <= 0 {
		return types.Fill{}, errors.Newf(errors.ErrCodeInvalidFillPrice,
			"execution price collapsed to %f for %s", price, obs.Symbol)
	}

	fill := types.Fill{
		ID:            uuid.New().String(),
		DecisionID:    decision.ID,
		Symbol:        decision.Symbol,
		Side:          decision.Direction,
		Quantity:      decision.Quantity,
		Price:         price,
		ObservedPrice: observed,
		Fee:           s.fee.Calculate(decision.Quantity, price),
		Time:          obs.Time,
	}

	if err := fill.Validate(); err != nil {
		return types.Fill{}, err
	}

	s.logger.Debug("executed fill",
		zap.String("fill_id", fill.ID),
		zap.String("symbol", fill.Symbol),
		zap.String("side", string(fill.Side)),
		zap.Float64("quantity", fill.Quantity),
		zap.Float64("price", fill.Price),
		zap.Float64("fee", fill.Fee),
	)

	return fill, nil
}

// roundToTick rounds a price to the nearest tick. A zero tick leaves the
// price untouched.
func roundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}

	return math.Round(price/tick) * tick
}

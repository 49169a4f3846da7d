// Package aggregator folds per-strategy signals into at most one trading
// decision per observation via weighted voting.
package aggregator

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Aggregator computes a weighted vote across signals. BUY counts +1 and SELL
// counts -1, each scaled by the signal's confidence and its strategy's
// configured weight. A decision is emitted only when the absolute net score
// reaches the vote threshold and the sizing policy yields a positive
// quantity.
type Aggregator struct {
	voteThreshold float64
	weights       map[string]float64
	sizer         SizingPolicy
	logger        *logger.Logger
}

// New creates an aggregator from the run configuration using the default
// equity-fraction sizing policy.
func New(cfg *config.Config, l *logger.Logger) *Aggregator {
	return NewWithSizing(cfg, NewEquityFractionSizing(cfg.RiskPerTrade), l)
}

// NewWithSizing creates an aggregator with a custom sizing policy.
func NewWithSizing(cfg *config.Config, sizer SizingPolicy, l *logger.Logger) *Aggregator {
	weights := make(map[string]float64, len(cfg.Strategies))
	for _, sc := range cfg.Strategies {
		if sc.Enabled {
			weights[sc.Name] = sc.Weight
		}
	}

	return &Aggregator{
		voteThreshold: cfg.VoteThreshold,
		weights:       weights,
		sizer:         sizer,
		logger:        l,
	}
}

// Aggregate folds the signals for one observation into at most one decision.
// A nil decision with a nil error means no action. Signals for a different
// symbol than the observation are rejected.
func (a *Aggregator) Aggregate(signals []types.Signal, obs types.Observation, instrument types.Instrument, account types.AccountInfo) (*types.Decision, error) {
	netScore := 0.0

	for _, signal := range signals {
		if signal.Symbol != obs.Symbol {
			return nil, errors.Newf(errors.ErrCodeInvalidDecision,
				"signal symbol %s does not match observation symbol %s", signal.Symbol, obs.Symbol)
		}

		weight, ok := a.weights[signal.StrategyName]
		if !ok {
			continue
		}

		switch signal.Direction {
		case types.SignalDirectionBuy:
			netScore += signal.Confidence * weight
		case types.SignalDirectionSell:
			netScore -= signal.Confidence * weight
		}
	}

	if netScore < a.voteThreshold && netScore > -a.voteThreshold {
		return nil, nil
	}

	direction := types.SignalDirectionBuy
	if netScore < 0 {
		direction = types.SignalDirectionSell
	}

	quantity := a.sizer.Quantity(direction, obs.Price(), instrument, account)
	if quantity <= 0 {
		a.logger.Debug("sizing yielded no tradable quantity",
			zap.String("symbol", obs.Symbol),
			zap.Float64("net_score", netScore),
		)
		return nil, nil
	}

	decision := &types.Decision{
		ID:        uuid.New().String(),
		Symbol:    obs.Symbol,
		Direction: direction,
		Quantity:  quantity,
		NetScore:  netScore,
		Signals:   signals,
		Time:      obs.Time,
	}

	if err := decision.Validate(); err != nil {
		return nil, err
	}

	return decision, nil
}

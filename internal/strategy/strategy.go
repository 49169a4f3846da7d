// Package strategy holds the closed set of strategy variants. Each strategy
// owns private per-instrument rolling state and is side-effect free with
// respect to everything else: given the latest observation it returns exactly
// one signal, possibly HOLD.
package strategy

import (
	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Strategy evaluates observations into signals. Implementations keep their
// rolling windows keyed by instrument and must not share mutable state.
type Strategy interface {
	// Name returns the strategy identifier used in signals and config.
	Name() string
	// Evaluate consumes one observation and returns exactly one signal.
	// During warm-up it returns an InsufficientDataError; the engine
	// downgrades any error to a HOLD signal.
	Evaluate(obs types.Observation) (types.Signal, error)
	// WarmupPeriod returns the number of observations needed per instrument
	// before the strategy can emit a non-HOLD signal.
	WarmupPeriod() int
}

// New creates a strategy variant from its configuration.
func New(cfg config.StrategyConfig) (Strategy, error) {
	switch cfg.Name {
	case NameSmartTrend:
		return NewSmartTrend(cfg.Params), nil
	case NameEMACross:
		return NewEMACross(cfg.Params), nil
	case NameBreakout:
		return NewBreakout(cfg.Params), nil
	default:
		return nil, errors.Newf(errors.ErrCodeUnknownStrategy, "unknown strategy: %s", cfg.Name)
	}
}

// NewEnabled creates all enabled strategies from the run configuration,
// preserving declaration order so aggregation stays deterministic.
func NewEnabled(cfgs []config.StrategyConfig) ([]Strategy, error) {
	strategies := make([]Strategy, 0, len(cfgs))

	for _, cfg := range cfgs {
		if !cfg.Enabled {
			continue
		}

		s, err := New(cfg)
		if err != nil {
			return nil, err
		}

		strategies = append(strategies, s)
	}

	return strategies, nil
}

// param reads a named parameter with a fallback default.
func param(params map[string]float64, key string, def float64) float64 {
	if params == nil {
		return def
	}

	if v, ok := params[key]; ok {
		return v
	}

	return def
}

// periodParam reads a window length, clamped to at least one bar so a
// misconfigured strategy degrades instead of faulting.
func periodParam(params map[string]float64, key string, def int) int {
	p := int(param(params, key, float64(def)))
	if p < 1 {
		return 1
	}

	return p
}

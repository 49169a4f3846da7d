package feed

import (
	"context"
	"iter"
	"math"
	"math/rand"
	"time"

	"github.com/stratigo-lab/stratigo/internal/types"
)

// SimulatedConfig tunes the synthetic random-walk generator.
type SimulatedConfig struct {
	// Seed makes the generated series reproducible. Identical seeds produce
	// identical streams.
	Seed int64
	// StartPrice is the initial price for every symbol.
	StartPrice float64
	// Volatility is the per-bar fractional standard deviation of returns.
	Volatility float64
	// Drift is the per-bar fractional expected return.
	Drift float64
	// BaseVolume centers the per-bar volume.
	BaseVolume float64
	// Bars is the number of bars to generate per symbol. Zero streams until
	// the context is cancelled.
	Bars int
	// Start is the timestamp of the first bar.
	Start time.Time
	// Interval is the bar spacing.
	Interval time.Duration
}

// DefaultSimulatedConfig returns one day of minute bars starting from a fixed
// epoch, so runs without explicit configuration are reproducible.
func DefaultSimulatedConfig() SimulatedConfig {
	return SimulatedConfig{
		Seed:       42,
		StartPrice: 100,
		Volatility: 0.005,
		Drift:      0,
		BaseVolume: 1000,
		Bars:       1440,
		Start:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:   time.Minute,
	}
}

// Simulated generates a deterministic geometric random walk per symbol.
// Symbols advance in lockstep: each bar time yields one observation per
// symbol in the order given to Stream.
type Simulated struct {
	cfg SimulatedConfig
}

func NewSimulated(cfg SimulatedConfig) *Simulated {
	return &Simulated{cfg: cfg}
}

func (s *Simulated) Stream(ctx context.Context, symbols []string, _ string) iter.Seq2[types.Observation, error] {
	return func(yield func(types.Observation, error) bool) {
		rng := rand.New(rand.NewSource(s.cfg.Seed))

		prices := make(map[string]float64, len(symbols))
		for _, symbol := range symbols {
			prices[symbol] = s.cfg.StartPrice
		}

		for bar := 0; s.cfg.Bars == 0 || bar < s.cfg.Bars; bar++ {
			barTime := s.cfg.Start.Add(time.Duration(bar) * s.cfg.Interval)

			for _, symbol := range symbols {
				select {
				case <-ctx.Done():
					return
				default:
				}

				open := prices[symbol]
				ret := s.cfg.Drift + s.cfg.Volatility*rng.NormFloat64()
				close := open * math.Exp(ret)

				high := math.Max(open, close) * (1 + 0.2*s.cfg.Volatility*math.Abs(rng.NormFloat64()))
				low := math.Min(open, close) * (1 - 0.2*s.cfg.Volatility*math.Abs(rng.NormFloat64()))
				volume := s.cfg.BaseVolume * (0.5 + rng.Float64())

				prices[symbol] = close

				obs := types.Observation{
					Symbol: symbol,
					Time:   barTime,
					Open:   open,
					High:   high,
					Low:    low,
					Close:  close,
					Volume: volume,
				}

				if !yield(obs, nil) {
					return
				}
			}
		}
	}
}

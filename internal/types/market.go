package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Instrument describes a tradable symbol and its exchange constraints.
// Instruments are immutable once registered with the engine.
type Instrument struct {
	// Symbol is the instrument identifier, e.g. "BTC-USD".
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
	// TickSize is the minimum price increment.
	TickSize float64 `yaml:"tick_size" json:"tick_size" validate:"gt=0"`
	// StepSize is the minimum quantity increment.
	StepSize float64 `yaml:"step_size" json:"step_size" validate:"gt=0"`
	// MinQuantity is the smallest order quantity accepted.
	MinQuantity float64 `yaml:"min_quantity" json:"min_quantity" validate:"gte=0"`
	// MinNotional is the smallest order value (quantity * price) accepted.
	MinNotional float64 `yaml:"min_notional" json:"min_notional" validate:"gte=0"`
}

// Validate validates the Instrument struct.
func (i *Instrument) Validate() error {
	validate := validator.New()
	if err := validate.Struct(i); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInstrument, "invalid instrument", err)
	}

	return nil
}

// Observation is one timestamped market data point for an instrument.
// Timestamps must be non-decreasing per instrument; the pipeline drops
// violations with an ordering event.
type Observation struct {
	Symbol string    `yaml:"symbol" json:"symbol" validate:"required"`
	Time   time.Time `yaml:"time" json:"time" validate:"required"`
	Open   float64   `yaml:"open" json:"open" validate:"gte=0"`
	High   float64   `yaml:"high" json:"high" validate:"gte=0"`
	Low    float64   `yaml:"low" json:"low" validate:"gte=0"`
	Close  float64   `yaml:"close" json:"close" validate:"gt=0"`
	Volume float64   `yaml:"volume" json:"volume" validate:"gte=0"`
}

// Price returns the reference price of the observation.
func (o Observation) Price() float64 {
	return o.Close
}

// Validate validates the Observation struct.
func (o *Observation) Validate() error {
	validate := validator.New()
	if err := validate.Struct(o); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidObservation, "invalid observation", err)
	}

	return nil
}

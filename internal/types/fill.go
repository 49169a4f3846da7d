package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Fill is a simulated completed trade. Fills are immutable append-only
// records and form the audit trail of the run.
type Fill struct {
	// ID uniquely identifies the fill.
	ID string `yaml:"id" json:"id" validate:"required,uuid"`
	// DecisionID references the decision that produced the fill.
	DecisionID string `yaml:"decision_id" json:"decision_id" validate:"required"`
	// Symbol is the instrument that was traded.
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
	// Side is BUY or SELL.
	Side SignalDirection `yaml:"side" json:"side" validate:"required,oneof=BUY SELL"`
	// Quantity is the executed quantity, always positive.
	Quantity float64 `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// Price is the executed price after slippage.
	Price float64 `yaml:"price" json:"price" validate:"required,gt=0"`
	// ObservedPrice is the market price before slippage.
	ObservedPrice float64 `yaml:"observed_price" json:"observed_price" validate:"required,gt=0"`
	// Fee is the simulated commission in quote currency.
	Fee float64 `yaml:"fee" json:"fee" validate:"gte=0"`
	// Time is the observation time the fill was executed at.
	Time time.Time `yaml:"time" json:"time" validate:"required"`
}

// Notional returns the fill value in quote currency, excluding fees.
func (f Fill) Notional() float64 {
	return f.Quantity * f.Price
}

// SignedQuantity returns the quantity with BUY positive and SELL negative.
func (f Fill) SignedQuantity() float64 {
	if f.Side == SignalDirectionSell {
		return -f.Quantity
	}

	return f.Quantity
}

// Validate validates the Fill struct.
func (f *Fill) Validate() error {
	validate := validator.New()
	if err := validate.Struct(f); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFill, "invalid fill", err)
	}

	return nil
}

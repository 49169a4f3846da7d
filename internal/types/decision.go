package types

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Decision is an aggregated, pre-risk-check trading intent for one
// instrument. It is produced by the signal aggregator and consumed by the
// risk manager, which approves, scales, or rejects it.
type Decision struct {
	// ID uniquely identifies the decision.
	ID string `yaml:"id" json:"id" validate:"required,uuid"`
	// Symbol is the instrument the decision applies to.
	Symbol string `yaml:"symbol" json:"symbol" validate:"required"`
	// Direction is BUY or SELL; HOLD never reaches the risk manager.
	Direction SignalDirection `yaml:"direction" json:"direction" validate:"required,oneof=BUY SELL"`
	// Quantity is the requested quantity, always positive.
	Quantity float64 `yaml:"quantity" json:"quantity" validate:"required,gt=0"`
	// NetScore is the weighted vote that produced the decision.
	NetScore float64 `yaml:"net_score" json:"net_score"`
	// Signals are the originating signals, in strategy evaluation order.
	Signals []Signal `yaml:"signals" json:"signals"`
	// Time is the observation time the decision was derived from.
	Time time.Time `yaml:"time" json:"time" validate:"required"`
}

// Validate validates the Decision struct.
func (d *Decision) Validate() error {
	validate := validator.New()
	if err := validate.Struct(d); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidDecision, "invalid decision", err)
	}

	return nil
}

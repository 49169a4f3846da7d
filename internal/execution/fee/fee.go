package fee

// Fee calculates the commission for a simulated fill.
type Fee interface {
	// Calculate returns the fee in quote currency for a fill of the given
	// quantity at the given price.
	Calculate(quantity float64, price float64) float64
}

type Model string

const (
	// ModelZero charges no commission.
	ModelZero Model = "zero"
	// ModelFlat charges a fixed amount per fill.
	ModelFlat Model = "flat"
	// ModelProportional charges a rate on the fill notional.
	ModelProportional Model = "proportional"
)

var AllModels = []any{
	ModelZero,
	ModelFlat,
	ModelProportional,
}

// NewFee returns the fee handler for a model. Unknown models fall back to
// zero commission.
func NewFee(model Model, rate float64) Fee {
	switch model {
	case ModelFlat:
		return NewFlatFee(rate)
	case ModelProportional:
		return NewProportionalFee(rate)
	case ModelZero:
		return NewZeroFee()
	default:
		return NewZeroFee()
	}
}

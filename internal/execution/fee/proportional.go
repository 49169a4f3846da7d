package fee

// ProportionalFee charges a rate on the fill notional, e.g. 0.001 for 10
// basis points.
type ProportionalFee struct {
	rate float64
}

// NewProportionalFee creates a proportional fee with the given rate.
func NewProportionalFee(rate float64) Fee {
	return &ProportionalFee{rate: rate}
}

// Calculate returns rate * quantity * price.
func (f *ProportionalFee) Calculate(quantity float64, price float64) float64 {
	if quantity <= 0 || price <= 0 {
		return 0
	}

	return f.rate * quantity * price
}

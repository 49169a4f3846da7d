package fee

// ZeroFee implements the Fee interface with zero commission.
type ZeroFee struct{}

// NewZeroFee creates a new zero fee.
func NewZeroFee() Fee {
	return &ZeroFee{}
}

// Calculate returns 0 for any fill.
func (f *ZeroFee) Calculate(quantity float64, price float64) float64 {
	return 0.0
}

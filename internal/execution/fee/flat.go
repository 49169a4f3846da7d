package fee

// FlatFee charges a fixed amount per fill regardless of size.
type FlatFee struct {
	amount float64
}

// NewFlatFee creates a flat fee charging amount per fill.
func NewFlatFee(amount float64) Fee {
	return &FlatFee{amount: amount}
}

// Calculate returns the flat amount for any non-zero fill.
func (f *FlatFee) Calculate(quantity float64, price float64) float64 {
	if quantity <= 0 {
		return 0
	}

	return f.amount
}

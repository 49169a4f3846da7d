package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position represents the current holdings of one instrument. There is
// exactly one position per instrument; only the ledger mutates it.
type Position struct {
	Symbol string `yaml:"symbol" json:"symbol"`
	// Quantity is the signed quantity held. Positive is long; negative is
	// short (only when shorting is allowed by configuration).
	Quantity float64 `yaml:"quantity" json:"quantity"`
	// AvgEntryPrice is the weighted-average entry price of the open quantity.
	AvgEntryPrice float64 `yaml:"avg_entry_price" json:"avg_entry_price"`
	// RealizedPnL is the cumulative realized profit/loss, excluding fees.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
	// LastPrice is the latest observed price used for mark-to-market.
	LastPrice float64 `yaml:"last_price" json:"last_price"`
	// OpenTimestamp is the time the position was first opened.
	OpenTimestamp time.Time `yaml:"open_timestamp" json:"open_timestamp"`
}

// MarketValue returns quantity * last price.
func (p *Position) MarketValue() float64 {
	value, _ := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.LastPrice)).Float64()

	return value
}

// UnrealizedPnL returns the open profit/loss at the last observed price.
func (p *Position) UnrealizedPnL() float64 {
	if p.Quantity == 0 {
		return 0
	}

	entry := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.AvgEntryPrice))
	market := decimal.NewFromFloat(p.Quantity).Mul(decimal.NewFromFloat(p.LastPrice))
	pnl, _ := market.Sub(entry).Float64()

	return pnl
}

// IsFlat reports whether the position holds no quantity.
func (p *Position) IsFlat() bool {
	return p.Quantity == 0
}

// Exposure returns the absolute market value of the position.
func (p *Position) Exposure() float64 {
	value := p.MarketValue()
	if value < 0 {
		return -value
	}

	return value
}

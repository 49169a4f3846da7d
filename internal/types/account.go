package types

import "time"

// AccountInfo represents the account state at a point in time. The ledger is
// the only writer; everything else reads copies.
type AccountInfo struct {
	// Cash is the quote-currency balance, excluding fees paid.
	Cash float64 `yaml:"cash" json:"cash"`
	// Equity is Cash - TotalFees + the market value of all positions.
	Equity float64 `yaml:"equity" json:"equity"`
	// HighWaterMark is the peak equity seen during the run, used for
	// drawdown limits.
	HighWaterMark float64 `yaml:"high_water_mark" json:"high_water_mark"`
	// RealizedPnL is the total realized profit/loss across instruments.
	RealizedPnL float64 `yaml:"realized_pnl" json:"realized_pnl"`
	// UnrealizedPnL is the total open profit/loss across instruments.
	UnrealizedPnL float64 `yaml:"unrealized_pnl" json:"unrealized_pnl"`
	// TotalFees is the cumulative fees paid.
	TotalFees float64 `yaml:"total_fees" json:"total_fees"`
	// DayStartEquity is the equity at the start of the current trading day.
	DayStartEquity float64 `yaml:"day_start_equity" json:"day_start_equity"`
	// DayTradeCount is the number of fills executed in the current day.
	DayTradeCount int `yaml:"day_trade_count" json:"day_trade_count"`
	// Day is the UTC date the daily counters belong to.
	Day time.Time `yaml:"day" json:"day"`
}

// DailyPnL returns equity change since the start of the trading day.
func (a AccountInfo) DailyPnL() float64 {
	return a.Equity - a.DayStartEquity
}

// Drawdown returns the fractional decline of equity from the high-water
// mark, zero when equity is at or above the mark.
func (a AccountInfo) Drawdown() float64 {
	if a.HighWaterMark <= 0 || a.Equity >= a.HighWaterMark {
		return 0
	}

	return (a.HighWaterMark - a.Equity) / a.HighWaterMark
}

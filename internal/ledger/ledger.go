// Package ledger is the single source of truth for cash, positions and
// equity. Only fills mutate it; every mutation ends with an equity
// reconciliation, and a reconciliation failure permanently halts the ledger.
package ledger

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// reconcileTolerance bounds the acceptable float drift between the two
// independent equity computations.
const reconcileTolerance = 1e-9

// Ledger tracks cash, fees, per-instrument positions and the daily counters.
// It is safe for concurrent use; all methods take the internal lock.
type Ledger struct {
	mu sync.Mutex

	initialCapital float64
	cash           float64
	totalFees      float64
	realizedPnL    float64
	highWaterMark  float64
	dayStartEquity float64
	dayTradeCount  int
	day            time.Time
	fillCount      int

	positions map[string]*types.Position
	halted    bool

	logger *logger.Logger
}

// New creates a ledger seeded with the initial capital.
func New(initialCapital float64, l *logger.Logger) *Ledger {
	return &Ledger{
		initialCapital: initialCapital,
		cash:           initialCapital,
		highWaterMark:  initialCapital,
		dayStartEquity: initialCapital,
		positions:      make(map[string]*types.Position),
		logger:         l,
	}
}

// Apply records one fill: position update, cash movement, fee accrual, daily
// trade count, then equity reconciliation. A reconciliation failure halts the
// ledger; once halted every further Apply fails with ErrCodeLedgerHalted.
func (l *Ledger) Apply(fill types.Fill) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.halted {
		return errors.New(errors.ErrCodeLedgerHalted, "ledger is halted after an invariant violation")
	}

	if err := fill.Validate(); err != nil {
		return err
	}

	l.rollDayLocked(fill.Time)

	position, ok := l.positions[fill.Symbol]
	if !ok {
		position = &types.Position{Symbol: fill.Symbol}
		l.positions[fill.Symbol] = position
	}

	l.applyToPositionLocked(position, fill)

	notional, _ := decimal.NewFromFloat(fill.Quantity).Mul(decimal.NewFromFloat(fill.Price)).Float64()
	if fill.Side == types.SignalDirectionBuy {
		l.cash -= notional
	} else {
		l.cash += notional
	}

	l.totalFees += fill.Fee
	l.dayTradeCount++
	l.fillCount++

	position.LastPrice = fill.Price

	if err := l.reconcileLocked(); err != nil {
		l.halted = true
		l.logger.Error("equity reconciliation failed, halting ledger",
			zap.String("fill_id", fill.ID),
			zap.Error(err),
		)

		return err
	}

	equity := l.equityLocked()
	if equity > l.highWaterMark {
		l.highWaterMark = equity
	}

	return nil
}

// applyToPositionLocked mutates one position for one fill. Increasing the
// position blends the entry price; decreasing it realizes pnl proportionally;
// crossing through flat closes the old side fully and opens the remainder at
// the fill price.
func (l *Ledger) applyToPositionLocked(position *types.Position, fill types.Fill) {
	held := position.Quantity
	signed := fill.SignedQuantity()

	if held == 0 || held*signed > 0 {
		// Opening or increasing: weighted-average entry.
		total := held + signed
		entry := decimal.NewFromFloat(held).Mul(decimal.NewFromFloat(position.AvgEntryPrice)).
			Add(decimal.NewFromFloat(signed).Mul(decimal.NewFromFloat(fill.Price)))
		position.AvgEntryPrice, _ = entry.Div(decimal.NewFromFloat(total)).Float64()
		position.Quantity = total

		if held == 0 {
			position.OpenTimestamp = fill.Time
		}

		return
	}

	closed := math.Min(math.Abs(signed), math.Abs(held))
	direction := 1.0
	if held < 0 {
		direction = -1
	}

	realized, _ := decimal.NewFromFloat(fill.Price).Sub(decimal.NewFromFloat(position.AvgEntryPrice)).
		Mul(decimal.NewFromFloat(closed * direction)).Float64()
	position.RealizedPnL += realized
	l.realizedPnL += realized

	remainder := held + signed
	if remainder == 0 || remainder*held > 0 {
		// Reduced or flattened; entry price stands for what is left.
		position.Quantity = remainder
		if remainder == 0 {
			position.AvgEntryPrice = 0
		}

		return
	}

	// Crossed through flat: the remainder is a fresh position.
	position.Quantity = remainder
	position.AvgEntryPrice = fill.Price
	position.OpenTimestamp = fill.Time
}

// MarkToMarket revalues one instrument at the observed price and rolls the
// trading day when the observation crosses a UTC date boundary. The high
// water mark tracks equity after revaluation.
func (l *Ledger) MarkToMarket(obs types.Observation) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.rollDayLocked(obs.Time)

	if position, ok := l.positions[obs.Symbol]; ok {
		position.LastPrice = obs.Price()
	}

	equity := l.equityLocked()
	if equity > l.highWaterMark {
		l.highWaterMark = equity
	}
}

// rollDayLocked resets the daily counters when ts falls on a later UTC date
// than the current trading day. Timestamps drive the clock so replays of the
// same data roll the day at identical points.
func (l *Ledger) rollDayLocked(ts time.Time) {
	date := ts.UTC().Truncate(24 * time.Hour)

	if l.day.IsZero() {
		l.day = date
		l.dayStartEquity = l.equityLocked()

		return
	}

	if date.After(l.day) {
		l.day = date
		l.dayStartEquity = l.equityLocked()
		l.dayTradeCount = 0
	}
}

// equityLocked computes cash - fees + market value with decimal arithmetic.
func (l *Ledger) equityLocked() float64 {
	equity := decimal.NewFromFloat(l.cash).Sub(decimal.NewFromFloat(l.totalFees))
	for _, position := range l.positions {
		equity = equity.Add(decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(position.LastPrice)))
	}

	value, _ := equity.Float64()

	return value
}

// reconcileLocked verifies the equity identity two independent ways:
// cash - fees + market value must equal initial capital + realized pnl +
// unrealized pnl - fees, within tolerance.
func (l *Ledger) reconcileLocked() error {
	direct := decimal.NewFromFloat(l.cash).Sub(decimal.NewFromFloat(l.totalFees))
	derived := decimal.NewFromFloat(l.initialCapital).
		Add(decimal.NewFromFloat(l.realizedPnL)).
		Sub(decimal.NewFromFloat(l.totalFees))

	for _, position := range l.positions {
		direct = direct.Add(decimal.NewFromFloat(position.Quantity).Mul(decimal.NewFromFloat(position.LastPrice)))
		derived = derived.Add(decimal.NewFromFloat(position.UnrealizedPnL()))
	}

	diff := direct.Sub(derived).Abs()
	if diff.GreaterThan(decimal.NewFromFloat(reconcileTolerance)) {
		return errors.Newf(errors.ErrCodeLedgerInvariantViolation,
			"equity reconciliation mismatch: direct %s vs derived %s", direct.String(), derived.String())
	}

	return nil
}

// Account returns a copy of the account state.
func (l *Ledger) Account() types.AccountInfo {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.accountLocked()
}

func (l *Ledger) accountLocked() types.AccountInfo {
	unrealized := 0.0
	for _, position := range l.positions {
		unrealized += position.UnrealizedPnL()
	}

	return types.AccountInfo{
		Cash:           l.cash,
		Equity:         l.equityLocked(),
		HighWaterMark:  l.highWaterMark,
		RealizedPnL:    l.realizedPnL,
		UnrealizedPnL:  unrealized,
		TotalFees:      l.totalFees,
		DayStartEquity: l.dayStartEquity,
		DayTradeCount:  l.dayTradeCount,
		Day:            l.day,
	}
}

// Position returns a copy of the position for a symbol, zero-valued when the
// instrument has never traded.
func (l *Ledger) Position(symbol string) types.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	if position, ok := l.positions[symbol]; ok {
		return *position
	}

	return types.Position{Symbol: symbol}
}

// Positions returns copies of all positions, sorted by symbol.
func (l *Ledger) Positions() []types.Position {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make([]types.Position, 0, len(l.positions))
	for _, position := range l.positions {
		positions = append(positions, *position)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})

	return positions
}

// GrossExposure returns the aggregate absolute market value across
// instruments.
func (l *Ledger) GrossExposure() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	exposure := 0.0
	for _, position := range l.positions {
		exposure += position.Exposure()
	}

	return exposure
}

// Halted reports whether an invariant violation has stopped the ledger.
func (l *Ledger) Halted() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.halted
}

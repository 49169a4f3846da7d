// Package risk enforces the pre-trade limits. Every decision passes through
// Review before it may reach the execution simulator; the review either
// approves it unchanged, scales its quantity down to fit a limit, or rejects
// it with a machine-readable reason code.
package risk

import (
	"math"

	"go.uber.org/zap"

	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
)

// Verdict is the outcome of a risk review.
type Verdict string

const (
	VerdictApproved Verdict = "APPROVED"
	VerdictScaled   Verdict = "SCALED"
	VerdictRejected Verdict = "REJECTED"
)

// Reason codes attached to scaled or rejected decisions.
const (
	ReasonShortSellingDisabled = "SHORT_SELLING_DISABLED"
	ReasonPositionLimit        = "POSITION_LIMIT_EXCEEDED"
	ReasonExposureLimit        = "EXPOSURE_LIMIT_EXCEEDED"
	ReasonDailyLoss            = "DAILY_LOSS_EXCEEDED"
	ReasonDrawdown             = "DRAWDOWN_EXCEEDED"
	ReasonDailyTradeLimit      = "DAILY_TRADE_LIMIT_EXCEEDED"
)

// Result is the outcome of reviewing one decision. On APPROVED and SCALED the
// embedded decision carries the quantity allowed to execute; on REJECTED the
// decision must not execute. Reason names the limit that was hit on SCALED
// and REJECTED outcomes.
type Result struct {
	Verdict  Verdict
	Decision types.Decision
	Reason   string
}

// Rejected reports whether the decision was blocked.
func (r Result) Rejected() bool {
	return r.Verdict == VerdictRejected
}

// PortfolioState is the account view a review runs against. GrossExposure is
// the aggregate absolute market value across all instruments.
type PortfolioState struct {
	Position      types.Position
	Account       types.AccountInfo
	Instrument    types.Instrument
	GrossExposure float64
}

// Manager applies the configured limits in a fixed order: short clamp,
// position size, exposure, daily loss, drawdown, daily trade cap. Limits are
// immutable for the duration of a run. Decisions that reduce risk pass the
// loss, drawdown and trade-cap gates unconditionally so the pipeline can
// always unwind.
type Manager struct {
	limits config.RiskLimitConfig
	logger *logger.Logger
}

func New(limits config.RiskLimitConfig, l *logger.Logger) *Manager {
	return &Manager{limits: limits, logger: l}
}

// Review checks one decision against the limits at the given reference price.
// The input decision is not mutated; a scaled copy is returned in the result.
func (m *Manager) Review(decision *types.Decision, price float64, state PortfolioState) Result {
	reviewed := *decision

	// First limit to bite names the reason on the result.
	scaleReason := ""

	// Short clamp: without shorting, a sell can at most flatten the position.
	if !m.limits.AllowShort && reviewed.Direction == types.SignalDirectionSell {
		held := state.Position.Quantity
		if held <= 0 {
			return m.reject(reviewed, ReasonShortSellingDisabled)
		}

		if reviewed.Quantity > held {
			reviewed.Quantity = quantizeDown(held, state.Instrument.StepSize)
			if reviewed.Quantity <= 0 {
				return m.reject(reviewed, ReasonShortSellingDisabled)
			}
			scaleReason = ReasonShortSellingDisabled
		}
	}

	reducing := m.reducesRisk(reviewed, state.Position)

	// Position size.
	if !reducing {
		resulting := math.Abs(state.Position.Quantity + signedQuantity(reviewed))
		if resulting > m.limits.MaxPositionSize {
			allowed := m.limits.MaxPositionSize - math.Abs(state.Position.Quantity)
			reviewed.Quantity = quantizeDown(allowed, state.Instrument.StepSize)
			if reviewed.Quantity <= 0 {
				return m.reject(reviewed, ReasonPositionLimit)
			}
			if scaleReason == "" {
				scaleReason = ReasonPositionLimit
			}
		}
	}

	// Exposure.
	if !reducing {
		added := reviewed.Quantity * price
		if state.GrossExposure+added > m.limits.MaxExposure {
			allowed := m.limits.MaxExposure - state.GrossExposure
			if allowed <= 0 || price <= 0 {
				return m.reject(reviewed, ReasonExposureLimit)
			}
			reviewed.Quantity = quantizeDown(allowed/price, state.Instrument.StepSize)
			if reviewed.Quantity <= 0 {
				return m.reject(reviewed, ReasonExposureLimit)
			}
			if scaleReason == "" {
				scaleReason = ReasonExposureLimit
			}
		}
	}

	// Daily loss, drawdown and trade cap gate new risk only.
	if !reducing {
		if state.Account.DailyPnL() <= -m.limits.MaxDailyLoss {
			return m.reject(reviewed, ReasonDailyLoss)
		}

		if state.Account.Drawdown() > m.limits.MaxDrawdown {
			return m.reject(reviewed, ReasonDrawdown)
		}

		if m.limits.MaxDailyTrades > 0 && state.Account.DayTradeCount >= m.limits.MaxDailyTrades {
			return m.reject(reviewed, ReasonDailyTradeLimit)
		}
	}

	if scaleReason != "" {
		m.logger.Info("decision scaled by risk limits",
			zap.String("decision_id", reviewed.ID),
			zap.String("symbol", reviewed.Symbol),
			zap.String("reason", scaleReason),
			zap.Float64("requested", decision.Quantity),
			zap.Float64("allowed", reviewed.Quantity),
		)

		return Result{Verdict: VerdictScaled, Decision: reviewed, Reason: scaleReason}
	}

	return Result{Verdict: VerdictApproved, Decision: reviewed}
}

func (m *Manager) reject(decision types.Decision, reason string) Result {
	m.logger.Info("decision rejected by risk limits",
		zap.String("decision_id", decision.ID),
		zap.String("symbol", decision.Symbol),
		zap.String("reason", reason),
	)

	return Result{Verdict: VerdictRejected, Decision: decision, Reason: reason}
}

// reducesRisk reports whether the decision shrinks the absolute position
// without crossing through flat.
func (m *Manager) reducesRisk(decision types.Decision, position types.Position) bool {
	held := position.Quantity
	signed := signedQuantity(decision)

	if held == 0 || held*signed >= 0 {
		return false
	}

	return math.Abs(signed) <= math.Abs(held)
}

func signedQuantity(decision types.Decision) float64 {
	if decision.Direction == types.SignalDirectionSell {
		return -decision.Quantity
	}

	return decision.Quantity
}

func quantizeDown(q, step float64) float64 {
	if step <= 0 {
		return q
	}

	return math.Floor(q/step+1e-9) * step
}

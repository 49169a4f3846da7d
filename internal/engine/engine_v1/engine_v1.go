// Package engine_v1 is the first implementation of the trading engine
// contract. One observation flows through mark-to-market, strategy
// evaluation, aggregation, risk review and execution before the next is
// consumed; the pipeline is synchronous so identical streams produce
// identical fills.
package engine_v1

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/stratigo-lab/stratigo/internal/aggregator"
	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/engine"
	"github.com/stratigo-lab/stratigo/internal/events"
	"github.com/stratigo-lab/stratigo/internal/execution"
	"github.com/stratigo-lab/stratigo/internal/ledger"
	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/metrics"
	"github.com/stratigo-lab/stratigo/internal/risk"
	"github.com/stratigo-lab/stratigo/internal/strategy"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
	"github.com/stratigo-lab/stratigo/pkg/feed"
)

const defaultEventBufferSize = 256

// TradingEngineV1 implements engine.TradingEngine.
type TradingEngineV1 struct {
	cfg          config.Config
	strategies   []strategy.Strategy
	aggregator   *aggregator.Aggregator
	riskManager  *risk.Manager
	simulator    *execution.Simulator
	ledger       *ledger.Ledger
	feedProvider feed.Provider
	notifier     events.Notifier
	auditStore   *ledger.AuditStore
	snapshotPath string
	log          *logger.Logger

	// lastSeen tracks the newest accepted timestamp per instrument so stale
	// observations can be dropped.
	lastSeen    map[string]time.Time
	initialized bool

	// drawdownAlerted suppresses repeat alerts while equity stays below the
	// drawdown limit.
	drawdownAlerted bool
}

// NewTradingEngineV1 creates an engine with a production logger.
func NewTradingEngineV1() (engine.TradingEngine, error) {
	log, err := logger.NewLogger()
	if err != nil {
		return nil, err
	}

	return NewTradingEngineV1WithLogger(log), nil
}

// NewTradingEngineV1WithLogger creates an engine with the given logger.
func NewTradingEngineV1WithLogger(log *logger.Logger) *TradingEngineV1 {
	return &TradingEngineV1{
		log:      log,
		lastSeen: make(map[string]time.Time),
	}
}

// Initialize builds the pipeline components from the configuration.
func (e *TradingEngineV1) Initialize(cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	strategies, err := strategy.NewEnabled(cfg.Strategies)
	if err != nil {
		return err
	}

	if len(strategies) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no enabled strategies")
	}

	e.cfg = cfg
	e.strategies = strategies
	e.aggregator = aggregator.New(&cfg, e.log.Named("aggregator"))
	e.riskManager = risk.New(cfg.Risk, e.log.Named("risk"))
	e.simulator = execution.New(cfg.Execution, e.log.Named("execution"))
	e.ledger = ledger.New(cfg.InitialCapital, e.log.Named("ledger"))
	e.initialized = true

	return nil
}

// RestoreLedger replaces the ledger with one restored from a snapshot. Must
// be called after Initialize and before Run.
func (e *TradingEngineV1) RestoreLedger(snapshot *ledger.Snapshot) error {
	if !e.initialized {
		return errors.New(errors.ErrCodeInvalidConfiguration, "engine is not initialized")
	}

	e.ledger = ledger.Restore(snapshot, e.log.Named("ledger"))

	e.lastSeen = make(map[string]time.Time, len(snapshot.LastProcessed))
	for symbol, ts := range snapshot.LastProcessed {
		e.lastSeen[symbol] = ts
	}

	return nil
}

func (e *TradingEngineV1) SetFeedProvider(provider feed.Provider) error {
	e.feedProvider = provider
	return nil
}

func (e *TradingEngineV1) SetNotifier(notifier events.Notifier) error {
	e.notifier = notifier
	return nil
}

func (e *TradingEngineV1) SetAuditStore(store *ledger.AuditStore) error {
	e.auditStore = store
	return nil
}

func (e *TradingEngineV1) SetSnapshotPath(path string) error {
	e.snapshotPath = path
	return nil
}

func (e *TradingEngineV1) Account() types.AccountInfo {
	return e.ledger.Account()
}

func (e *TradingEngineV1) Positions() []types.Position {
	return e.ledger.Positions()
}

func (e *TradingEngineV1) preRunCheck() error {
	if !e.initialized {
		return errors.New(errors.ErrCodeInvalidConfiguration, "engine is not initialized")
	}

	if e.feedProvider == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no feed provider configured")
	}

	return nil
}

// Run consumes the feed until it ends, the context is cancelled, or the
// ledger halts. Cancellation is observed between observations: the one in
// flight always completes so the ledger never stops mid-update.
func (e *TradingEngineV1) Run(ctx context.Context, interval string, callbacks engine.Callbacks) error {
	var runErr error

	if err := e.preRunCheck(); err != nil {
		return err
	}

	notifier := e.notifier
	if notifier == nil {
		notifier = events.NotifierFunc(func(context.Context, types.Event) error { return nil })
	}

	bus := events.NewBus(notifier, defaultEventBufferSize, e.log.Named("events"))
	bus.Start(ctx)

	defer func() {
		// After an invariant violation the in-memory state is suspect; the
		// snapshot on disk keeps the last consistent state for postmortem.
		if e.snapshotPath != "" && e.ledger.Halted() {
			e.log.Warn("ledger halted, snapshot not overwritten")
		}

		if e.snapshotPath != "" && !e.ledger.Halted() {
			snapshot := e.ledger.Snapshot()
			snapshot.LastProcessed = make(map[string]time.Time, len(e.lastSeen))
			for symbol, ts := range e.lastSeen {
				snapshot.LastProcessed[symbol] = ts
			}

			if err := snapshot.Save(e.snapshotPath); err != nil {
				e.log.Warn("failed to save ledger snapshot", zap.Error(err))
			}
		}

		bus.Publish(events.SystemEvent("engine stopped", time.Now().UTC()))
		bus.Close()

		if callbacks.OnStop != nil {
			(*callbacks.OnStop)(runErr)
		}
	}()

	bus.Publish(events.SystemEvent("engine started", time.Now().UTC()))

	stream := e.feedProvider.Stream(ctx, e.cfg.Symbols(), interval)

	for obs, err := range stream {
		select {
		case <-ctx.Done():
			runErr = ctx.Err()

			return runErr
		default:
		}

		if err != nil {
			e.reportError(bus, callbacks, "feed", obs.Symbol, obs.Time, err)

			continue
		}

		proceed, fatal := e.process(bus, callbacks, obs)
		if fatal != nil {
			runErr = fatal

			return runErr
		}

		if !proceed {
			break
		}
	}

	return runErr
}

// process runs one observation through the pipeline. It returns proceed=false
// to end the run cleanly (end-time bound reached) and a non-nil fatal error
// to abort it.
func (e *TradingEngineV1) process(bus *events.Bus, callbacks engine.Callbacks, obs types.Observation) (proceed bool, fatal error) {
	if e.cfg.EndTime.IsSome() && obs.Time.After(e.cfg.EndTime.Unwrap()) {
		e.log.Info("end time reached, stopping", zap.Time("observation_time", obs.Time))

		return false, nil
	}

	if e.cfg.StartTime.IsSome() && obs.Time.Before(e.cfg.StartTime.Unwrap()) {
		return true, nil
	}

	if err := obs.Validate(); err != nil {
		metrics.RecordDroppedObservation(obs.Symbol, "invalid")
		e.reportError(bus, callbacks, "validate", obs.Symbol, obs.Time, err)

		return true, nil
	}

	instrument, ok := e.cfg.Instrument(obs.Symbol)
	if !ok {
		metrics.RecordDroppedObservation(obs.Symbol, "unknown_symbol")
		e.reportError(bus, callbacks, "validate", obs.Symbol, obs.Time,
			errors.Newf(errors.ErrCodeInstrumentUnknown, "observation for unregistered symbol %s", obs.Symbol))

		return true, nil
	}

	// Out-of-order observations are dropped; the stream continues.
	if last, seen := e.lastSeen[obs.Symbol]; seen && obs.Time.Before(last) {
		metrics.RecordDroppedObservation(obs.Symbol, "out_of_order")
		e.reportError(bus, callbacks, "ordering", obs.Symbol, obs.Time,
			errors.Newf(errors.ErrCodeObservationOutOfOrder,
				"observation for %s at %s is older than %s", obs.Symbol, obs.Time, last))

		return true, nil
	}

	e.lastSeen[obs.Symbol] = obs.Time
	metrics.RecordObservation(obs.Symbol)

	e.ledger.MarkToMarket(obs)

	if dd := e.ledger.Account().Drawdown(); dd > e.cfg.Risk.MaxDrawdown {
		if !e.drawdownAlerted {
			e.drawdownAlerted = true
			bus.Publish(events.SystemEvent(
				fmt.Sprintf("drawdown %.4f exceeds limit %.4f", dd, e.cfg.Risk.MaxDrawdown), obs.Time))
		}
	} else {
		e.drawdownAlerted = false
	}

	if callbacks.OnObservation != nil {
		if err := (*callbacks.OnObservation)(obs); err != nil {
			return false, errors.Wrap(errors.ErrCodeUnknown, "OnObservation callback failed", err)
		}
	}

	signals := e.evaluateStrategies(bus, callbacks, obs)

	account := e.ledger.Account()

	decision, err := e.aggregator.Aggregate(signals, obs, instrument, account)
	if err != nil {
		metrics.RecordError("aggregate")
		e.reportError(bus, callbacks, "aggregate", obs.Symbol, obs.Time, err)

		return true, nil
	}

	if decision == nil {
		metrics.UpdateAccount(account.Equity, e.ledger.GrossExposure())

		return true, nil
	}

	result := e.riskManager.Review(decision, obs.Price(), risk.PortfolioState{
		Position:      e.ledger.Position(obs.Symbol),
		Account:       account,
		Instrument:    instrument,
		GrossExposure: e.ledger.GrossExposure(),
	})

	if result.Rejected() {
		metrics.RecordVeto(obs.Symbol, result.Reason)
		bus.Publish(events.VetoEvent(result))

		if callbacks.OnVeto != nil {
			if err := (*callbacks.OnVeto)(result); err != nil {
				return false, errors.Wrap(errors.ErrCodeUnknown, "OnVeto callback failed", err)
			}
		}

		return true, nil
	}

	if result.Verdict == risk.VerdictScaled {
		metrics.RecordScaled(obs.Symbol, result.Reason)
		bus.Publish(events.VetoEvent(result))
	}

	reviewed := result.Decision

	fill, err := e.simulator.Execute(&reviewed, obs, instrument)
	if err != nil {
		metrics.RecordError("execute")
		e.reportError(bus, callbacks, "execute", obs.Symbol, obs.Time, err)

		return true, nil
	}

	if err := e.ledger.Apply(fill); err != nil {
		// A halted ledger cannot accept state changes; the run must stop.
		if errors.HasCode(err, errors.ErrCodeLedgerInvariantViolation) || errors.HasCode(err, errors.ErrCodeLedgerHalted) {
			bus.Publish(events.SystemEvent("ledger halted: "+err.Error(), obs.Time))

			return false, err
		}

		metrics.RecordError("ledger")
		e.reportError(bus, callbacks, "ledger", obs.Symbol, obs.Time, err)

		return true, nil
	}

	metrics.RecordFill(fill.Symbol, string(fill.Side))
	bus.Publish(events.FillEvent(fill))

	if e.auditStore != nil {
		if err := e.auditStore.Record(fill); err != nil {
			e.log.Warn("failed to record fill in audit store",
				zap.String("fill_id", fill.ID),
				zap.Error(err),
			)
		}
	}

	if callbacks.OnFill != nil {
		if err := (*callbacks.OnFill)(fill); err != nil {
			return false, errors.Wrap(errors.ErrCodeUnknown, "OnFill callback failed", err)
		}
	}

	account = e.ledger.Account()
	metrics.UpdateAccount(account.Equity, e.ledger.GrossExposure())

	return true, nil
}

// evaluateStrategies collects exactly one signal per enabled strategy.
// Warm-up and strategy faults are downgraded to HOLD so a single strategy
// never stalls the pipeline.
func (e *TradingEngineV1) evaluateStrategies(bus *events.Bus, callbacks engine.Callbacks, obs types.Observation) []types.Signal {
	signals := make([]types.Signal, 0, len(e.strategies))

	for _, s := range e.strategies {
		signal, err := s.Evaluate(obs)
		if err != nil {
			if errors.IsInsufficientDataError(err) {
				signal = types.HoldSignal(s.Name(), obs, "warming up")
			} else {
				metrics.RecordError("strategy")
				e.reportError(bus, callbacks, "strategy", obs.Symbol, obs.Time,
					errors.Wrapf(errors.ErrCodeStrategyFault, err, "strategy %s failed", s.Name()))
				signal = types.HoldSignal(s.Name(), obs, "strategy fault")
			}
		}

		metrics.RecordSignal(signal.StrategyName, string(signal.Direction))
		signals = append(signals, signal)
	}

	return signals
}

func (e *TradingEngineV1) reportError(bus *events.Bus, callbacks engine.Callbacks, stage, symbol string, at time.Time, err error) {
	e.log.Warn("pipeline error",
		zap.String("stage", stage),
		zap.String("symbol", symbol),
		zap.Error(err),
	)

	bus.Publish(events.ErrorEvent(symbol, at, err))

	if callbacks.OnError != nil {
		(*callbacks.OnError)(err)
	}
}

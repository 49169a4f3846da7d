// Package engine defines the trading engine contract. The engine wires the
// feed, strategies, aggregator, risk manager, simulator and ledger into one
// deterministic pipeline and reports progress through lifecycle callbacks.
package engine

import (
	"context"

	"github.com/stratigo-lab/stratigo/internal/config"
	"github.com/stratigo-lab/stratigo/internal/events"
	"github.com/stratigo-lab/stratigo/internal/ledger"
	"github.com/stratigo-lab/stratigo/internal/risk"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/feed"
)

// Lifecycle callback types. Callbacks returning an error abort the run.

// OnObservationCallback is called for each accepted observation.
type OnObservationCallback func(obs types.Observation) error

// OnFillCallback is called after a fill is committed to the ledger.
type OnFillCallback func(fill types.Fill) error

// OnVetoCallback is called when the risk manager rejects a decision.
type OnVetoCallback func(result risk.Result) error

// OnErrorCallback is called for non-fatal pipeline errors.
type OnErrorCallback func(err error)

// OnStopCallback is called when the engine stops (always, via defer).
type OnStopCallback func(err error)

// Callbacks holds the lifecycle callbacks. All fields are pointers; nil means
// no callback is invoked.
type Callbacks struct {
	OnObservation *OnObservationCallback
	OnFill        *OnFillCallback
	OnVeto        *OnVetoCallback
	OnError       *OnErrorCallback
	OnStop        *OnStopCallback
}

// TradingEngine runs the evaluation pipeline over a stream of observations.
type TradingEngine interface {
	// Initialize sets up the engine with a validated configuration.
	Initialize(cfg config.Config) error

	// SetFeedProvider configures the observation source.
	SetFeedProvider(provider feed.Provider) error

	// SetNotifier configures the event consumer. Optional; without it events
	// are discarded.
	SetNotifier(notifier events.Notifier) error

	// SetAuditStore configures fill persistence. Optional.
	SetAuditStore(store *ledger.AuditStore) error

	// SetSnapshotPath sets the file the ledger snapshot is written to on
	// shutdown. Optional.
	SetSnapshotPath(path string) error

	// Run blocks until the stream ends, the context is cancelled, or a fatal
	// error occurs. The observation being processed when cancellation arrives
	// is always completed before Run returns.
	Run(ctx context.Context, interval string, callbacks Callbacks) error

	// Account returns the current account state.
	Account() types.AccountInfo

	// Positions returns the current positions, sorted by symbol.
	Positions() []types.Position
}

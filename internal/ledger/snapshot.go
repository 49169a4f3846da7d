package ledger

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/internal/version"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// Snapshot is a point-in-time copy of the ledger state, written on clean
// shutdown and restorable at startup. The schema version gates restores
// across incompatible builds.
type Snapshot struct {
	SchemaVersion  string           `yaml:"schema_version"`
	CreatedAt      time.Time        `yaml:"created_at"`
	InitialCapital float64          `yaml:"initial_capital"`
	Cash           float64          `yaml:"cash"`
	TotalFees      float64          `yaml:"total_fees"`
	RealizedPnL    float64          `yaml:"realized_pnl"`
	HighWaterMark  float64          `yaml:"high_water_mark"`
	DayStartEquity float64          `yaml:"day_start_equity"`
	DayTradeCount  int              `yaml:"day_trade_count"`
	Day            time.Time        `yaml:"day"`
	FillCount      int              `yaml:"fill_count"`
	Positions      []types.Position `yaml:"positions"`

	// LastProcessed holds the newest accepted observation time per symbol,
	// filled in by the engine so ordering survives a restart.
	LastProcessed map[string]time.Time `yaml:"last_processed,omitempty"`
}

// Snapshot returns a copy of the current ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()

	positions := make([]types.Position, 0, len(l.positions))
	for _, position := range l.positions {
		positions = append(positions, *position)
	}

	snapshot := Snapshot{
		SchemaVersion:  version.SnapshotSchemaVersion,
		CreatedAt:      time.Now().UTC(),
		InitialCapital: l.initialCapital,
		Cash:           l.cash,
		TotalFees:      l.totalFees,
		RealizedPnL:    l.realizedPnL,
		HighWaterMark:  l.highWaterMark,
		DayStartEquity: l.dayStartEquity,
		DayTradeCount:  l.dayTradeCount,
		Day:            l.day,
		FillCount:      l.fillCount,
		Positions:      positions,
	}

	return snapshot
}

// SaveSnapshot writes the current state to a YAML file. A halted ledger
// refuses to save: its state failed reconciliation, and any snapshot already
// on disk predates the violation.
func (l *Ledger) SaveSnapshot(path string) error {
	if l.Halted() {
		return errors.New(errors.ErrCodeLedgerHalted, "ledger is halted, snapshot not saved")
	}

	snapshot := l.Snapshot()
	return snapshot.Save(path)
}

// Save writes the snapshot to a YAML file.
func (s Snapshot) Save(path string) error {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotFailed, "failed to marshal snapshot", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeSnapshotFailed, "failed to write snapshot", err)
	}

	return nil
}

// LoadSnapshot reads a snapshot file and checks schema compatibility.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeSnapshotFailed, "failed to read snapshot", err)
	}

	var snapshot Snapshot
	if err := yaml.Unmarshal(data, &snapshot); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSnapshotFailed, "failed to parse snapshot", err)
	}

	if err := version.CheckSnapshotCompatible(snapshot.SchemaVersion); err != nil {
		return nil, errors.Wrap(errors.ErrCodeSnapshotIncompatible, "snapshot schema check failed", err)
	}

	return &snapshot, nil
}

// Restore creates a ledger from a previously saved snapshot.
func Restore(snapshot *Snapshot, log *logger.Logger) *Ledger {
	l := New(snapshot.InitialCapital, log)

	l.initialCapital = snapshot.InitialCapital
	l.cash = snapshot.Cash
	l.totalFees = snapshot.TotalFees
	l.realizedPnL = snapshot.RealizedPnL
	l.highWaterMark = snapshot.HighWaterMark
	l.dayStartEquity = snapshot.DayStartEquity
	l.dayTradeCount = snapshot.DayTradeCount
	l.day = snapshot.Day
	l.fillCount = snapshot.FillCount
	l.positions = make(map[string]*types.Position, len(snapshot.Positions))

	for i := range snapshot.Positions {
		position := snapshot.Positions[i]
		l.positions[position.Symbol] = &position
	}

	return l
}

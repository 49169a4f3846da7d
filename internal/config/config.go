package config

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/moznion/go-optional"
	"gopkg.in/yaml.v3"

	"github.com/stratigo-lab/stratigo/internal/execution/fee"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// StrategyConfig configures a single strategy variant. Each variant can be
// independently enabled and weighted in the signal aggregation.
type StrategyConfig struct {
	// Name selects the strategy variant: smarttrend, emacross, breakout.
	Name string `yaml:"name" json:"name" validate:"required" jsonschema:"title=Strategy Name,description=Strategy variant identifier,enum=smarttrend,enum=emacross,enum=breakout"`
	// Enabled toggles the strategy without removing its configuration.
	Enabled bool `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled,description=Whether the strategy participates in signal generation,default=true"`
	// Weight multiplies the strategy's confidence in the aggregate vote.
	Weight float64 `yaml:"weight" json:"weight" validate:"gte=0" jsonschema:"title=Weight,description=Vote weight in signal aggregation,minimum=0,default=1"`
	// Params holds variant-specific tunables (window lengths, thresholds).
	Params map[string]float64 `yaml:"params" json:"params" jsonschema:"title=Parameters,description=Variant-specific numeric parameters"`
}

// RiskLimitConfig holds the risk limits enforced before any order is
// simulated. Immutable for the duration of a run.
type RiskLimitConfig struct {
	// MaxPositionSize caps the absolute quantity held per instrument.
	MaxPositionSize float64 `yaml:"max_position_size" json:"max_position_size" validate:"gt=0" jsonschema:"title=Max Position Size,description=Maximum absolute quantity per instrument,minimum=0"`
	// MaxExposure caps the total absolute market value across instruments.
	MaxExposure float64 `yaml:"max_exposure" json:"max_exposure" validate:"gt=0" jsonschema:"title=Max Exposure,description=Maximum aggregate absolute exposure in quote currency,minimum=0"`
	// MaxDailyLoss rejects new risk once realized+unrealized losses for the
	// day exceed this amount.
	MaxDailyLoss float64 `yaml:"max_daily_loss" json:"max_daily_loss" validate:"gt=0" jsonschema:"title=Max Daily Loss,description=Maximum loss per trading day in quote currency,minimum=0"`
	// MaxDrawdown rejects new risk once equity falls below the high-water
	// mark by more than this fraction.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown" validate:"gt=0,lte=1" jsonschema:"title=Max Drawdown,description=Maximum fractional drawdown from peak equity,minimum=0,maximum=1"`
	// MaxDailyTrades caps the number of fills per trading day. Zero disables
	// the check.
	MaxDailyTrades int `yaml:"max_daily_trades" json:"max_daily_trades" validate:"gte=0" jsonschema:"title=Max Daily Trades,description=Maximum fills per trading day (0 disables),minimum=0"`
	// AllowShort permits negative positions. Disabled by default.
	AllowShort bool `yaml:"allow_short" json:"allow_short" jsonschema:"title=Allow Short,description=Permit short positions,default=false"`
}

// ExecutionConfig configures the fill simulation.
type ExecutionConfig struct {
	// FeeModel selects the commission model: zero, flat, proportional.
	FeeModel fee.Model `yaml:"fee_model" json:"fee_model" jsonschema:"title=Fee Model,description=Commission model for simulated fills"`
	// FeeRate is the flat fee per fill or the proportional rate, depending
	// on the model.
	FeeRate float64 `yaml:"fee_rate" json:"fee_rate" validate:"gte=0" jsonschema:"title=Fee Rate,description=Flat fee or proportional rate depending on the model,minimum=0"`
	// SlippageImpact scales price impact by order size relative to recent
	// volume. Zero disables slippage.
	SlippageImpact float64 `yaml:"slippage_impact" json:"slippage_impact" validate:"gte=0" jsonschema:"title=Slippage Impact,description=Price impact coefficient relative to observed volume,minimum=0"`
	// MaxSlippage caps the fractional price adjustment per fill.
	MaxSlippage float64 `yaml:"max_slippage" json:"max_slippage" validate:"gte=0,lte=1" jsonschema:"title=Max Slippage,description=Maximum fractional price adjustment,minimum=0,maximum=1"`
}

// Config is the immutable run configuration consumed at startup. Reload is a
// collaborator concern; the core never mutates it.
type Config struct {
	// InitialCapital is the starting cash balance in quote currency.
	InitialCapital float64 `yaml:"initial_capital" json:"initial_capital" validate:"gt=0" jsonschema:"title=Initial Capital,description=Starting cash balance in quote currency,minimum=0"`
	// Instruments registers the tradable symbols and their constraints.
	Instruments []types.Instrument `yaml:"instruments" json:"instruments" validate:"required,min=1,dive" jsonschema:"title=Instruments,description=Tradable instruments and their exchange constraints"`
	// Strategies configures the strategy variants.
	Strategies []StrategyConfig `yaml:"strategies" json:"strategies" validate:"required,min=1,dive" jsonschema:"title=Strategies,description=Strategy variants with weights and parameters"`
	// VoteThreshold is the minimum absolute weighted vote needed to emit a
	// decision.
	VoteThreshold float64 `yaml:"vote_threshold" json:"vote_threshold" validate:"gt=0" jsonschema:"title=Vote Threshold,description=Minimum absolute weighted vote to act,minimum=0"`
	// RiskPerTrade is the fraction of equity committed per decision.
	RiskPerTrade float64 `yaml:"risk_per_trade" json:"risk_per_trade" validate:"gt=0,lte=1" jsonschema:"title=Risk Per Trade,description=Fraction of equity committed per decision,minimum=0,maximum=1"`
	// Risk holds the risk limits.
	Risk RiskLimitConfig `yaml:"risk" json:"risk" validate:"required" jsonschema:"title=Risk Limits,description=Risk limits enforced before execution"`
	// Execution holds the fill simulation settings.
	Execution ExecutionConfig `yaml:"execution" json:"execution" jsonschema:"title=Execution,description=Fill simulation settings"`
	// StartTime optionally bounds the run; observations before it are
	// ignored.
	StartTime optional.Option[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional lower bound on observation timestamps"`
	// EndTime optionally bounds the run; the pipeline stops at the first
	// observation past it.
	EndTime optional.Option[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional upper bound on observation timestamps"`
}

// UnmarshalYAML implements custom unmarshaling for Config so that optional
// time bounds map onto optional.Option values.
func (c *Config) UnmarshalYAML(unmarshal func(interface{}) error) error {
	type plainConfig struct {
		InitialCapital float64            `yaml:"initial_capital"`
		Instruments    []types.Instrument `yaml:"instruments"`
		Strategies     []StrategyConfig   `yaml:"strategies"`
		VoteThreshold  float64            `yaml:"vote_threshold"`
		RiskPerTrade   float64            `yaml:"risk_per_trade"`
		Risk           RiskLimitConfig    `yaml:"risk"`
		Execution      ExecutionConfig    `yaml:"execution"`
		StartTime      *time.Time         `yaml:"start_time"`
		EndTime        *time.Time         `yaml:"end_time"`
	}

	var plain plainConfig
	if err := unmarshal(&plain); err != nil {
		return err
	}

	c.InitialCapital = plain.InitialCapital
	c.Instruments = plain.Instruments
	c.Strategies = plain.Strategies
	c.VoteThreshold = plain.VoteThreshold
	c.RiskPerTrade = plain.RiskPerTrade
	c.Risk = plain.Risk
	c.Execution = plain.Execution

	if plain.StartTime != nil {
		c.StartTime = optional.Some(*plain.StartTime)
	}

	if plain.EndTime != nil {
		c.EndTime = optional.Some(*plain.EndTime)
	}

	return nil
}

// Validate validates the configuration, including nested instruments and
// strategies.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid configuration", err)
	}

	return nil
}

// Instrument returns the registered instrument for a symbol.
func (c *Config) Instrument(symbol string) (types.Instrument, bool) {
	for _, instrument := range c.Instruments {
		if instrument.Symbol == symbol {
			return instrument, true
		}
	}

	return types.Instrument{}, false
}

// Symbols returns the configured instrument symbols in declaration order.
func (c *Config) Symbols() []string {
	symbols := make([]string, 0, len(c.Instruments))
	for _, instrument := range c.Instruments {
		symbols = append(symbols, instrument.Symbol)
	}

	return symbols
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoadFailed, "failed to read config file", err)
	}

	return Parse(data)
}

// Parse parses and validates configuration bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(errors.ErrCodeConfigLoadFailed, "failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// GenerateSchema generates a JSON schema for the Config.
func (c *Config) GenerateSchema() (*jsonschema.Schema, error) {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		AllowAdditionalProperties:  false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t.String() == "optional.Option[time.Time]" {
				return &jsonschema.Schema{
					Type:   "string",
					Format: "date-time",
				}
			}
			if strings.Contains(t.String(), "fee.Model") {
				return &jsonschema.Schema{
					Type: "string",
					Enum: fee.AllModels,
				}
			}
			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "stratigo-config"
	schema.Description = "Configuration schema for the trading core"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema, nil
}

// GenerateSchemaJSON generates a JSON schema string for the Config.
func (c *Config) GenerateSchemaJSON() (string, error) {
	schema, err := c.GenerateSchema()
	if err != nil {
		return "", err
	}

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// EmptyConfig returns a Config with zero values and no time bounds.
func EmptyConfig() Config {
	return Config{
		InitialCapital: 0,
		Instruments:    nil,
		Strategies:     nil,
		VoteThreshold:  0,
		RiskPerTrade:   0,
		Risk:           RiskLimitConfig{},
		Execution:      ExecutionConfig{FeeModel: fee.ModelZero},
		StartTime:      optional.None[time.Time](),
		EndTime:        optional.None[time.Time](),
	}
}

// TestConfig returns a configuration suitable for tests: one BTC-USD
// instrument, all three strategies enabled with weight 1, zero fees and
// slippage, and generous risk limits.
func TestConfig() Config {
	return Config{
		InitialCapital: 10000,
		Instruments: []types.Instrument{
			{
				Symbol:      "BTC-USD",
				TickSize:    0.01,
				StepSize:    0.0001,
				MinQuantity: 0.0001,
				MinNotional: 1,
			},
		},
		Strategies: []StrategyConfig{
			{Name: "smarttrend", Enabled: true, Weight: 1, Params: nil},
			{Name: "emacross", Enabled: true, Weight: 1, Params: nil},
			{Name: "breakout", Enabled: true, Weight: 1, Params: nil},
		},
		VoteThreshold: 0.5,
		RiskPerTrade:  0.1,
		Risk: RiskLimitConfig{
			MaxPositionSize: 10,
			MaxExposure:     1e6,
			MaxDailyLoss:    1e6,
			MaxDrawdown:     1,
			MaxDailyTrades:  0,
			AllowShort:      false,
		},
		Execution: ExecutionConfig{
			FeeModel:       fee.ModelZero,
			FeeRate:        0,
			SlippageImpact: 0,
			MaxSlippage:    0,
		},
		StartTime: optional.None[time.Time](),
		EndTime:   optional.None[time.Time](),
	}
}

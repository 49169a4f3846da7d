package types

import "time"

type EventType string

const (
	// EventTypeFill reports an executed simulated trade.
	EventTypeFill EventType = "FILL"
	// EventTypeRiskVeto reports a rejected or scaled decision.
	EventTypeRiskVeto EventType = "RISK_VETO"
	// EventTypeError reports a non-fatal pipeline error.
	EventTypeError EventType = "ERROR"
	// EventTypeSystem reports engine lifecycle changes (start, stop, day
	// rollover, drawdown alerts).
	EventTypeSystem EventType = "SYSTEM"
)

// Event is the structured record forwarded to the notifier collaborator.
// Delivery is at-least-once and must never block the pipeline.
type Event struct {
	Type      EventType         `yaml:"type" json:"type"`
	Symbol    string            `yaml:"symbol" json:"symbol"`
	Message   string            `yaml:"message" json:"message"`
	Timestamp time.Time         `yaml:"timestamp" json:"timestamp"`
	// Payload carries event-specific key-value details, e.g. fill price and
	// quantity, or a risk rejection reason code.
	Payload map[string]string `yaml:"payload" json:"payload"`
}

// Package events decouples the trading pipeline from downstream consumers.
// The bus buffers events and delivers them to a notifier on a separate
// goroutine; a slow or failing notifier never blocks the pipeline, it only
// costs the oldest buffered events.
package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/risk"
	"github.com/stratigo-lab/stratigo/internal/types"
)

// Notifier delivers one event to an external consumer. Implementations may
// fail transiently; delivery is retried with exponential backoff before the
// event is dropped.
type Notifier interface {
	Notify(ctx context.Context, event types.Event) error
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event types.Event) error

func (f NotifierFunc) Notify(ctx context.Context, event types.Event) error {
	return f(ctx, event)
}

// Bus is a buffered, drop-oldest event dispatcher.
type Bus struct {
	notifier Notifier
	buffer   chan types.Event
	logger   *logger.Logger
	maxRetry time.Duration
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	dropped  int
}

// NewBus creates a bus with the given buffer capacity.
func NewBus(notifier Notifier, capacity int, l *logger.Logger) *Bus {
	return &Bus{
		notifier: notifier,
		buffer:   make(chan types.Event, capacity),
		logger:   l,
		maxRetry: 10 * time.Second,
	}
}

// Start launches the delivery goroutine. Delivery stops when the bus is
// closed or the context is cancelled.
func (b *Bus) Start(ctx context.Context) {
	b.wg.Add(1)

	go func() {
		defer b.wg.Done()

		for event := range b.buffer {
			b.deliver(ctx, event)
		}
	}()
}

// Publish enqueues an event without blocking. When the buffer is full the
// oldest buffered event is dropped to make room.
func (b *Bus) Publish(event types.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	for {
		select {
		case b.buffer <- event:
			return
		default:
		}

		select {
		case dropped := <-b.buffer:
			b.dropped++
			b.logger.Warn("event buffer full, dropped oldest event",
				zap.String("type", string(dropped.Type)),
				zap.String("symbol", dropped.Symbol),
			)
		default:
		}
	}
}

// Dropped returns the number of events dropped due to a full buffer.
func (b *Bus) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.dropped
}

// Close stops accepting events, drains the buffer and waits for delivery to
// finish.
func (b *Bus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.buffer)
	b.mu.Unlock()

	b.wg.Wait()
}

func (b *Bus) deliver(ctx context.Context, event types.Event) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = b.maxRetry
	policy := backoff.WithContext(bo, ctx)

	err := backoff.Retry(func() error {
		return b.notifier.Notify(ctx, event)
	}, policy)
	if err != nil {
		b.logger.Warn("event delivery failed, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("symbol", event.Symbol),
			zap.Error(err),
		)
	}
}

// FillEvent builds the event published for every executed fill.
func FillEvent(fill types.Fill) types.Event {
	return types.Event{
		Type:      types.EventTypeFill,
		Symbol:    fill.Symbol,
		Message:   fmt.Sprintf("%s %.6f %s at %.2f", fill.Side, fill.Quantity, fill.Symbol, fill.Price),
		Timestamp: fill.Time,
		Payload: map[string]string{
			"fill_id":     fill.ID,
			"decision_id": fill.DecisionID,
			"side":        string(fill.Side),
			"quantity":    fmt.Sprintf("%f", fill.Quantity),
			"price":       fmt.Sprintf("%f", fill.Price),
			"fee":         fmt.Sprintf("%f", fill.Fee),
		},
	}
}

// VetoEvent builds the event published when the risk manager rejects or
// scales a decision.
func VetoEvent(result risk.Result) types.Event {
	action := "rejected"
	if result.Verdict == risk.VerdictScaled {
		action = "scaled"
	}

	return types.Event{
		Type:      types.EventTypeRiskVeto,
		Symbol:    result.Decision.Symbol,
		Message:   fmt.Sprintf("decision %s %s: %s", result.Decision.ID, action, result.Reason),
		Timestamp: result.Decision.Time,
		Payload: map[string]string{
			"decision_id": result.Decision.ID,
			"verdict":     string(result.Verdict),
			"reason":      result.Reason,
		},
	}
}

// ErrorEvent builds the event published for pipeline errors.
func ErrorEvent(symbol string, at time.Time, err error) types.Event {
	return types.Event{
		Type:      types.EventTypeError,
		Symbol:    symbol,
		Message:   err.Error(),
		Timestamp: at,
	}
}

// SystemEvent builds a lifecycle event (start, stop, halt).
func SystemEvent(message string, at time.Time) types.Event {
	return types.Event{
		Type:      types.EventTypeSystem,
		Message:   message,
		Timestamp: at,
	}
}

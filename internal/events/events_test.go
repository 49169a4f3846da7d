package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/risk"
	"github.com/stratigo-lab/stratigo/internal/types"
	"github.com/stratigo-lab/stratigo/pkg/errors"
)

// recordingNotifier collects delivered events, optionally failing the first
// few deliveries.
type recordingNotifier struct {
	mu       sync.Mutex
	events   []types.Event
	failures int
}

func (n *recordingNotifier) Notify(_ context.Context, event types.Event) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.failures > 0 {
		n.failures--
		return errors.New(errors.ErrCodeCollaboratorUnavailable, "notifier unavailable")
	}

	n.events = append(n.events, event)

	return nil
}

func (n *recordingNotifier) delivered() []types.Event {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]types.Event, len(n.events))
	copy(out, n.events)

	return out
}

type BusTestSuite struct {
	suite.Suite
	notifier *recordingNotifier
}

func TestBusTestSuite(t *testing.T) {
	suite.Run(t, new(BusTestSuite))
}

func (suite *BusTestSuite) SetupTest() {
	suite.notifier = &recordingNotifier{}
}

func (suite *BusTestSuite) event(message string) types.Event {
	return types.Event{
		Type:      types.EventTypeSystem,
		Message:   message,
		Timestamp: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (suite *BusTestSuite) TestDeliversInOrder() {
	bus := NewBus(suite.notifier, 8, logger.NewNopLogger())
	bus.Start(context.Background())

	bus.Publish(suite.event("first"))
	bus.Publish(suite.event("second"))
	bus.Publish(suite.event("third"))
	bus.Close()

	delivered := suite.notifier.delivered()
	suite.Require().Len(delivered, 3)
	suite.Equal("first", delivered[0].Message)
	suite.Equal("second", delivered[1].Message)
	suite.Equal("third", delivered[2].Message)
}

func (suite *BusTestSuite) TestRetriesTransientFailure() {
	suite.notifier.failures = 2

	bus := NewBus(suite.notifier, 8, logger.NewNopLogger())
	bus.Start(context.Background())

	bus.Publish(suite.event("retried"))
	bus.Close()

	delivered := suite.notifier.delivered()
	suite.Require().Len(delivered, 1)
	suite.Equal("retried", delivered[0].Message)
}

func (suite *BusTestSuite) TestDropsOldestWhenFull() {
	// No delivery goroutine: the buffer fills up and the oldest entries are
	// evicted on further publishes.
	bus := NewBus(suite.notifier, 2, logger.NewNopLogger())

	bus.Publish(suite.event("first"))
	bus.Publish(suite.event("second"))
	bus.Publish(suite.event("third"))

	suite.Equal(1, bus.Dropped())

	bus.Start(context.Background())
	bus.Close()

	delivered := suite.notifier.delivered()
	suite.Require().Len(delivered, 2)
	suite.Equal("second", delivered[0].Message)
	suite.Equal("third", delivered[1].Message)
}

func (suite *BusTestSuite) TestPublishAfterCloseIsNoop() {
	bus := NewBus(suite.notifier, 2, logger.NewNopLogger())
	bus.Start(context.Background())
	bus.Close()

	bus.Publish(suite.event("late"))
	suite.Empty(suite.notifier.delivered())
}

func (suite *BusTestSuite) TestFillEventPayload() {
	fill := types.Fill{
		ID:         "f-1",
		DecisionID: "d-1",
		Symbol:     "BTC-USD",
		Side:       types.SignalDirectionBuy,
		Quantity:   1.5,
		Price:      100.25,
		Fee:        0.1,
		Time:       time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}

	event := FillEvent(fill)
	suite.Equal(types.EventTypeFill, event.Type)
	suite.Equal("BTC-USD", event.Symbol)
	suite.Equal("f-1", event.Payload["fill_id"])
	suite.Equal("d-1", event.Payload["decision_id"])
	suite.Equal("BUY", event.Payload["side"])
}

func (suite *BusTestSuite) TestVetoEventPayload() {
	result := risk.Result{
		Verdict: risk.VerdictRejected,
		Decision: types.Decision{
			ID:     "d-2",
			Symbol: "BTC-USD",
			Time:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		Reason: risk.ReasonDailyLoss,
	}

	event := VetoEvent(result)
	suite.Equal(types.EventTypeRiskVeto, event.Type)
	suite.Equal(risk.ReasonDailyLoss, event.Payload["reason"])
	suite.Equal(string(risk.VerdictRejected), event.Payload["verdict"])
	suite.Contains(event.Message, "DAILY_LOSS_EXCEEDED")

	result.Verdict = risk.VerdictScaled
	result.Reason = risk.ReasonPositionLimit

	event = VetoEvent(result)
	suite.Equal(string(risk.VerdictScaled), event.Payload["verdict"])
	suite.Equal(risk.ReasonPositionLimit, event.Payload["reason"])
	suite.Contains(event.Message, "scaled")
}

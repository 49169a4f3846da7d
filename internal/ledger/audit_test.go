package ledger

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/stratigo-lab/stratigo/internal/logger"
	"github.com/stratigo-lab/stratigo/internal/types"
)

type AuditStoreTestSuite struct {
	suite.Suite
	store *AuditStore
	start time.Time
}

func TestAuditStoreTestSuite(t *testing.T) {
	suite.Run(t, new(AuditStoreTestSuite))
}

func (suite *AuditStoreTestSuite) SetupTest() {
	store, err := NewAuditStore(":memory:", logger.NewNopLogger())
	suite.Require().NoError(err)
	suite.Require().NoError(store.Initialize())
	suite.store = store
	suite.start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (suite *AuditStoreTestSuite) TearDownTest() {
	suite.Require().NoError(suite.store.Close())
}

func (suite *AuditStoreTestSuite) fill(symbol string, quantity, price, fee float64, at time.Time) types.Fill {
	return types.Fill{
		ID:            uuid.New().String(),
		DecisionID:    uuid.New().String(),
		Symbol:        symbol,
		Side:          types.SignalDirectionBuy,
		Quantity:      quantity,
		Price:         price,
		ObservedPrice: price,
		Fee:           fee,
		Time:          at,
	}
}

func (suite *AuditStoreTestSuite) TestRecordAndReadBack() {
	first := suite.fill("BTC-USD", 1, 100, 0.1, suite.start)
	second := suite.fill("BTC-USD", 2, 101, 0.2, suite.start.Add(time.Minute))

	suite.Require().NoError(suite.store.Record(first))
	suite.Require().NoError(suite.store.Record(second))

	fills, err := suite.store.Fills()
	suite.Require().NoError(err)
	suite.Require().Len(fills, 2)
	suite.Equal(first.ID, fills[0].ID)
	suite.Equal(second.ID, fills[1].ID)
	suite.InDelta(2.0, fills[1].Quantity, 1e-9)

	count, err := suite.store.CountFills()
	suite.Require().NoError(err)
	suite.Equal(2, count)
}

func (suite *AuditStoreTestSuite) TestTotalFeesPerSymbol() {
	suite.Require().NoError(suite.store.Record(suite.fill("BTC-USD", 1, 100, 0.5, suite.start)))
	suite.Require().NoError(suite.store.Record(suite.fill("ETH-USD", 1, 100, 0.25, suite.start)))

	total, err := suite.store.TotalFees("BTC-USD")
	suite.Require().NoError(err)
	suite.InDelta(0.5, total, 1e-9)

	total, err = suite.store.TotalFees("SOL-USD")
	suite.Require().NoError(err)
	suite.Zero(total)
}

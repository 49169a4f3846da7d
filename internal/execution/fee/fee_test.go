package fee

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type FeeTestSuite struct {
	suite.Suite
}

func TestFeeSuite(t *testing.T) {
	suite.Run(t, new(FeeTestSuite))
}

func (suite *FeeTestSuite) TestZeroFee() {
	f := NewZeroFee()
	suite.Zero(f.Calculate(100, 50))
	suite.Zero(f.Calculate(0, 0))
}

func (suite *FeeTestSuite) TestFlatFee() {
	f := NewFlatFee(1.5)
	suite.Equal(1.5, f.Calculate(100, 50))
	suite.Equal(1.5, f.Calculate(0.001, 50))
	suite.Zero(f.Calculate(0, 50))
}

func (suite *FeeTestSuite) TestProportionalFee() {
	f := NewProportionalFee(0.001)
	suite.InDelta(5.0, f.Calculate(100, 50), 1e-9)
	suite.Zero(f.Calculate(0, 50))
	suite.Zero(f.Calculate(100, 0))
}

func (suite *FeeTestSuite) TestNewFee() {
	suite.IsType(&ZeroFee{}, NewFee(ModelZero, 0))
	suite.IsType(&FlatFee{}, NewFee(ModelFlat, 1))
	suite.IsType(&ProportionalFee{}, NewFee(ModelProportional, 0.001))
	suite.IsType(&ZeroFee{}, NewFee(Model("unknown"), 0))
}

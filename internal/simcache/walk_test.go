package simcache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/session"
)

func baseParams(kind session.MethodKind) session.SimulationParameters {
	return session.SimulationParameters{
		Symbol:           "AAPL",
		InitialPrice:     decimal.NewFromInt(100),
		Volatility:       decimal.NewFromFloat(0.2),
		RiskFreeRate:     decimal.NewFromFloat(0.01),
		DaysToExpiration: decimal.NewFromInt(30),
		TimeFrame:        session.TimeFrameDay,
		Steps:            5,
		Method: session.SimulationMethod{
			Kind: kind,
			Dt:   decimal.NewFromFloat(1.0 / 252),
		},
	}
}

func newSession(params session.SimulationParameters) session.Session {
	return session.New(params, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestBuildWalkLengthIsTotalStepsPlusOne(t *testing.T) {
	b := NewBuilder(nil)
	s := newSession(baseParams(session.MethodGeometricBrownian))

	walk, err := b.Build(s)
	require.NoError(t, err)
	assert.Len(t, walk.Steps, s.TotalSteps+1)
	assert.True(t, walk.Steps[0].UnderlyingPrice.Equal(decimal.NewFromInt(100)))
}

func TestGeometricBrownianWalkIsDeterministicPerSessionID(t *testing.T) {
	b := NewBuilder(nil)
	s := newSession(baseParams(session.MethodGeometricBrownian))

	first, err := b.Build(s)
	require.NoError(t, err)
	second, err := b.Build(s)
	require.NoError(t, err)

	require.Equal(t, len(first.Steps), len(second.Steps))
	for i := range first.Steps {
		assert.True(t, first.Steps[i].UnderlyingPrice.Equal(second.Steps[i].UnderlyingPrice),
			"step %d diverged between builds for the same session id", i)
	}
}

func TestBrownianWalkIsDeterministicPerSessionID(t *testing.T) {
	b := NewBuilder(nil)
	s := newSession(baseParams(session.MethodBrownian))

	first, err := b.Build(s)
	require.NoError(t, err)
	second, err := b.Build(s)
	require.NoError(t, err)

	for i := range first.Steps {
		assert.True(t, first.Steps[i].UnderlyingPrice.Equal(second.Steps[i].UnderlyingPrice))
	}
}

func TestDifferentSessionIDsProduceDifferentWalks(t *testing.T) {
	b := NewBuilder(nil)
	a := newSession(baseParams(session.MethodGeometricBrownian))
	other := newSession(baseParams(session.MethodGeometricBrownian))

	walkA, err := b.Build(a)
	require.NoError(t, err)
	walkOther, err := b.Build(other)
	require.NoError(t, err)

	diverged := false
	for i := range walkA.Steps {
		if !walkA.Steps[i].UnderlyingPrice.Equal(walkOther.Steps[i].UnderlyingPrice) {
			diverged = true
			break
		}
	}
	assert.True(t, diverged, "distinct session ids should produce distinct random paths")
}

func TestUnrecognizedMethodKindErrors(t *testing.T) {
	b := NewBuilder(nil)
	s := newSession(baseParams("not_a_real_method"))

	_, err := b.Build(s)
	require.Error(t, err)
	assert.Equal(t, apperr.KindSimulatorError, apperr.KindOf(err))
}

func TestHistoricalWalkUsesInlinePricesWhenLongEnough(t *testing.T) {
	params := baseParams(session.MethodHistorical)
	params.Steps = 2
	prices := []decimal.Decimal{
		decimal.NewFromInt(100),
		decimal.NewFromInt(101),
		decimal.NewFromInt(102),
	}
	params.Method.Prices = prices

	b := NewBuilder(nil)
	s := newSession(params)

	walk, err := b.Build(s)
	require.NoError(t, err)
	require.Len(t, walk.Steps, 3)
	assert.True(t, walk.Steps[2].UnderlyingPrice.Equal(decimal.NewFromInt(102)))
}

func TestHistoricalWalkInlinePricesTooShortPadsWithLastPrice(t *testing.T) {
	params := baseParams(session.MethodHistorical)
	params.Steps = 5
	params.Method.Prices = []decimal.Decimal{decimal.NewFromInt(100), decimal.NewFromInt(101)}

	b := NewBuilder(nil)
	s := newSession(params)

	walk, err := b.Build(s)
	require.NoError(t, err)
	require.Len(t, walk.Steps, 6)
	assert.True(t, walk.Steps[0].UnderlyingPrice.Equal(decimal.NewFromInt(100)))
	assert.True(t, walk.Steps[1].UnderlyingPrice.Equal(decimal.NewFromInt(101)))
	for i := 2; i < 6; i++ {
		assert.True(t, walk.Steps[i].UnderlyingPrice.Equal(decimal.NewFromInt(101)),
			"step %d should hold the last supplied price flat", i)
	}
}

func TestHistoricalWalkWithNoSourceErrorsNotEnoughData(t *testing.T) {
	params := baseParams(session.MethodHistorical)
	b := NewBuilder(nil)
	s := newSession(params)

	_, err := b.Build(s)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotEnoughData, apperr.KindOf(err))
}

type fakeHistoricalSource struct {
	prices []decimal.Decimal
	err    error
}

func (f *fakeHistoricalSource) Prices(symbol string, tf session.TimeFrame, steps int) ([]decimal.Decimal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.prices, nil
}

func TestHistoricalWalkFallsBackToSourceWhenNoInlinePrices(t *testing.T) {
	params := baseParams(session.MethodHistorical)
	params.Steps = 2
	source := &fakeHistoricalSource{prices: []decimal.Decimal{
		decimal.NewFromInt(10), decimal.NewFromInt(11), decimal.NewFromInt(12),
	}}
	b := NewBuilder(source)
	s := newSession(params)

	walk, err := b.Build(s)
	require.NoError(t, err)
	require.Len(t, walk.Steps, 3)
}

func TestHistoricalWalkSourceInsufficientDataPadsWithLastPrice(t *testing.T) {
	params := baseParams(session.MethodHistorical)
	params.Steps = 5
	source := &fakeHistoricalSource{prices: []decimal.Decimal{decimal.NewFromInt(10)}}
	b := NewBuilder(source)
	s := newSession(params)

	walk, err := b.Build(s)
	require.NoError(t, err)
	require.Len(t, walk.Steps, 6)
	for i := range walk.Steps {
		assert.True(t, walk.Steps[i].UnderlyingPrice.Equal(decimal.NewFromInt(10)),
			"step %d should hold the single supplied price flat", i)
	}
}

func TestHistoricalWalkSourceReturningNoDataErrorsNotEnoughData(t *testing.T) {
	params := baseParams(session.MethodHistorical)
	params.Steps = 5
	source := &fakeHistoricalSource{prices: nil}
	b := NewBuilder(source)
	s := newSession(params)

	_, err := b.Build(s)
	require.Error(t, err)
	assert.Equal(t, apperr.KindNotEnoughData, apperr.KindOf(err))
}

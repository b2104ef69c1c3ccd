// Package simcache holds the per-session simulation cache: a
// prebuilt "walk" of underlying prices and option chains, keyed by
// session id, rebuilt when no walk is cached, the session is at step 0,
// or the session is in state Reinitialized. A parameter change alone
// does not trigger a rebuild.
package simcache

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/historical"
	"github.com/optionchainsim/service/internal/pricing"
	"github.com/optionchainsim/service/internal/session"
	"gonum.org/v1/gonum/stat/distuv"
)

// Step is one point along a session's walk: the underlying price at
// that step and the option chain priced off of it.
type Step struct {
	UnderlyingPrice decimal.Decimal
	Timestamp       time.Time
	Chain           pricing.OptionChain
}

// Walk is the full prebuilt sequence for a session, indexed by step
// number (0..TotalSteps inclusive).
type Walk struct {
	Steps []Step
}

// HistoricalSource resolves historical price series for the
// MethodHistorical walk kernel. Implemented by internal/historical.Repository.
type HistoricalSource interface {
	Prices(symbol string, timeFrame session.TimeFrame, steps int) ([]decimal.Decimal, error)
}

// Builder constructs walks from session parameters. It owns no state
// of its own beyond its historical data source.
type Builder struct {
	Historical HistoricalSource
}

// NewBuilder constructs a Builder. hist may be nil if no session in
// this deployment uses MethodHistorical.
func NewBuilder(hist HistoricalSource) *Builder {
	return &Builder{Historical: hist}
}

// Build generates the full walk for a session's current parameters.
// Randomness is seeded from the session id so repeated builds for the
// same session (e.g. across store failovers) are reproducible.
func (b *Builder) Build(s session.Session) (Walk, error) {
	params := s.Parameters
	prices, err := b.underlyingPath(s.ID, params, s.TotalSteps)
	if err != nil {
		return Walk{}, err
	}

	stepDuration := params.TimeFrame.Duration(params.CustomDays)
	chainSize := params.EffectiveChainSize()
	strikeInterval := params.EffectiveStrikeInterval()
	skewSlope := params.EffectiveSkewSlope()
	spread := params.EffectiveSpread()
	smileCurve := decimal.Zero
	if params.SmileCurve != nil {
		smileCurve = *params.SmileCurve
	}

	walk := Walk{Steps: make([]Step, len(prices))}
	remainingDays := params.DaysToExpiration
	stepDays := decimal.NewFromFloat(stepDuration.Hours() / 24)

	for i, price := range prices {
		ts := s.CreatedAt.Add(time.Duration(i) * stepDuration)
		expDays := remainingDays.Sub(stepDays.Mul(decimal.NewFromInt(int64(i))))
		if expDays.IsNegative() {
			expDays = decimal.NewFromFloat(0.01)
		}
		chain := pricing.BuildChain(pricing.Context{
			Symbol:          params.Symbol,
			UnderlyingPrice: price,
			Timestamp:       ts,
			ExpirationDays:  expDays,
			Volatility:      params.Volatility,
			RiskFreeRate:    params.RiskFreeRate,
			DividendYield:   params.DividendYield,
			ChainSize:       chainSize,
			StrikeInterval:  strikeInterval,
			SkewSlope:       skewSlope,
			SmileCurve:      smileCurve,
			Spread:          spread,
			DecimalPlaces:   2,
		})
		walk.Steps[i] = Step{UnderlyingPrice: price, Timestamp: ts, Chain: chain}
	}
	return walk, nil
}

// underlyingPath dispatches to the kernel selected by Method.Kind and
// returns TotalSteps+1 prices (step 0 is the initial price).
func (b *Builder) underlyingPath(id uuid.UUID, params session.SimulationParameters, totalSteps int) ([]decimal.Decimal, error) {
	switch params.Method.Kind {
	case session.MethodGeometricBrownian:
		return geometricBrownianWalk(id, params, totalSteps), nil
	case session.MethodBrownian:
		return brownianWalk(id, params, totalSteps), nil
	case session.MethodHistorical:
		return b.historicalWalk(params, totalSteps)
	default:
		return nil, apperr.SimulatorError("unrecognized simulation method %q", params.Method.Kind)
	}
}

func seedFor(id uuid.UUID) int64 {
	var seed int64
	for _, b := range id {
		seed = seed<<8 | int64(b)
	}
	if seed < 0 {
		seed = -seed
	}
	return seed
}

func geometricBrownianWalk(id uuid.UUID, params session.SimulationParameters, totalSteps int) []decimal.Decimal {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.New(rand.NewSource(seedFor(id)))}
	dt, _ := params.Method.Dt.Float64()
	if dt <= 0 {
		dt = 1.0 / 252.0
	}
	drift, _ := params.Method.Drift.Float64()
	vol, _ := params.Method.Volatility.Float64()
	if vol == 0 {
		vol, _ = params.Volatility.Float64()
	}

	prices := make([]decimal.Decimal, totalSteps+1)
	prices[0] = params.InitialPrice
	s, _ := params.InitialPrice.Float64()
	for i := 1; i <= totalSteps; i++ {
		z := normal.Rand()
		s = s * math.Exp((drift-0.5*vol*vol)*dt+vol*math.Sqrt(dt)*z)
		if s < 0 {
			s = 0
		}
		prices[i] = decimal.NewFromFloat(s).Round(4)
	}
	return prices
}

func brownianWalk(id uuid.UUID, params session.SimulationParameters, totalSteps int) []decimal.Decimal {
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.New(rand.NewSource(seedFor(id)))}
	dt, _ := params.Method.Dt.Float64()
	if dt <= 0 {
		dt = 1.0 / 252.0
	}
	drift, _ := params.Method.Drift.Float64()
	vol, _ := params.Method.Volatility.Float64()
	if vol == 0 {
		vol, _ = params.Volatility.Float64()
	}

	prices := make([]decimal.Decimal, totalSteps+1)
	prices[0] = params.InitialPrice
	s, _ := params.InitialPrice.Float64()
	for i := 1; i <= totalSteps; i++ {
		z := normal.Rand()
		s = s + drift*dt + vol*math.Sqrt(dt)*z
		if s < 0 {
			s = 0
		}
		prices[i] = decimal.NewFromFloat(s).Round(4)
	}
	return prices
}

func (b *Builder) historicalWalk(params session.SimulationParameters, totalSteps int) ([]decimal.Decimal, error) {
	if len(params.Method.Prices) > 0 {
		return padHoldingLast(params.Method.Prices, totalSteps+1), nil
	}
	if b.Historical == nil {
		return nil, apperr.NotEnoughData("no historical data source configured for symbol %s", params.Symbol)
	}
	prices, err := b.Historical.Prices(params.Symbol, params.TimeFrame, totalSteps+1)
	if err != nil {
		return nil, err
	}
	if len(prices) == 0 {
		return nil, apperr.NotEnoughData("no historical points available for %s", params.Symbol)
	}
	return padHoldingLast(prices, totalSteps+1), nil
}

// padHoldingLast returns prices trimmed or extended to exactly n points.
// A series longer than n is truncated; a shorter one is padded by
// repeating its final price, so a walk never runs out of steps just
// because the historical series underneath it is shorter than requested.
func padHoldingLast(prices []decimal.Decimal, n int) []decimal.Decimal {
	if len(prices) >= n {
		return prices[:n]
	}
	padded := make([]decimal.Decimal, n)
	copy(padded, prices)
	last := prices[len(prices)-1]
	for i := len(prices); i < n; i++ {
		padded[i] = last
	}
	return padded
}

// compile-time check that historical.Repository satisfies HistoricalSource.
var _ HistoricalSource = (*historical.Repository)(nil)

// Package pricing prices a full option chain from a spot price and a
// volatility-surface shape: a strike ladder of call/put contracts
// with bid/ask/mid and Greeks.
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat/distuv"
)

// OptionPrice is one side (call or put) of a contract's pricing.
type OptionPrice struct {
	Bid   decimal.Decimal `json:"bid"`
	Ask   decimal.Decimal `json:"ask"`
	Mid   decimal.Decimal `json:"mid"`
	Delta decimal.Decimal `json:"delta"`
}

// OptionContract is one strike/expiration pair's full pricing.
type OptionContract struct {
	Strike            decimal.Decimal `json:"strike"`
	Expiration        time.Time       `json:"expiration"`
	Call              OptionPrice     `json:"call"`
	Put               OptionPrice     `json:"put"`
	ImpliedVolatility decimal.Decimal `json:"implied_volatility"`
	Gamma             decimal.Decimal `json:"gamma"`
}

// OptionChain is the full strike ladder at one point in the walk.
type OptionChain struct {
	Underlying      string           `json:"underlying"`
	Timestamp       time.Time        `json:"timestamp"`
	UnderlyingPrice decimal.Decimal  `json:"underlying_price"`
	Contracts       []OptionContract `json:"contracts"`
}

// Context carries the parameters a single chain build needs: the
// underlying price, volatility surface shape, and strike-grid shape.
type Context struct {
	Symbol           string
	UnderlyingPrice  decimal.Decimal
	Timestamp        time.Time
	ExpirationDays   decimal.Decimal
	Volatility       decimal.Decimal
	RiskFreeRate     decimal.Decimal
	DividendYield    decimal.Decimal
	ChainSize        int
	StrikeInterval   decimal.Decimal
	SkewSlope        decimal.Decimal
	SmileCurve       decimal.Decimal
	Spread           decimal.Decimal
	DecimalPlaces    int32
}

// standardNormal is shared across all strike computations; CDF/PDF are
// pure functions of the distribution parameters, safe for concurrent use.
var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// BuildChain enumerates chain_size strikes centered on the underlying
// price, spaced by strike_interval, and prices each with Black-Scholes
// using a volatility surface shaped by skew_slope/smile_curve.
func BuildChain(ctx Context) OptionChain {
	chain := OptionChain{
		Underlying:      ctx.Symbol,
		Timestamp:       ctx.Timestamp,
		UnderlyingPrice: ctx.UnderlyingPrice,
		Contracts:       make([]OptionContract, 0, ctx.ChainSize),
	}
	if ctx.ChainSize <= 0 {
		return chain
	}

	expiration := ctx.Timestamp.Add(daysToDuration(ctx.ExpirationDays))
	spot, _ := ctx.UnderlyingPrice.Float64()
	years := yearsFromDays(ctx.ExpirationDays)
	r, _ := ctx.RiskFreeRate.Float64()
	q, _ := ctx.DividendYield.Float64()
	baseVol, _ := ctx.Volatility.Float64()
	skew, _ := ctx.SkewSlope.Float64()
	smile, _ := ctx.SmileCurve.Float64()
	spread, _ := ctx.Spread.Float64()

	half := ctx.ChainSize / 2
	for i := 0; i < ctx.ChainSize; i++ {
		offset := decimal.NewFromInt(int64(i - half))
		strike := ctx.UnderlyingPrice.Add(offset.Mul(ctx.StrikeInterval)).Round(ctx.DecimalPlaces)
		k, _ := strike.Float64()
		if k <= 0 {
			continue
		}

		vol := volatilityAtStrike(baseVol, spot, k, skew, smile)
		call, put, gamma := blackScholes(spot, k, years, r, q, vol)

		contract := OptionContract{
			Strike:            strike,
			Expiration:        expiration,
			ImpliedVolatility: decimal.NewFromFloat(vol).Round(6),
			Gamma:             decimal.NewFromFloat(gamma).Round(6),
			Call:              priceWithSpread(call.price, call.delta, spread, ctx.DecimalPlaces),
			Put:               priceWithSpread(put.price, put.delta, spread, ctx.DecimalPlaces),
		}
		chain.Contracts = append(chain.Contracts, contract)
	}
	return chain
}

type legResult struct {
	price float64
	delta float64
}

// blackScholes returns the call and put theoretical prices plus the
// shared gamma for a single strike.
func blackScholes(spot, strike, years, r, q, vol float64) (call, put legResult, gamma float64) {
	if years <= 0 || vol <= 0 {
		intrinsicCall := math.Max(spot-strike, 0)
		intrinsicPut := math.Max(strike-spot, 0)
		return legResult{price: intrinsicCall, delta: boolToFloat(spot > strike)},
			legResult{price: intrinsicPut, delta: -boolToFloat(spot < strike)},
			0
	}

	sqrtT := math.Sqrt(years)
	d1 := (math.Log(spot/strike) + (r-q+0.5*vol*vol)*years) / (vol * sqrtT)
	d2 := d1 - vol*sqrtT

	nd1 := standardNormal.CDF(d1)
	nd2 := standardNormal.CDF(d2)
	nNegD1 := standardNormal.CDF(-d1)
	nNegD2 := standardNormal.CDF(-d2)

	discQ := math.Exp(-q * years)
	discR := math.Exp(-r * years)

	callPrice := spot*discQ*nd1 - strike*discR*nd2
	putPrice := strike*discR*nNegD2 - spot*discQ*nNegD1

	callDelta := discQ * nd1
	putDelta := discQ * (nd1 - 1)

	gamma = discQ * standardNormal.Prob(d1) / (spot * vol * sqrtT)

	return legResult{price: math.Max(callPrice, 0), delta: callDelta},
		legResult{price: math.Max(putPrice, 0), delta: putDelta},
		gamma
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// volatilityAtStrike applies a linear skew and quadratic smile around
// the spot price, floored so the surface never goes non-positive.
func volatilityAtStrike(baseVol, spot, strike, skewSlope, smileCurve float64) float64 {
	if spot == 0 {
		return baseVol
	}
	moneyness := (strike - spot) / spot
	vol := baseVol + skewSlope*moneyness + smileCurve*moneyness*moneyness
	if vol < 0.001 {
		vol = 0.001
	}
	return vol
}

// priceWithSpread turns a theoretical price into mid/bid/ask: mid is
// the theoretical price, bid = mid*(1-spread/2), ask = mid*(1+spread/2).
func priceWithSpread(mid, delta, spread float64, places int32) OptionPrice {
	bid := mid * (1 - spread/2)
	ask := mid * (1 + spread/2)
	if bid < 0 {
		bid = 0
	}
	return OptionPrice{
		Bid:   decimal.NewFromFloat(bid).Round(places),
		Ask:   decimal.NewFromFloat(ask).Round(places),
		Mid:   decimal.NewFromFloat(mid).Round(places),
		Delta: decimal.NewFromFloat(delta).Round(6),
	}
}

func yearsFromDays(days decimal.Decimal) float64 {
	d, _ := days.Float64()
	return d / 365.0
}

func daysToDuration(days decimal.Decimal) time.Duration {
	d, _ := days.Float64()
	return time.Duration(d * float64(24*time.Hour))
}

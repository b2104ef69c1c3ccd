// Package session implements the session lifecycle engine: the entity,
// its state machine, the store abstraction and its two backends, and
// the façade that orchestrates them for the HTTP transport.
package session

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/optionchainsim/service/internal/apperr"
)

// State is one of the session lifecycle states.
type State string

const (
	StateInitialized   State = "Initialized"
	StateInProgress    State = "InProgress"
	StateModified       State = "Modified"
	StateReinitialized State = "Reinitialized"
	StateCompleted      State = "Completed"
	StateError          State = "Error"
)

// TimeFrame is the unit a simulation step advances by.
type TimeFrame string

const (
	TimeFrameMicrosecond TimeFrame = "Microsecond"
	TimeFrameMillisecond TimeFrame = "Millisecond"
	TimeFrameSecond      TimeFrame = "Second"
	TimeFrameMinute      TimeFrame = "Minute"
	TimeFrameFiveMin     TimeFrame = "FiveMin"
	TimeFrameFifteenMin  TimeFrame = "FifteenMin"
	TimeFrameThirtyMin   TimeFrame = "ThirtyMin"
	TimeFrameHour        TimeFrame = "Hour"
	TimeFrameDay         TimeFrame = "Day"
	TimeFrameWeek        TimeFrame = "Week"
	TimeFrameMonth       TimeFrame = "Month"
	TimeFrameQuarter     TimeFrame = "Quarter"
	TimeFrameYear        TimeFrame = "Year"
	TimeFrameCustom      TimeFrame = "Custom"
)

// Duration returns the wall-clock duration one unit of the time frame
// represents. For TimeFrameCustom, CustomDays on SimulationParameters
// supplies the day count.
func (tf TimeFrame) Duration(customDays decimal.Decimal) time.Duration {
	switch tf {
	case TimeFrameMicrosecond:
		return time.Microsecond
	case TimeFrameMillisecond:
		return time.Millisecond
	case TimeFrameSecond:
		return time.Second
	case TimeFrameMinute:
		return time.Minute
	case TimeFrameFiveMin:
		return 5 * time.Minute
	case TimeFrameFifteenMin:
		return 15 * time.Minute
	case TimeFrameThirtyMin:
		return 30 * time.Minute
	case TimeFrameHour:
		return time.Hour
	case TimeFrameDay:
		return 24 * time.Hour
	case TimeFrameWeek:
		return 7 * 24 * time.Hour
	case TimeFrameMonth:
		return 30 * 24 * time.Hour
	case TimeFrameQuarter:
		return 90 * 24 * time.Hour
	case TimeFrameYear:
		return 365 * 24 * time.Hour
	case TimeFrameCustom:
		days, _ := customDays.Float64()
		return time.Duration(days * float64(24*time.Hour))
	default:
		return 24 * time.Hour
	}
}

// MethodKind discriminates the SimulationMethod tagged variant.
type MethodKind string

const (
	MethodGeometricBrownian MethodKind = "geometric_brownian"
	MethodBrownian          MethodKind = "brownian"
	MethodHistorical        MethodKind = "historical"
)

// SimulationMethod is a closed tagged-union describing the underlying
// price process. Exactly one of the method-specific field groups is
// populated, selected by Kind.
type SimulationMethod struct {
	Kind MethodKind `json:"kind"`

	// GeometricBrownian / Brownian
	Dt         decimal.Decimal `json:"dt,omitempty"`
	Drift      decimal.Decimal `json:"drift,omitempty"`
	Volatility decimal.Decimal `json:"volatility,omitempty"`

	// Historical
	Prices []decimal.Decimal `json:"prices,omitempty"`
}

// SimulationParameters is a value type describing how a session's walk
// and option chain are generated. No identity of its own; embedded by
// value in Session.
type SimulationParameters struct {
	Symbol           string          `json:"symbol"`
	InitialPrice     decimal.Decimal `json:"initial_price"`
	Volatility       decimal.Decimal `json:"volatility"`
	RiskFreeRate     decimal.Decimal `json:"risk_free_rate"`
	DividendYield    decimal.Decimal `json:"dividend_yield"`
	DaysToExpiration decimal.Decimal `json:"days_to_expiration"`
	TimeFrame        TimeFrame       `json:"time_frame"`
	CustomDays       decimal.Decimal `json:"custom_days,omitempty"`
	Steps            int             `json:"steps"`
	Method           SimulationMethod `json:"method"`

	ChainSize      *int             `json:"chain_size,omitempty"`
	StrikeInterval *decimal.Decimal `json:"strike_interval,omitempty"`
	SkewSlope      *decimal.Decimal `json:"skew_slope,omitempty"`
	SmileCurve     *decimal.Decimal `json:"smile_curve,omitempty"`
	Spread         *decimal.Decimal `json:"spread,omitempty"`

	// SkewFactor is a legacy alias for SkewSlope, accepted on decode and
	// never produced on encode.
	SkewFactor *decimal.Decimal `json:"skew_factor,omitempty"`
}

// rawParameters mirrors SimulationParameters for custom unmarshaling:
// it lets us fold the legacy skew_factor alias into SkewSlope without
// recursing into SimulationParameters.UnmarshalJSON.
type rawParameters SimulationParameters

// UnmarshalJSON maps the legacy skew_factor field onto SkewSlope when
// skew_slope itself is absent.
func (p *SimulationParameters) UnmarshalJSON(data []byte) error {
	var raw rawParameters
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.SkewSlope == nil && raw.SkewFactor != nil {
		raw.SkewSlope = raw.SkewFactor
	}
	raw.SkewFactor = nil
	*p = SimulationParameters(raw)
	return nil
}

// Validate checks the boundary invariants a caller must satisfy before
// a Session can be constructed from these parameters.
func (p SimulationParameters) Validate() error {
	if p.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if !p.InitialPrice.IsPositive() {
		return fmt.Errorf("initial_price must be positive")
	}
	if !p.Volatility.IsPositive() {
		return fmt.Errorf("volatility must be positive")
	}
	if !p.DaysToExpiration.IsPositive() {
		return fmt.Errorf("days_to_expiration must be positive")
	}
	if p.Steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	if p.ChainSize != nil && *p.ChainSize < 0 {
		return fmt.Errorf("chain_size must not be negative")
	}
	return nil
}

// EffectiveChainSize returns the configured chain size or its default.
func (p SimulationParameters) EffectiveChainSize() int {
	if p.ChainSize != nil {
		return *p.ChainSize
	}
	return 30
}

// EffectiveStrikeInterval returns the configured strike interval or its default.
func (p SimulationParameters) EffectiveStrikeInterval() decimal.Decimal {
	if p.StrikeInterval != nil {
		return *p.StrikeInterval
	}
	return decimal.NewFromInt(1)
}

// EffectiveSkewSlope returns the configured skew slope or its default.
func (p SimulationParameters) EffectiveSkewSlope() decimal.Decimal {
	if p.SkewSlope != nil {
		return *p.SkewSlope
	}
	return decimal.NewFromFloat(0.0005)
}

// EffectiveSpread returns the configured spread or its default.
func (p SimulationParameters) EffectiveSpread() decimal.Decimal {
	if p.Spread != nil {
		return *p.Spread
	}
	return decimal.NewFromFloat(0.01)
}

// Session is the central stateful entity the manager, store, and cache
// all key off of.
type Session struct {
	ID           uuid.UUID             `json:"id"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Parameters   SimulationParameters  `json:"parameters"`
	CurrentStep  int                   `json:"current_step"`
	TotalSteps   int                   `json:"total_steps"`
	State        State                 `json:"state"`
}

// New constructs a fresh Initialized session for the given parameters.
// now is injected so callers (and tests) control the clock.
func New(params SimulationParameters, now time.Time) Session {
	return Session{
		ID:          uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
		Parameters:  params,
		CurrentStep: 0,
		TotalSteps:  params.Steps,
		State:       StateInitialized,
	}
}

// ModifyParameters updates parameters in place, preserving CurrentStep,
// and forces state Modified. It does not touch any cached walk — that
// asymmetry relative to Reinitialize is intentional.
func (s *Session) ModifyParameters(params SimulationParameters, now time.Time) error {
	if s.State == StateError {
		return apperr.InvalidState("cannot modify parameters of a session in error state")
	}
	s.Parameters = params
	s.UpdatedAt = now
	s.State = StateModified
	return nil
}

// Reinitialize resets progression and replaces parameters/total_steps,
// forcing state Reinitialized. This is the one documented way out of
// StateError: every other state can reinitialize, and Error is no
// exception.
func (s *Session) Reinitialize(params SimulationParameters, totalSteps int, now time.Time) error {
	s.Parameters = params
	s.CurrentStep = 0
	s.TotalSteps = totalSteps
	s.UpdatedAt = now
	s.State = StateReinitialized
	return nil
}

// IsActive reports whether the session can still accept advance calls.
func (s Session) IsActive() bool {
	return s.State != StateCompleted && s.State != StateError
}

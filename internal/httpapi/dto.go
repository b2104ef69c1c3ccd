package httpapi

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/optionchainsim/service/internal/pricing"
	"github.com/optionchainsim/service/internal/session"
)

// SessionResponse is the wire shape for a session's lifecycle state.
type SessionResponse struct {
	ID          uuid.UUID                    `json:"id"`
	CreatedAt   time.Time                    `json:"created_at"`
	UpdatedAt   time.Time                    `json:"updated_at"`
	Parameters  session.SimulationParameters `json:"parameters"`
	CurrentStep int                          `json:"current_step"`
	TotalSteps  int                          `json:"total_steps"`
	State       session.State                `json:"state"`
}

func toSessionResponse(s session.Session) SessionResponse {
	return SessionResponse{
		ID:          s.ID,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
		Parameters:  s.Parameters,
		CurrentStep: s.CurrentStep,
		TotalSteps:  s.TotalSteps,
		State:       s.State,
	}
}

// ContractResponse is one strike's wire shape within a ChainResponse.
type ContractResponse struct {
	Strike            decimal.Decimal     `json:"strike"`
	Expiration        time.Time           `json:"expiration"`
	Call              pricing.OptionPrice `json:"call"`
	Put               pricing.OptionPrice `json:"put"`
	ImpliedVolatility decimal.Decimal     `json:"implied_volatility"`
	Gamma             decimal.Decimal     `json:"gamma"`
}

// SessionInfo is the trailing summary block on a ChainResponse.
type SessionInfo struct {
	ID          uuid.UUID `json:"id"`
	CurrentStep int       `json:"current_step"`
	TotalSteps  int       `json:"total_steps"`
}

// ChainResponse is the wire shape for get_next_step.
type ChainResponse struct {
	Underlying  string             `json:"underlying"`
	Timestamp   time.Time          `json:"timestamp"`
	Price       decimal.Decimal    `json:"price"`
	Contracts   []ContractResponse `json:"contracts"`
	SessionInfo SessionInfo        `json:"session_info"`
}

func toChainResponse(s session.Session, chain pricing.OptionChain) ChainResponse {
	contracts := make([]ContractResponse, len(chain.Contracts))
	for i, c := range chain.Contracts {
		contracts[i] = ContractResponse{
			Strike:            c.Strike,
			Expiration:        c.Expiration,
			Call:              c.Call,
			Put:               c.Put,
			ImpliedVolatility: c.ImpliedVolatility,
			Gamma:             c.Gamma,
		}
	}
	return ChainResponse{
		Underlying: chain.Underlying,
		Timestamp:  chain.Timestamp,
		Price:      chain.UnderlyingPrice,
		Contracts:  contracts,
		SessionInfo: SessionInfo{
			ID:          s.ID,
			CurrentStep: s.CurrentStep,
			TotalSteps:  s.TotalSteps,
		},
	}
}

// DeleteResponse is the wire shape for a successful delete_session call.
type DeleteResponse struct {
	Message string    `json:"message"`
	ID      uuid.UUID `json:"id"`
}

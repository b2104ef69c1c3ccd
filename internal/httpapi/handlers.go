// Package httpapi is the HTTP transport for the session lifecycle
// engine: a single resource, /api/v1/chain, dispatched by method.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/optionchainsim/service/internal/apperr"
	"github.com/optionchainsim/service/internal/session"
)

// ChainHandler implements the five /api/v1/chain operations.
type ChainHandler struct {
	manager *session.Manager
	log     zerolog.Logger
}

// NewChainHandler wires a session manager into the handler.
func NewChainHandler(manager *session.Manager, log zerolog.Logger) *ChainHandler {
	return &ChainHandler{manager: manager, log: log.With().Str("component", "chain_handler").Logger()}
}

// CreateSession handles POST /api/v1/chain.
func (h *ChainHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var params session.SimulationParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, apperr.New(apperr.KindInvalidState, "malformed request body: %v", err))
		return
	}

	s, err := h.manager.CreateSession(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toSessionResponse(s))
}

// GetNextStep handles GET /api/v1/chain?id=<uuid>.
func (h *ChainHandler) GetNextStep(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s, chain, err := h.manager.GetNextStep(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toChainResponse(s, chain))
}

// ReplaceSession handles PUT /api/v1/chain?id=<uuid>.
func (h *ChainHandler) ReplaceSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var params session.SimulationParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, apperr.New(apperr.KindInvalidState, "malformed request body: %v", err))
		return
	}

	s, err := h.manager.ReplaceSession(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// UpdateSession handles PATCH /api/v1/chain?id=<uuid>.
func (h *ChainHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var params session.SimulationParameters
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, apperr.New(apperr.KindInvalidState, "malformed request body: %v", err))
		return
	}

	s, err := h.manager.UpdateSession(r.Context(), id, params)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionResponse(s))
}

// DeleteSession handles DELETE /api/v1/chain?id=<uuid>.
func (h *ChainHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	ok, err := h.manager.DeleteSession(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !ok {
		writeError(w, apperr.NotFound("session %s not found", id))
		return
	}
	writeJSON(w, http.StatusOK, DeleteResponse{Message: "session deleted", ID: id})
}

func parseID(r *http.Request) (uuid.UUID, error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return uuid.UUID{}, apperr.New(apperr.KindInvalidState, "id query parameter is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.UUID{}, apperr.New(apperr.KindInvalidState, "id is not a valid uuid: %v", err)
	}
	return id, nil
}

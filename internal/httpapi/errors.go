package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/optionchainsim/service/internal/apperr"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an apperr.Kind onto its HTTP status and writes the
// uniform error envelope. Errors not produced by apperr are treated
// as internal.
func writeError(w http.ResponseWriter, err error) {
	status := statusForKind(apperr.KindOf(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidState:
		return http.StatusBadRequest
	case apperr.KindSimulatorError:
		return http.StatusGone
	case apperr.KindNotEnoughData:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
